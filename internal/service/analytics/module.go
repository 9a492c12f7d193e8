package analytics

import "go.uber.org/fx"

// Module provides the analytics service to Fx, both as itself and as the
// Invalidator the write paths use to drop cached figures.
var Module = fx.Provide(
	fx.Annotate(
		NewService,
		fx.As(fx.Self()),
		fx.As(new(Invalidator)),
	),
)
