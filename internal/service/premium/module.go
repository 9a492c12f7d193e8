package premium

import "go.uber.org/fx"

// Module provides the premium request service to Fx.
var Module = fx.Provide(NewService)
