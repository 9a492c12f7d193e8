package premium

import "go.uber.org/fx"

// Module provides the premium request repository to Fx.
var Module = fx.Provide(NewRepository)
