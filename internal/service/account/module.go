package account

import "go.uber.org/fx"

// Module provides account service dependencies.
var Module = fx.Provide(NewService)
