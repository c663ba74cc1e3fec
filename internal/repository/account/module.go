package account

import "go.uber.org/fx"

// Module provides the account repository to Fx.
var Module = fx.Provide(NewRepository)
