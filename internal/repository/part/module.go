package part

import "go.uber.org/fx"

// Module provides the part repository to Fx.
var Module = fx.Provide(NewRepository)
