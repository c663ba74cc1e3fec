package part

import "go.uber.org/fx"

// Module provides part service dependencies.
var Module = fx.Provide(NewService)
