package notification

import "go.uber.org/fx"

// Module provides the notification service to Fx.
var Module = fx.Provide(NewService)
