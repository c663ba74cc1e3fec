package order

import (
	"go.uber.org/fx"

	"github.com/labstack/echo/v4"

	"github.com/broce-labs/partsline/internal/auth"
)

// Module wires HTTP order handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler, tokens *auth.Service) {
		Register(e, h, tokens)
	}),
)
