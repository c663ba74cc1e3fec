package notification

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/broce-labs/partsline/internal/auth"
	"github.com/broce-labs/partsline/internal/dto"
	"github.com/broce-labs/partsline/internal/presentation/http/response"
	service "github.com/broce-labs/partsline/internal/service/notification"
	"github.com/broce-labs/partsline/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/broce-labs/partsline/transport/http/notification")

// Handler exposes the notification feed over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a notification Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler, tokens *auth.Service) {
	g := e.Group("/notifications", tokens.Middleware())
	g.GET("", h.list)
	g.PUT("/:orderId/seen", h.markSeen)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.PrincipalFrom(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "notifications.list")
	defer span.End()

	rows, err := h.svc.List(ctx, principal)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromNotificationRows(rows)).Build()
}

func (h *Handler) markSeen(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.PrincipalFrom(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	orderID, err := strconv.ParseInt(c.Param("orderId"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "notifications.markSeen", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	if err := h.svc.MarkSeen(ctx, principal, orderID); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]int64{"order_id": orderID}).Build()
}
