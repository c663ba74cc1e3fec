package part

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/broce-labs/partsline/internal/auth"
	"github.com/broce-labs/partsline/internal/dto"
	"github.com/broce-labs/partsline/internal/presentation/http/response"
	service "github.com/broce-labs/partsline/internal/service/part"
	"github.com/broce-labs/partsline/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/broce-labs/partsline/transport/http/part")

// Handler exposes the parts catalogue over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a part Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler, tokens *auth.Service) {
	g := e.Group("/parts", tokens.Middleware())
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

type createPayload struct {
	Number      string  `json:"number"`
	Description string  `json:"description"`
	Cost        float64 `json:"cost"`
	ImageURL    string  `json:"image_url"`
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.PrincipalFrom(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload createPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "parts.create", trace.WithAttributes(attribute.String("part.number", payload.Number)))
	defer span.End()

	part, err := h.svc.Create(ctx, principal, service.CreateInput{
		Number:      payload.Number,
		Description: payload.Description,
		Cost:        payload.Cost,
		ImageURL:    payload.ImageURL,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.FromPart(part)).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.PrincipalFrom(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "parts.list")
	defer span.End()

	parts, err := h.svc.List(ctx, principal)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromParts(parts)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.PrincipalFrom(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "parts.getByID", trace.WithAttributes(attribute.Int64("part.id", id)))
	defer span.End()

	part, err := h.svc.Get(ctx, principal, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromPart(part)).Build()
}

type updatePayload struct {
	Number      *string  `json:"number"`
	Description *string  `json:"description"`
	Cost        *float64 `json:"cost"`
	ImageURL    *string  `json:"image_url"`
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.PrincipalFrom(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	var payload updatePayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "parts.update", trace.WithAttributes(attribute.Int64("part.id", id)))
	defer span.End()

	if err := h.svc.Update(ctx, principal, id, service.Patch{
		Number:      payload.Number,
		Description: payload.Description,
		Cost:        payload.Cost,
		ImageURL:    payload.ImageURL,
	}); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]int64{"id": id}).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.PrincipalFrom(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "parts.delete", trace.WithAttributes(attribute.Int64("part.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, principal, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusNoContent).Build()
}
