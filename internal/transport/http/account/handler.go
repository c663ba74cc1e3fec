package account

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
	service "github.com/broce-labs/partsline/internal/service/account"
	userservice "github.com/broce-labs/partsline/internal/service/user"
	"github.com/broce-labs/partsline/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/broce-labs/partsline/transport/http/account")

// Handler exposes account endpoints over HTTP.
type Handler struct {
	svc   *service.Service
	users *userservice.Service
}

// NewHandler constructs an account Handler.
func NewHandler(svc *service.Service, users *userservice.Service) *Handler {
	return &Handler{svc: svc, users: users}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler, tokens *auth.Service) {
	g := e.Group("/accounts", tokens.Middleware())
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.GET("/:id/users", h.listUsers)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

type createPayload struct {
	AccountName    string `json:"account_name"`
	BillingAddress string `json:"billing_address"`
	BillingCity    string `json:"billing_city"`
	BillingState   string `json:"billing_state"`
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

	ctx, span := httpTracer.Start(c.Request().Context(), "accounts.create", trace.WithAttributes(attribute.String("account.name", payload.AccountName)))
	defer span.End()

	account, err := h.svc.Create(ctx, principal, service.CreateInput{
		AccountName:    payload.AccountName,
		BillingAddress: payload.BillingAddress,
		BillingCity:    payload.BillingCity,
		BillingState:   payload.BillingState,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.FromAccount(account)).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.PrincipalFrom(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "accounts.list")
	defer span.End()

	accounts, err := h.svc.List(ctx, principal)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromAccounts(accounts)).Build()
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

	ctx, span := httpTracer.Start(c.Request().Context(), "accounts.getByID", trace.WithAttributes(attribute.Int64("account.id", id)))
	defer span.End()

	account, err := h.svc.Get(ctx, principal, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromAccount(account)).Build()
}

func (h *Handler) listUsers(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.PrincipalFrom(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "accounts.listUsers", trace.WithAttributes(attribute.Int64("account.id", id)))
	defer span.End()

	users, err := h.users.ListByAccount(ctx, principal, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromUsers(users)).Build()
}

type updatePayload struct {
	AccountName    *string `json:"account_name"`
	BillingAddress *string `json:"billing_address"`
	BillingCity    *string `json:"billing_city"`
	BillingState   *string `json:"billing_state"`
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

	ctx, span := httpTracer.Start(c.Request().Context(), "accounts.update", trace.WithAttributes(attribute.Int64("account.id", id)))
	defer span.End()

	if err := h.svc.Update(ctx, principal, id, service.Patch{
		AccountName:    payload.AccountName,
		BillingAddress: payload.BillingAddress,
		BillingCity:    payload.BillingCity,
		BillingState:   payload.BillingState,
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

	ctx, span := httpTracer.Start(c.Request().Context(), "accounts.delete", trace.WithAttributes(attribute.Int64("account.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, principal, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusNoContent).Build()
}
