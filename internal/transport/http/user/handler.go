package user

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/broce-labs/partsline/internal/auth"
	"github.com/broce-labs/partsline/internal/dto"
	"github.com/broce-labs/partsline/internal/presentation/http/request"
	"github.com/broce-labs/partsline/internal/presentation/http/response"
	service "github.com/broce-labs/partsline/internal/service/user"
	"github.com/broce-labs/partsline/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/broce-labs/partsline/transport/http/user")

// Handler exposes signup, login and user lookups over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a user Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance. Signup and login are the
// only unauthenticated endpoints in the API.
func Register(e *echo.Echo, h *Handler, tokens *auth.Service) {
	e.POST("/users", h.signup)
	e.POST("/users/login", h.login)
	e.GET("/users/:id", h.getByID, tokens.Middleware())
}

type signupPayload struct {
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Email     string          `json:"email"`
	Password  string          `json:"password"`
	Role      json.RawMessage `json:"role"`
	AccountID int64           `json:"account_id"`
}

func (h *Handler) signup(c echo.Context) error {
	b := response.New(c)

	var payload signupPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	input := service.SignupInput{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Password:  payload.Password,
		Role:      auth.RoleClient,
		AccountID: payload.AccountID,
	}
	if len(payload.Role) > 0 {
		role, ok := request.Int(string(payload.Role))
		if !ok {
			return b.WithError(errorbank.BadRequest("invalid role provided")).Build()
		}
		input.Role = auth.Role(role)
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.signup", trace.WithAttributes(attribute.String("user.email", payload.Email)))
	defer span.End()

	session, err := h.svc.Signup(ctx, input)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.SessionResponse{
		Token: session.Token,
		User:  dto.FromUser(session.User),
	}).Build()
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c echo.Context) error {
	b := response.New(c)

	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.login", trace.WithAttributes(attribute.String("user.email", payload.Email)))
	defer span.End()

	session, err := h.svc.Login(ctx, payload.Email, payload.Password)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.SessionResponse{
		Token: session.Token,
		User:  dto.FromUser(session.User),
	}).Build()
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

	ctx, span := httpTracer.Start(c.Request().Context(), "users.getByID", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	user, err := h.svc.Get(ctx, principal, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromUser(user)).Build()
}
