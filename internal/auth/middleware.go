package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/broce-labs/partsline/internal/presentation/http/response"
	"github.com/broce-labs/partsline/pkg/errorbank"
)

const principalContextKey = "partsline.principal"

// Middleware resolves the bearer token into a Principal and stores it on the
// request context. Requests without a resolvable principal are rejected.
func (s *Service) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return response.New(c).WithError(errorbank.Unauthorized("authentication required")).Build()
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")
			principal, err := s.Verify(tokenString)
			if err != nil {
				return response.New(c).WithError(err).Build()
			}
			c.Set(principalContextKey, principal)
			return next(c)
		}
	}
}

// PrincipalFrom extracts the authenticated principal placed by Middleware.
func PrincipalFrom(c echo.Context) (*Principal, error) {
	principal, ok := c.Get(principalContextKey).(*Principal)
	if !ok || principal == nil {
		return nil, errorbank.Unauthorized("no user data found")
	}
	return principal, nil
}
