package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/fx"

	"github.com/broce-labs/partsline/internal/config"
	"github.com/broce-labs/partsline/pkg/errorbank"
)

// Module provides the token service to Fx.
var Module = fx.Provide(NewService)

// Claims carries the principal fields inside a signed token.
type Claims struct {
	UserID    int64 `json:"uid"`
	Role      int   `json:"role"`
	AccountID int64 `json:"account_id"`
	jwt.RegisteredClaims
}

// Service issues and verifies the HS256 tokens used for request authentication.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService builds a token Service from configuration.
func NewService(cfg config.Config) *Service {
	return &Service{
		secret: []byte(cfg.Auth.Secret),
		ttl:    cfg.Auth.TokenTTL,
	}
}

// Issue signs a token for the given principal.
func (s *Service) Issue(p Principal) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID:    p.ID,
		Role:      int(p.Role),
		AccountID: p.AccountID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses a signed token back into a Principal.
func (s *Service) Verify(tokenString string) (*Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errorbank.Unauthorized("invalid or expired token", errorbank.WithCause(err))
	}
	if claims.UserID == 0 || !Role(claims.Role).Valid() {
		return nil, errorbank.Unauthorized("no user data found")
	}
	return &Principal{
		ID:        claims.UserID,
		Role:      Role(claims.Role),
		AccountID: claims.AccountID,
	}, nil
}
