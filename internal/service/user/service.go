package user

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/broce-labs/partsline/internal/auth"
	"github.com/broce-labs/partsline/internal/entity"
	"github.com/broce-labs/partsline/internal/permission"
	repo "github.com/broce-labs/partsline/internal/repository/user"
	"github.com/broce-labs/partsline/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/broce-labs/partsline/service/user")

// Service handles signup, login and user lookups.
type Service struct {
	repo   *repo.Repository
	tokens *auth.Service
	logger *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Tokens     *auth.Service
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:   p.Repository,
		tokens: p.Tokens,
		logger: p.Logger,
	}
}

// SignupInput carries the fields required to register a user.
type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      auth.Role
	AccountID int64
}

// Session is the result of a successful signup or login.
type Session struct {
	Token string
	User  *entity.User
}

// Signup registers a new user and returns a signed session token.
// Email addresses are unique across the system.
func (s *Service) Signup(ctx context.Context, input SignupInput) (*Session, error) {
	if input.FirstName == "" {
		return nil, errorbank.BadRequest("no first_name provided")
	}
	if input.LastName == "" {
		return nil, errorbank.BadRequest("no last_name provided")
	}
	if input.Email == "" {
		return nil, errorbank.BadRequest("no email provided")
	}
	if input.Password == "" {
		return nil, errorbank.BadRequest("no password provided")
	}
	if !input.Role.Valid() {
		return nil, errorbank.BadRequest("invalid role provided")
	}

	ctx, span := serviceTracer.Start(ctx, "UserService.Signup", trace.WithAttributes(attribute.String("user.email", input.Email)))
	defer span.End()

	if _, err := s.repo.GetByEmail(ctx, input.Email); err == nil {
		return nil, errorbank.BadRequest("user already exists with that email")
	} else if !errors.Is(err, repo.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("user lookup failed", zap.String("email", input.Email), zap.Error(err))
		return nil, errorbank.Internal("failed to check email", errorbank.WithCause(err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errorbank.Internal("failed to hash password", errorbank.WithCause(err))
	}

	now := time.Now().UTC()
	user := &entity.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         input.Role,
		AccountID:    input.AccountID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("user creation failed", zap.String("email", input.Email), zap.Error(err))
		return nil, errorbank.Internal("failed to create user", errorbank.WithCause(err))
	}

	token, err := s.tokens.Issue(user.Principal())
	if err != nil {
		return nil, errorbank.Internal("failed to issue token", errorbank.WithCause(err))
	}
	return &Session{Token: token, User: user}, nil
}

// Login checks credentials and returns a fresh session token. The same
// error is returned for an unknown email and a wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" {
		return nil, errorbank.BadRequest("no email provided")
	}
	if password == "" {
		return nil, errorbank.BadRequest("no password provided")
	}

	ctx, span := serviceTracer.Start(ctx, "UserService.Login", trace.WithAttributes(attribute.String("user.email", email)))
	defer span.End()

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.Unauthorized("wrong credentials provided")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("user lookup failed", zap.String("email", email), zap.Error(err))
		return nil, errorbank.Internal("failed to load user", errorbank.WithCause(err))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errorbank.Unauthorized("wrong credentials provided")
	}

	token, err := s.tokens.Issue(user.Principal())
	if err != nil {
		return nil, errorbank.Internal("failed to issue token", errorbank.WithCause(err))
	}
	return &Session{Token: token, User: user}, nil
}

// Get returns one user. Clients may only read themselves.
func (s *Service) Get(ctx context.Context, principal *auth.Principal, id int64) (*entity.User, error) {
	if err := permission.Authorize(principal, permission.OwnerOrRole(id, auth.RoleAdmin)); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("user not found")
		}
		s.logger.Error("user load failed", zap.Int64("id", id), zap.Error(err))
		return nil, errorbank.Internal("failed to load user", errorbank.WithCause(err))
	}
	return user, nil
}

// ListByAccount returns the users grouped under an account.
func (s *Service) ListByAccount(ctx context.Context, principal *auth.Principal, accountID int64) ([]*entity.User, error) {
	if err := permission.Authorize(principal, permission.MinimumRole(auth.RoleAdmin)); err != nil {
		return nil, err
	}

	users, err := s.repo.ListByAccount(ctx, accountID)
	if err != nil {
		s.logger.Error("user list failed", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, errorbank.Internal("failed to list users", errorbank.WithCause(err))
	}
	return users, nil
}
