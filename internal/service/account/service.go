package account

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

	"github.com/broce-labs/partsline/internal/auth"
	"github.com/broce-labs/partsline/internal/entity"
	"github.com/broce-labs/partsline/internal/permission"
	repo "github.com/broce-labs/partsline/internal/repository/account"
	"github.com/broce-labs/partsline/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/broce-labs/partsline/service/account")

// Service manages customer accounts.
type Service struct {
	repo   *repo.Repository
	logger *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:   p.Repository,
		logger: p.Logger,
	}
}

// CreateInput carries a new account.
type CreateInput struct {
	AccountName    string
	BillingAddress string
	BillingCity    string
	BillingState   string
}

// Create registers a new customer account.
func (s *Service) Create(ctx context.Context, principal *auth.Principal, input CreateInput) (*entity.Account, error) {
	if err := permission.Authorize(principal, permission.MinimumRole(auth.RoleAdmin)); err != nil {
		return nil, err
	}
	if input.AccountName == "" {
		return nil, errorbank.BadRequest("no account_name provided")
	}

	ctx, span := serviceTracer.Start(ctx, "AccountService.Create", trace.WithAttributes(attribute.String("account.name", input.AccountName)))
	defer span.End()

	now := time.Now().UTC()
	account := &entity.Account{
		AccountName:    input.AccountName,
		BillingAddress: input.BillingAddress,
		BillingCity:    input.BillingCity,
		BillingState:   input.BillingState,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("account creation failed", zap.String("name", input.AccountName), zap.Error(err))
		return nil, errorbank.Internal("failed to create account", errorbank.WithCause(err))
	}
	return account, nil
}

// Get returns one account by id.
func (s *Service) Get(ctx context.Context, principal *auth.Principal, id int64) (*entity.Account, error) {
	if err := permission.Authorize(principal, permission.MinimumRoleAnyOf(auth.RoleClient, auth.RoleAdmin)); err != nil {
		return nil, err
	}

	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("account not found")
		}
		s.logger.Error("account load failed", zap.Int64("id", id), zap.Error(err))
		return nil, errorbank.Internal("failed to load account", errorbank.WithCause(err))
	}
	return account, nil
}

// List returns all accounts.
func (s *Service) List(ctx context.Context, principal *auth.Principal) ([]*entity.Account, error) {
	if err := permission.Authorize(principal, permission.MinimumRole(auth.RoleAdmin)); err != nil {
		return nil, err
	}

	accounts, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("account list failed", zap.Error(err))
		return nil, errorbank.Internal("failed to list accounts", errorbank.WithCause(err))
	}
	return accounts, nil
}

// Patch carries the whitelisted mutable account columns.
type Patch struct {
	AccountName    *string
	BillingAddress *string
	BillingCity    *string
	BillingState   *string
}

// Update patches the whitelisted account fields.
func (s *Service) Update(ctx context.Context, principal *auth.Principal, id int64, patch Patch) error {
	if err := permission.Authorize(principal, permission.MinimumRole(auth.RoleAdmin)); err != nil {
		return err
	}

	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("account not found")
		}
		return errorbank.Internal("failed to load account", errorbank.WithCause(err))
	}

	columns := make([]string, 0, 5)
	if patch.AccountName != nil {
		account.AccountName = *patch.AccountName
		columns = append(columns, "account_name")
	}
	if patch.BillingAddress != nil {
		account.BillingAddress = *patch.BillingAddress
		columns = append(columns, "billing_address")
	}
	if patch.BillingCity != nil {
		account.BillingCity = *patch.BillingCity
		columns = append(columns, "billing_city")
	}
	if patch.BillingState != nil {
		account.BillingState = *patch.BillingState
		columns = append(columns, "billing_state")
	}
	if len(columns) == 0 {
		return nil
	}
	account.UpdatedAt = time.Now().UTC()
	columns = append(columns, "updated_at")

	if err := s.repo.Update(ctx, account, columns...); err != nil {
		s.logger.Error("account update failed", zap.Int64("id", id), zap.Error(err))
		return errorbank.Internal("failed to update account", errorbank.WithCause(err))
	}
	return nil
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, principal *auth.Principal, id int64) error {
	if err := permission.Authorize(principal, permission.MinimumRole(auth.RoleAdmin)); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("account not found")
		}
		s.logger.Error("account delete failed", zap.Int64("id", id), zap.Error(err))
		return errorbank.Internal("failed to delete account", errorbank.WithCause(err))
	}
	return nil
}
