package seeder

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/broce-labs/partsline/internal/auth"
	"github.com/broce-labs/partsline/internal/database"
	"github.com/broce-labs/partsline/internal/entity"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// All runs every seed step in dependency order.
func (s *Seeder) All(ctx context.Context) error {
	if err := s.StatusTypes(ctx); err != nil {
		return err
	}
	if err := s.Accounts(ctx); err != nil {
		return err
	}
	if err := s.Users(ctx); err != nil {
		return err
	}
	return s.Parts(ctx)
}

// StatusTypes seeds the six static status rows. The ordinals are load-bearing:
// promotions compare them for adjacency.
func (s *Seeder) StatusTypes(ctx context.Context) error {
	types := []entity.StatusType{
		{ID: int64(entity.StatusQuote), Status: entity.StatusQuote.String()},
		{ID: int64(entity.StatusPriced), Status: entity.StatusPriced.String()},
		{ID: int64(entity.StatusOrdered), Status: entity.StatusOrdered.String()},
		{ID: int64(entity.StatusShipped), Status: entity.StatusShipped.String()},
		{ID: int64(entity.StatusArchived), Status: entity.StatusArchived.String()},
		{ID: int64(entity.StatusAbandoned), Status: entity.StatusAbandoned.String()},
	}

	for _, sample := range types {
		statusType := sample
		_, err := s.db.NewInsert().Model(&statusType).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded status types", zap.Int("count", len(types)))
	}
	return nil
}

// Accounts seeds a demo customer account.
func (s *Seeder) Accounts(ctx context.Context) error {
	now := time.Now().UTC()
	account := entity.Account{
		ID:             1,
		AccountName:    "Broce Demo Paving",
		BillingAddress: "100 Grader Way",
		BillingCity:    "Dodge City",
		BillingState:   "KS",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	_, err := s.db.NewInsert().Model(&account).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("seeded accounts", zap.Int("count", 1))
	}
	return nil
}

// Users seeds one admin and one client login, both with password "changeme".
func (s *Seeder) Users(ctx context.Context) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	users := []entity.User{
		{
			FirstName:    "Ada",
			LastName:     "Admin",
			Email:        "admin@partsline.local",
			PasswordHash: string(hash),
			Role:         auth.RoleAdmin,
			AccountID:    1,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		{
			FirstName:    "Clint",
			LastName:     "Client",
			Email:        "client@partsline.local",
			PasswordHash: string(hash),
			Role:         auth.RoleClient,
			AccountID:    1,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}

	for _, sample := range users {
		user := sample
		_, err := s.db.NewInsert().Model(&user).
			On("CONFLICT (email) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded users", zap.Int("count", len(users)))
	}
	return nil
}

// Parts seeds a handful of catalogue entries.
func (s *Seeder) Parts(ctx context.Context) error {
	now := time.Now().UTC()
	samples := []entity.Part{
		{Number: "BB-250-001", Description: "Broom core bearing", Cost: 42.50, ImageURL: "https://cdn.partsline.local/parts/bb-250-001.jpg", CreatedAt: now, UpdatedAt: now},
		{Number: "BB-250-014", Description: "Poly bristle section", Cost: 12.75, ImageURL: "https://cdn.partsline.local/parts/bb-250-014.jpg", CreatedAt: now, UpdatedAt: now},
		{Number: "KR-350-202", Description: "Hydraulic drive motor", Cost: 618.00, ImageURL: "https://cdn.partsline.local/parts/kr-350-202.jpg", CreatedAt: now, UpdatedAt: now},
	}

	for _, sample := range samples {
		part := sample
		_, err := s.db.NewInsert().Model(&part).
			On("CONFLICT (number) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded parts", zap.Int("count", len(samples)))
	}
	return nil
}
