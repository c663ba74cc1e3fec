package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/broce-labs/partsline/internal/database"
	"github.com/broce-labs/partsline/internal/entity"
)

var repoTracer = otel.Tracer("github.com/broce-labs/partsline/repository/user")

// ErrNotFound is returned when a user is missing.
var ErrNotFound = errors.New("user not found")

// Repository encapsulates read/write access for users.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Create persists a new user.
func (r *Repository) Create(ctx context.Context, user *entity.User) error {
	ctx, span := repoTracer.Start(ctx, "UserRepository.Create")
	defer span.End()

	_, err := r.writer.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches a user by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	user := new(entity.User)
	err := r.reader.NewSelect().Model(user).Where("u.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByEmail fetches a user by unique email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	user := new(entity.User)
	err := r.reader.NewSelect().Model(user).Where("email = ?", email).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ListByAccount returns the users grouped under an account.
func (r *Repository) ListByAccount(ctx context.Context, accountID int64) ([]*entity.User, error) {
	var users []*entity.User
	err := r.reader.NewSelect().Model(&users).
		Where("account_id = ?", accountID).
		Order("u.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return users, nil
}
