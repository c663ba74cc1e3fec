package account

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/broce-labs/partsline/internal/database"
	"github.com/broce-labs/partsline/internal/entity"
)

var repoTracer = otel.Tracer("github.com/broce-labs/partsline/repository/account")

// ErrNotFound is returned when an account is missing.
var ErrNotFound = errors.New("account not found")

// Repository encapsulates read/write access for accounts.
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

// Create persists a new account.
func (r *Repository) Create(ctx context.Context, account *entity.Account) error {
	ctx, span := repoTracer.Start(ctx, "AccountRepository.Create", trace.WithAttributes(attribute.String("account.name", account.AccountName)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(account).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches an account by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Account, error) {
	account := new(entity.Account)
	err := r.reader.NewSelect().Model(account).Where("a.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// List returns all accounts.
func (r *Repository) List(ctx context.Context) ([]*entity.Account, error) {
	var accounts []*entity.Account
	if err := r.reader.NewSelect().Model(&accounts).Order("a.id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Update persists the given whitelisted columns of an account.
func (r *Repository) Update(ctx context.Context, account *entity.Account, columns ...string) error {
	_, err := r.writer.NewUpdate().Model(account).
		Column(columns...).
		WherePK().
		Exec(ctx)
	return err
}

// Delete removes an account by id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.writer.NewDelete().Model((*entity.Account)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}
