package part

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

var repoTracer = otel.Tracer("github.com/broce-labs/partsline/repository/part")

// ErrNotFound is returned when a part is missing.
var ErrNotFound = errors.New("part not found")

// Repository encapsulates read/write access for parts reference data.
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

// Create persists a new part.
func (r *Repository) Create(ctx context.Context, part *entity.Part) error {
	ctx, span := repoTracer.Start(ctx, "PartRepository.Create", trace.WithAttributes(attribute.String("part.number", part.Number)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(part).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches a part by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Part, error) {
	part := new(entity.Part)
	err := r.reader.NewSelect().Model(part).Where("p.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return part, nil
}

// GetByNumber fetches a part by its natural key.
func (r *Repository) GetByNumber(ctx context.Context, db bun.IDB, number string) (*entity.Part, error) {
	part := new(entity.Part)
	err := db.NewSelect().Model(part).Where("number = ?", number).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return part, nil
}

// GetOrCreateByNumber resolves a part by number, creating a placeholder row
// with only the number populated when the part is unknown.
func (r *Repository) GetOrCreateByNumber(ctx context.Context, db bun.IDB, number string) (*entity.Part, error) {
	ctx, span := repoTracer.Start(ctx, "PartRepository.GetOrCreateByNumber", trace.WithAttributes(attribute.String("part.number", number)))
	defer span.End()

	part, err := r.GetByNumber(ctx, db, number)
	if err == nil {
		return part, nil
	}
	if !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		return nil, err
	}

	part = &entity.Part{Number: number}
	if _, err := db.NewInsert().Model(part).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, err
	}
	return part, nil
}

// List returns all parts ordered by number.
func (r *Repository) List(ctx context.Context) ([]*entity.Part, error) {
	var parts []*entity.Part
	if err := r.reader.NewSelect().Model(&parts).Order("number ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return parts, nil
}

// Update persists the given whitelisted columns of a part.
func (r *Repository) Update(ctx context.Context, part *entity.Part, columns ...string) error {
	_, err := r.writer.NewUpdate().Model(part).
		Column(columns...).
		WherePK().
		Exec(ctx)
	return err
}

// Delete removes a part by id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.writer.NewDelete().Model((*entity.Part)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}
