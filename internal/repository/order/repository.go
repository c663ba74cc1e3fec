package order

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/broce-labs/partsline/internal/database"
	"github.com/broce-labs/partsline/internal/entity"
)

var repoTracer = otel.Tracer("github.com/broce-labs/partsline/repository/order")

// ErrNotFound is returned when an order or line item is missing.
var ErrNotFound = errors.New("order not found")

// Repository encapsulates read/write access for the order aggregate: orders,
// line items and the status history.
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

// Writer exposes the primary connection for single-statement writes.
func (r *Repository) Writer() bun.IDB {
	return r.writer
}

// RunInTx executes fn inside a single write transaction. Promotion and the
// create/delete paths use this so their read-then-write steps are atomic.
func (r *Repository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	return r.writer.RunInTx(ctx, &sql.TxOptions{}, fn)
}

// Create persists a new order using the provided handle.
func (r *Repository) Create(ctx context.Context, db bun.IDB, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.Int64("order.user_id", order.UserID)))
	defer span.End()

	_, err := db.NewInsert().Model(order).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches an order by primary key from the read replica.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().Model(order).Where("o.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// GetWithRelations loads an order together with its line items (and their
// parts), status history and notification.
func (r *Repository) GetWithRelations(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetWithRelations", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().Model(order).
		Relation("Details").
		Relation("Details.Part").
		Relation("Statuses").
		Relation("Notification").
		Where("o.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// LockByID reads an order under a row lock so a concurrent promotion cannot
// pass the adjacency check against the same stale current row. SQLite has no
// SELECT FOR UPDATE; its single-writer transactions serialize instead.
func (r *Repository) LockByID(ctx context.Context, tx bun.IDB, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.LockByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	q := tx.NewSelect().Model(order).Where("o.id = ?", id)
	if r.writer.Dialect().Name() != dialect.SQLite {
		q = q.For("UPDATE")
	}
	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// List returns orders scoped to an owner (ownerID > 0) or all orders,
// optionally filtered to those whose current status is in statuses. Line
// items, parts and status history are embedded.
func (r *Repository) List(ctx context.Context, ownerID int64, statuses []entity.Status) ([]*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List", trace.WithAttributes(attribute.Int64("order.owner_id", ownerID)))
	defer span.End()

	var orders []*entity.Order
	q := r.reader.NewSelect().Model(&orders).
		Relation("Details").
		Relation("Details.Part").
		Relation("Statuses").
		Order("o.id ASC")
	if ownerID > 0 {
		q = q.Where("o.user_id = ?", ownerID)
	}
	if len(statuses) > 0 {
		ids := make([]int64, 0, len(statuses))
		for _, s := range statuses {
			ids = append(ids, int64(s))
		}
		q = q.Where("o.id IN (SELECT order_id FROM order_statuses WHERE ? AND status_type_id IN (?))", bun.Ident("current"), bun.In(ids))
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// Update persists the given whitelisted columns of an order.
func (r *Repository) Update(ctx context.Context, order *entity.Order, columns ...string) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Update", trace.WithAttributes(attribute.Int64("order.id", order.ID)))
	defer span.End()

	_, err := r.writer.NewUpdate().Model(order).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}

// DeleteCascade removes an order and its dependent rows in one transaction.
func (r *Repository) DeleteCascade(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.DeleteCascade", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	err := r.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*entity.OrderDetail)(nil)).Where("order_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*entity.OrderStatus)(nil)).Where("order_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*entity.Notification)(nil)).Where("order_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().Model((*entity.Order)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
	}
	return err
}

// InsertDetail appends a line item.
func (r *Repository) InsertDetail(ctx context.Context, db bun.IDB, detail *entity.OrderDetail) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.InsertDetail", trace.WithAttributes(attribute.Int64("order.id", detail.OrderID)))
	defer span.End()

	_, err := db.NewInsert().Model(detail).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetDetail fetches a single line item by id.
func (r *Repository) GetDetail(ctx context.Context, id int64) (*entity.OrderDetail, error) {
	detail := new(entity.OrderDetail)
	err := r.reader.NewSelect().Model(detail).Where("od.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// FindDetail locates a line item by its (order, machine, part) triple. The
// add-part path merges into this row instead of inserting a duplicate.
func (r *Repository) FindDetail(ctx context.Context, db bun.IDB, orderID, machineSerialNum, partID int64) (*entity.OrderDetail, error) {
	detail := new(entity.OrderDetail)
	err := db.NewSelect().Model(detail).
		Where("order_id = ?", orderID).
		Where("machine_serial_num = ?", machineSerialNum).
		Where("part_id = ?", partID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// UpdateDetail persists the given whitelisted columns of a line item.
func (r *Repository) UpdateDetail(ctx context.Context, db bun.IDB, detail *entity.OrderDetail, columns ...string) error {
	_, err := db.NewUpdate().Model(detail).
		Column(columns...).
		WherePK().
		Exec(ctx)
	return err
}

// CurrentStatus returns the current status row for an order. When more than
// one row is flagged current (a state the schema rules out) the highest
// ordinal wins, keeping the read deterministic.
func (r *Repository) CurrentStatus(ctx context.Context, db bun.IDB, orderID int64) (*entity.OrderStatus, error) {
	status := new(entity.OrderStatus)
	err := db.NewSelect().Model(status).
		Where("order_id = ?", orderID).
		Where("? = ?", bun.Ident("current"), true).
		Order("status_type_id DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return status, nil
}

// Statuses returns the full status history of an order, oldest first.
func (r *Repository) Statuses(ctx context.Context, orderID int64) ([]*entity.OrderStatus, error) {
	var statuses []*entity.OrderStatus
	err := r.reader.NewSelect().Model(&statuses).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

// AdvanceStatus flips any current rows off and appends the new current row,
// in that order, on the supplied transactional handle.
func (r *Repository) AdvanceStatus(ctx context.Context, tx bun.IDB, orderID int64, target entity.Status) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.AdvanceStatus", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("order.status", target.String()),
	))
	defer span.End()

	if _, err := tx.NewUpdate().Model((*entity.OrderStatus)(nil)).
		Set("? = ?", bun.Ident("current"), false).
		Where("order_id = ?", orderID).
		Where("? = ?", bun.Ident("current"), true).
		Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "clear current failed")
		return err
	}

	status := &entity.OrderStatus{
		OrderID:      orderID,
		StatusTypeID: int64(target),
		Current:      true,
	}
	if _, err := tx.NewInsert().Model(status).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert status failed")
		return err
	}
	return nil
}
