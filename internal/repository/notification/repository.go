package notification

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

var repoTracer = otel.Tracer("github.com/broce-labs/partsline/repository/notification")

// ErrNotFound is returned when a notification is missing.
var ErrNotFound = errors.New("notification not found")

// Repository encapsulates read/write access for per-order notifications.
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

// Create persists a notification on the provided handle, so it can join the
// order-creation transaction.
func (r *Repository) Create(ctx context.Context, db bun.IDB, notification *entity.Notification) error {
	ctx, span := repoTracer.Start(ctx, "NotificationRepository.Create", trace.WithAttributes(attribute.Int64("order.id", notification.OrderID)))
	defer span.End()

	_, err := db.NewInsert().Model(notification).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByOrder fetches the notification row for an order.
func (r *Repository) GetByOrder(ctx context.Context, orderID int64) (*entity.Notification, error) {
	notification := new(entity.Notification)
	err := r.reader.NewSelect().Model(notification).Where("order_id = ?", orderID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return notification, nil
}

// ListByOrders fetches notification rows for a set of orders.
func (r *Repository) ListByOrders(ctx context.Context, orderIDs []int64) ([]*entity.Notification, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var notifications []*entity.Notification
	err := r.reader.NewSelect().Model(&notifications).
		Where("order_id IN (?)", bun.In(orderIDs)).
		Order("n.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// SetStatus repoints the notification at the promoted status and flags it
// unseen. Runs on the promotion transaction handle.
func (r *Repository) SetStatus(ctx context.Context, db bun.IDB, orderID int64, status entity.Status) error {
	ctx, span := repoTracer.Start(ctx, "NotificationRepository.SetStatus", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("order.status", status.String()),
	))
	defer span.End()

	_, err := db.NewUpdate().Model((*entity.Notification)(nil)).
		Set("status_type_id = ?", int64(status)).
		Set("? = ?", bun.Ident("new"), true).
		Where("order_id = ?", orderID).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}

// MarkSeen clears the unseen flag for an order's notification.
func (r *Repository) MarkSeen(ctx context.Context, orderID int64) error {
	_, err := r.writer.NewUpdate().Model((*entity.Notification)(nil)).
		Set("? = ?", bun.Ident("new"), false).
		Where("order_id = ?", orderID).
		Exec(ctx)
	return err
}

// DeleteByOrder removes the notification row for an order.
func (r *Repository) DeleteByOrder(ctx context.Context, orderID int64) error {
	_, err := r.writer.NewDelete().Model((*entity.Notification)(nil)).
		Where("order_id = ?", orderID).
		Exec(ctx)
	return err
}
