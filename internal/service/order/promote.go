package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/broce-labs/partsline/internal/auth"
	"github.com/broce-labs/partsline/internal/entity"
	"github.com/broce-labs/partsline/internal/permission"
	repo "github.com/broce-labs/partsline/internal/repository/order"
	"github.com/broce-labs/partsline/pkg/errorbank"
)

// promotionRequirement maps a target status onto the access rule for
// requesting it. The fulfillment gates priced and shipped are admin-only even
// for the order's owner; client-class targets and the archive side-exit are
// open to the owner or any admin.
func promotionRequirement(ownerID int64, target entity.Status) permission.Requirement {
	switch target {
	case entity.StatusPriced, entity.StatusShipped:
		return permission.MinimumRole(auth.RoleAdmin)
	default:
		return permission.OwnerOrRole(ownerID, auth.RoleAdmin)
	}
}

// Promote moves an order to the requested status. The fulfillment chain
// quote→priced→ordered→shipped only ever advances one step; archived and
// abandoned skip the adjacency check. The current-row flip, status insert
// and notification update run in one transaction with the order row locked,
// so concurrent promotions serialize per order.
func (s *Service) Promote(ctx context.Context, principal *auth.Principal, orderID int64, statusName string) error {
	target, ok := entity.ParseStatus(statusName)
	if !ok {
		return errorbank.BadRequest("invalid status type", errorbank.WithDetail("status", statusName))
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.Promote", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("order.target_status", target.String()),
	))
	defer span.End()

	var from entity.Status
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		order, err := s.repo.LockByID(ctx, tx, orderID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errorbank.DataIntegrity("order not found for promotion", errorbank.WithDetail("order_id", orderID))
			}
			return err
		}
		if order.UserID == 0 {
			return errorbank.DataIntegrity("order has no owner", errorbank.WithDetail("order_id", orderID))
		}

		if err := permission.Authorize(principal, promotionRequirement(order.UserID, target)); err != nil {
			return err
		}

		if !target.SideExit() {
			current, err := s.repo.CurrentStatus(ctx, tx, orderID)
			switch {
			case err == nil:
				from = current.Status()
			case errors.Is(err, repo.ErrNotFound):
				from = 0
			default:
				return err
			}
			if from+1 != target {
				return errorbank.Unprocessable("requested status promotion is not allowed",
					errorbank.WithDetail("from", from.String()),
					errorbank.WithDetail("to", target.String()),
				)
			}
		} else if current, err := s.repo.CurrentStatus(ctx, tx, orderID); err == nil {
			from = current.Status()
		}

		if err := s.repo.AdvanceStatus(ctx, tx, orderID, target); err != nil {
			return err
		}
		return s.notifications.SetStatus(ctx, tx, orderID, target)
	})
	if err != nil {
		var appErr *errorbank.AppError
		if errors.As(err, &appErr) {
			if appErr.Kind() == errorbank.KindDataIntegrity {
				s.logger.Error("promotion hit inconsistent order state", zap.Int64("order_id", orderID), zap.Error(err))
			}
			return err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("status promotion failed", zap.Int64("order_id", orderID), zap.Error(err))
		return errorbank.Internal("failed to promote order status", errorbank.WithCause(err))
	}

	s.invalidateCache(ctx, orderID)
	s.publishStatusChanged(ctx, orderID, from, target)
	return nil
}

// OrderStatusChangedEvent is emitted after a committed status promotion.
// From is empty for the initial quote recorded at order creation.
type OrderStatusChangedEvent struct {
	OrderID int64     `json:"order_id"`
	From    string    `json:"from,omitempty"`
	To      string    `json:"to"`
	At      time.Time `json:"at"`
}

func (s *Service) publishStatusChanged(ctx context.Context, orderID int64, from, to entity.Status) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := OrderStatusChangedEvent{
		OrderID: orderID,
		To:      to.String(),
		At:      time.Now().UTC(),
	}
	if from.Valid() {
		event.From = from.String()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal status changed", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, []byte(fmt.Sprintf("order-%d", orderID)), payload); err != nil {
		s.logger.Error("publish status changed", zap.Error(err))
	}
}
