package notification

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/broce-labs/partsline/internal/auth"
	"github.com/broce-labs/partsline/internal/entity"
	"github.com/broce-labs/partsline/internal/permission"
	repo "github.com/broce-labs/partsline/internal/repository/notification"
	orderrepo "github.com/broce-labs/partsline/internal/repository/order"
	"github.com/broce-labs/partsline/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/broce-labs/partsline/service/notification")

// visibleStatuses splits the six statuses by which viewer class acts on
// them: clients react to admin-driven stages, admins to client-driven ones.
var visibleStatuses = map[auth.Role][]entity.Status{
	auth.RoleClient: {entity.StatusPriced, entity.StatusShipped, entity.StatusArchived},
	auth.RoleAdmin:  {entity.StatusQuote, entity.StatusOrdered, entity.StatusAbandoned},
}

func visibleTo(role auth.Role, status entity.Status) bool {
	for _, s := range visibleStatuses[role] {
		if s == status {
			return true
		}
	}
	return false
}

// Service projects per-order unread state from the status pipeline.
type Service struct {
	repo   *repo.Repository
	orders *orderrepo.Repository
	logger *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Orders     *orderrepo.Repository
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:   p.Repository,
		orders: p.Orders,
		logger: p.Logger,
	}
}

// Row is one notification as exposed to callers.
type Row struct {
	ID      int64
	OrderID int64
	New     bool
	Status  string
}

// List returns the notifications in the principal's visible set: admins see
// every order parked at a client-driven stage, clients see their own orders
// parked at an admin-driven stage.
func (s *Service) List(ctx context.Context, principal *auth.Principal) ([]Row, error) {
	if err := permission.Authorize(principal, permission.MinimumRoleAnyOf(auth.RoleClient, auth.RoleAdmin)); err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "NotificationService.List", trace.WithAttributes(attribute.Int64("user.id", principal.ID)))
	defer span.End()

	ownerID := principal.ID
	if principal.IsAdmin() {
		ownerID = 0
	}

	orders, err := s.orders.List(ctx, ownerID, visibleStatuses[principal.Role])
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("notification order scan failed", zap.Error(err))
		return nil, errorbank.Internal("failed to list notifications", errorbank.WithCause(err))
	}
	if len(orders) == 0 {
		return []Row{}, nil
	}

	orderIDs := make([]int64, 0, len(orders))
	for _, order := range orders {
		orderIDs = append(orderIDs, order.ID)
	}

	notifications, err := s.repo.ListByOrders(ctx, orderIDs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("notification list failed", zap.Error(err))
		return nil, errorbank.Internal("failed to list notifications", errorbank.WithCause(err))
	}

	rows := make([]Row, 0, len(notifications))
	for _, n := range notifications {
		rows = append(rows, Row{
			ID:      n.ID,
			OrderID: n.OrderID,
			New:     n.New,
			Status:  n.Status().String(),
		})
	}
	return rows, nil
}

// MarkSeen acknowledges the order's current status for the principal. Past
// the ordered boundary the notification is fully resolved and deleted;
// before it the unread flag is simply cleared. A viewer whose class is not
// responsible for the current status cannot record "seen" at all.
func (s *Service) MarkSeen(ctx context.Context, principal *auth.Principal, orderID int64) error {
	ctx, span := serviceTracer.Start(ctx, "NotificationService.MarkSeen", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, orderrepo.ErrNotFound) {
			return errorbank.NotFound("order not found")
		}
		return errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}
	if err := permission.Authorize(principal, permission.OwnerOrRole(order.UserID, auth.RoleAdmin)); err != nil {
		return err
	}

	current, err := s.orders.CurrentStatus(ctx, s.orders.Writer(), orderID)
	if err != nil {
		if errors.Is(err, orderrepo.ErrNotFound) {
			s.logger.Error("order has no current status", zap.Int64("order_id", orderID))
			return errorbank.DataIntegrity("order has no current status", errorbank.WithDetail("order_id", orderID))
		}
		return errorbank.Internal("failed to load order status", errorbank.WithCause(err))
	}

	if !visibleTo(principal.Role, current.Status()) {
		return errorbank.Forbidden("permission denied")
	}

	if current.Status() > entity.StatusOrdered {
		err = s.repo.DeleteByOrder(ctx, orderID)
	} else {
		err = s.repo.MarkSeen(ctx, orderID)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("mark seen failed", zap.Int64("order_id", orderID), zap.Error(err))
		return errorbank.Internal("failed to mark notification seen", errorbank.WithCause(err))
	}
	return nil
}
