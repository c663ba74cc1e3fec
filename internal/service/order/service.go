package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/broce-labs/partsline/internal/auth"
	"github.com/broce-labs/partsline/internal/cache"
	"github.com/broce-labs/partsline/internal/config"
	"github.com/broce-labs/partsline/internal/entity"
	"github.com/broce-labs/partsline/internal/messaging"
	"github.com/broce-labs/partsline/internal/permission"
	notifrepo "github.com/broce-labs/partsline/internal/repository/notification"
	repo "github.com/broce-labs/partsline/internal/repository/order"
	partrepo "github.com/broce-labs/partsline/internal/repository/part"
	"github.com/broce-labs/partsline/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/broce-labs/partsline/service/order")

// Service owns the order aggregate: creation, line items, field patches and
// the status promotion pipeline.
type Service struct {
	repo          *repo.Repository
	parts         *partrepo.Repository
	notifications *notifrepo.Repository
	cache         cache.Store
	cacheTTL      time.Duration
	logger        *zap.Logger
	publisher     messaging.Client
	messaging     messagingConfig
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository    *repo.Repository
	Parts         *partrepo.Repository
	Notifications *notifrepo.Repository
	Cache         cache.Store
	Config        config.Config
	Logger        *zap.Logger
	Publisher     messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:          p.Repository,
		parts:         p.Parts,
		notifications: p.Notifications,
		cache:         p.Cache,
		cacheTTL:      p.Config.Cache.DefaultTTL,
		logger:        p.Logger,
		publisher:     p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
	}
}

// DetailInput is one requested line item at order creation.
type DetailInput struct {
	MachineSerialNum int64
	PartNumber       string
	Quantity         int64
}

// CreateInput carries the order creation payload.
type CreateInput struct {
	ShippingAddress string
	ShippingCity    string
	ShippingState   string
	ShippingZip     int64
	PONumber        string
	Details         []DetailInput
}

// Create opens a new order owned by the principal: the order row, one line
// item per requested detail (creating placeholder parts for unknown numbers), the
// initial quote status and the notification row, all in one transaction.
func (s *Service) Create(ctx context.Context, principal *auth.Principal, input CreateInput) (*entity.Order, error) {
	if err := permission.Authorize(principal, permission.MinimumRole(auth.RoleClient)); err != nil {
		return nil, err
	}
	if len(input.Details) == 0 {
		return nil, errorbank.BadRequest("no orderDetails provided")
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(attribute.Int64("order.user_id", principal.ID)))
	defer span.End()

	now := time.Now().UTC()
	order := &entity.Order{
		ShippingAddress: input.ShippingAddress,
		ShippingCity:    input.ShippingCity,
		ShippingState:   input.ShippingState,
		ShippingZip:     input.ShippingZip,
		PONumber:        input.PONumber,
		UserID:          principal.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := s.repo.Create(ctx, tx, order); err != nil {
			return err
		}
		for _, item := range input.Details {
			part, err := s.parts.GetOrCreateByNumber(ctx, tx, item.PartNumber)
			if err != nil {
				return err
			}
			detail := &entity.OrderDetail{
				OrderID:          order.ID,
				PartID:           part.ID,
				MachineSerialNum: item.MachineSerialNum,
				Quantity:         item.Quantity,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if err := s.repo.InsertDetail(ctx, tx, detail); err != nil {
				return err
			}
		}
		if err := s.repo.AdvanceStatus(ctx, tx, order.ID, entity.StatusQuote); err != nil {
			return err
		}
		return s.notifications.Create(ctx, tx, &entity.Notification{
			OrderID:      order.ID,
			StatusTypeID: int64(entity.StatusQuote),
			New:          true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	})
	if err != nil {
		wrapped := wrapTxError(err, "failed to create order")
		if wrapped != err {
			span.RecordError(err)
			span.SetStatus(codes.Error, "repository error")
			s.logger.Error("order creation failed", zap.Int64("user_id", principal.ID), zap.Error(err))
		}
		return nil, wrapped
	}

	s.publishStatusChanged(ctx, order.ID, 0, entity.StatusQuote)
	return order, nil
}

// Get returns one order with its line items, parts, status history and
// notification. Access is owner-or-admin, decided against the stored owner.
func (s *Service) Get(ctx context.Context, principal *auth.Principal, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.getFromCache(ctx, id)
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.Int64("id", id), zap.Error(err))
	}
	if order == nil {
		order, err = s.repo.GetWithRelations(ctx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, errorbank.NotFound("order not found")
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "repository error")
			s.logger.Error("order load failed", zap.Int64("id", id), zap.Error(err))
			return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
		}
		if err := s.storeInCache(ctx, order); err != nil {
			s.logger.Warn("orders cache write failed", zap.Int64("id", id), zap.Error(err))
		}
	}

	if err := permission.Authorize(principal, permission.OwnerOrRole(order.UserID, auth.RoleAdmin)); err != nil {
		return nil, err
	}
	return order, nil
}

// List returns the orders visible to the principal: all of them for admins,
// only owned ones for clients, optionally filtered by current status names.
func (s *Service) List(ctx context.Context, principal *auth.Principal, statusNames []string) ([]*entity.Order, error) {
	if err := permission.Authorize(principal, permission.MinimumRole(auth.RoleClient)); err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.List")
	defer span.End()

	var statuses []entity.Status
	for _, name := range statusNames {
		status, ok := entity.ParseStatus(name)
		if !ok {
			return nil, errorbank.BadRequest("invalid status type", errorbank.WithDetail("status", name))
		}
		statuses = append(statuses, status)
	}

	ownerID := principal.ID
	if principal.IsAdmin() {
		ownerID = 0
	}

	orders, err := s.repo.List(ctx, ownerID, statuses)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("order list failed", zap.Error(err))
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// AddPartInput describes an admin "add part to order" request.
type AddPartInput struct {
	MachineSerialNum int64
	PartNumber       string
	Quantity         int64
}

// AddPart appends a line item to an existing order, merging quantities into
// the existing row when the same (machine, part) pair is already present.
func (s *Service) AddPart(ctx context.Context, principal *auth.Principal, orderID int64, input AddPartInput) error {
	if err := permission.Authorize(principal, permission.MinimumRole(auth.RoleAdmin)); err != nil {
		return err
	}
	if input.PartNumber == "" {
		return errorbank.BadRequest("no partNumber provided")
	}
	if input.Quantity <= 0 {
		return errorbank.BadRequest("no partQty provided")
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.AddPart", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("part.number", input.PartNumber),
	))
	defer span.End()

	if _, err := s.repo.GetByID(ctx, orderID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("order not found")
		}
		return errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		part, err := s.parts.GetOrCreateByNumber(ctx, tx, input.PartNumber)
		if err != nil {
			return err
		}

		existing, err := s.repo.FindDetail(ctx, tx, orderID, input.MachineSerialNum, part.ID)
		if err == nil {
			existing.Quantity += input.Quantity
			existing.UpdatedAt = time.Now().UTC()
			return s.repo.UpdateDetail(ctx, tx, existing, "quantity", "updated_at")
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return err
		}

		now := time.Now().UTC()
		return s.repo.InsertDetail(ctx, tx, &entity.OrderDetail{
			OrderID:          orderID,
			PartID:           part.ID,
			MachineSerialNum: input.MachineSerialNum,
			Quantity:         input.Quantity,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	})
	if err != nil {
		wrapped := wrapTxError(err, "failed to add part to order")
		if wrapped != err {
			span.RecordError(err)
			span.SetStatus(codes.Error, "repository error")
			s.logger.Error("add part failed", zap.Int64("order_id", orderID), zap.Error(err))
		}
		return wrapped
	}

	s.invalidateCache(ctx, orderID)
	return nil
}

// OrderPatch carries the whitelisted mutable order columns. Nil fields are
// left untouched; anything else submitted by a client never reaches here.
type OrderPatch struct {
	ShippingAddress *string
	ShippingCity    *string
	ShippingState   *string
	ShippingZip     *int64
	PONumber        *string
}

// UpdateOrder patches the whitelisted order fields.
func (s *Service) UpdateOrder(ctx context.Context, principal *auth.Principal, id int64, patch OrderPatch) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.UpdateOrder", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("order not found")
		}
		return errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}
	if err := permission.Authorize(principal, permission.OwnerOrRole(order.UserID, auth.RoleAdmin)); err != nil {
		return err
	}

	columns := make([]string, 0, 6)
	if patch.ShippingAddress != nil {
		order.ShippingAddress = *patch.ShippingAddress
		columns = append(columns, "shipping_address")
	}
	if patch.ShippingCity != nil {
		order.ShippingCity = *patch.ShippingCity
		columns = append(columns, "shipping_city")
	}
	if patch.ShippingState != nil {
		order.ShippingState = *patch.ShippingState
		columns = append(columns, "shipping_state")
	}
	if patch.ShippingZip != nil {
		order.ShippingZip = *patch.ShippingZip
		columns = append(columns, "shipping_zip")
	}
	if patch.PONumber != nil {
		order.PONumber = *patch.PONumber
		columns = append(columns, "po_number")
	}
	if len(columns) == 0 {
		return nil
	}
	order.UpdatedAt = time.Now().UTC()
	columns = append(columns, "updated_at")

	if err := s.repo.Update(ctx, order, columns...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("order update failed", zap.Int64("order_id", id), zap.Error(err))
		return errorbank.Internal("failed to update order", errorbank.WithCause(err))
	}

	s.invalidateCache(ctx, id)
	return nil
}

// DetailPatch carries the whitelisted mutable line item columns.
type DetailPatch struct {
	Quantity          *int64
	Price             *float64
	Discount          *float64
	ShippingOptionID  *int64
	ShippingDetailID  *int64
	ShippingAddressID *int64
}

// UpdateDetail patches a line item and optionally chains a status promotion
// of the owning order when statusName is non-empty.
func (s *Service) UpdateDetail(ctx context.Context, principal *auth.Principal, detailID int64, patch DetailPatch, statusName string) error {
	if err := permission.Authorize(principal, permission.MinimumRole(auth.RoleAdmin)); err != nil {
		return err
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.UpdateDetail", trace.WithAttributes(attribute.Int64("order_detail.id", detailID)))
	defer span.End()

	detail, err := s.repo.GetDetail(ctx, detailID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("order detail not found")
		}
		return errorbank.Internal("failed to load order detail", errorbank.WithCause(err))
	}

	columns := make([]string, 0, 7)
	if patch.Quantity != nil {
		detail.Quantity = *patch.Quantity
		columns = append(columns, "quantity")
	}
	if patch.Price != nil {
		detail.Price = *patch.Price
		columns = append(columns, "price")
	}
	if patch.Discount != nil {
		detail.Discount = *patch.Discount
		columns = append(columns, "discount")
	}
	if patch.ShippingOptionID != nil {
		detail.ShippingOptionID = *patch.ShippingOptionID
		columns = append(columns, "shipping_option_id")
	}
	if patch.ShippingDetailID != nil {
		detail.ShippingDetailID = *patch.ShippingDetailID
		columns = append(columns, "shipping_detail_id")
	}
	if patch.ShippingAddressID != nil {
		detail.ShippingAddressID = *patch.ShippingAddressID
		columns = append(columns, "shipping_address_id")
	}

	if len(columns) > 0 {
		detail.UpdatedAt = time.Now().UTC()
		columns = append(columns, "updated_at")
		if err := s.repo.UpdateDetail(ctx, s.repo.Writer(), detail, columns...); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "repository error")
			s.logger.Error("order detail update failed", zap.Int64("order_detail_id", detailID), zap.Error(err))
			return errorbank.Internal("failed to update order detail", errorbank.WithCause(err))
		}
		s.invalidateCache(ctx, detail.OrderID)
	}

	if statusName != "" {
		return s.Promote(ctx, principal, detail.OrderID, statusName)
	}
	return nil
}

// Delete removes an order and all its dependent rows. Cascade was chosen over
// forbid-with-dependents so an admin purge never strands history rows.
func (s *Service) Delete(ctx context.Context, principal *auth.Principal, id int64) error {
	if err := permission.Authorize(principal, permission.MinimumRole(auth.RoleAdmin)); err != nil {
		return err
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if err := s.repo.DeleteCascade(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("order delete failed", zap.Int64("order_id", id), zap.Error(err))
		return errorbank.Internal("failed to delete order", errorbank.WithCause(err))
	}

	s.invalidateCache(ctx, id)
	return nil
}

// wrapTxError keeps errors that already carry an application kind intact and
// wraps driver-level transaction failures as internal.
func wrapTxError(err error, message string) error {
	var appErr *errorbank.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return errorbank.Internal(message, errorbank.WithCause(err))
}

func (s *Service) cacheKey(id int64) string {
	return fmt.Sprintf("orders:%d", id)
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.Order, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.cacheKey(id))
	if err != nil {
		return nil, err
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) error {
	if s.cache == nil || order == nil {
		return nil
	}
	bytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cacheKey(order.ID), bytes, s.cacheTTL)
}

func (s *Service) invalidateCache(ctx context.Context, orderID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cacheKey(orderID)); err != nil {
		s.logger.Warn("orders cache invalidate failed", zap.Int64("id", orderID), zap.Error(err))
	}
}
