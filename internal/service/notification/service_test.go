package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/broce-labs/partsline/internal/config"
	"github.com/broce-labs/partsline/internal/entity"
	notifrepo "github.com/broce-labs/partsline/internal/repository/notification"
	orderrepo "github.com/broce-labs/partsline/internal/repository/order"
	partrepo "github.com/broce-labs/partsline/internal/repository/part"
	ordersvc "github.com/broce-labs/partsline/internal/service/order"
	"github.com/broce-labs/partsline/internal/testutil"
	"github.com/broce-labs/partsline/pkg/errorbank"
)

type fixture struct {
	notifications *Service
	orders        *ordersvc.Service
	orderRepo     *orderrepo.Repository
	notifRepo     *notifrepo.Repository
}

func newFixture(t *testing.T, name string) *fixture {
	t.Helper()
	conns := testutil.OpenDB(t, name)
	orderRepo := orderrepo.NewRepository(conns)
	notifRepo := notifrepo.NewRepository(conns)

	orders := ordersvc.NewService(ordersvc.Params{
		Repository:    orderRepo,
		Parts:         partrepo.NewRepository(conns),
		Notifications: notifRepo,
		Cache:         nil,
		Config:        config.Config{Cache: config.Cache{DefaultTTL: time.Minute}},
		Logger:        testutil.Logger(),
		Publisher:     nil,
	})
	notifications := NewService(Params{
		Repository: notifRepo,
		Orders:     orderRepo,
		Logger:     testutil.Logger(),
	})
	return &fixture{
		notifications: notifications,
		orders:        orders,
		orderRepo:     orderRepo,
		notifRepo:     notifRepo,
	}
}

func (f *fixture) createOrder(t *testing.T, ownerID int64) *entity.Order {
	t.Helper()
	order, err := f.orders.Create(context.Background(), testutil.ClientPrincipal(ownerID), ordersvc.CreateInput{
		Details: []ordersvc.DetailInput{{PartNumber: "BB-250-001", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func (f *fixture) promote(t *testing.T, orderID int64, chain ...string) {
	t.Helper()
	ctx := context.Background()
	admin := testutil.AdminPrincipal(1)
	for _, status := range chain {
		if err := f.orders.Promote(ctx, admin, orderID, status); err != nil {
			t.Fatalf("promote to %s: %v", status, err)
		}
	}
}

func assertKind(t *testing.T, err error, kind errorbank.Kind) {
	t.Helper()
	var appErr *errorbank.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Kind() != kind {
		t.Fatalf("expected kind %s, got %s (%v)", kind, appErr.Kind(), err)
	}
}

func TestListSplitsByViewerClass(t *testing.T) {
	f := newFixture(t, "notif_list_split")
	ctx := context.Background()

	quoted := f.createOrder(t, 10)            // quote: admin-visible
	priced := f.createOrder(t, 10)            // priced: client-visible
	f.promote(t, priced.ID, "priced")
	foreign := f.createOrder(t, 11)           // another client's order
	f.promote(t, foreign.ID, "priced")

	adminRows, err := f.notifications.List(ctx, testutil.AdminPrincipal(1))
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(adminRows) != 1 || adminRows[0].OrderID != quoted.ID {
		t.Fatalf("admin rows = %+v, want only order %d", adminRows, quoted.ID)
	}
	if adminRows[0].Status != "quote" {
		t.Fatalf("admin row status = %s, want quote", adminRows[0].Status)
	}

	clientRows, err := f.notifications.List(ctx, testutil.ClientPrincipal(10))
	if err != nil {
		t.Fatalf("client list: %v", err)
	}
	if len(clientRows) != 1 || clientRows[0].OrderID != priced.ID {
		t.Fatalf("client rows = %+v, want only own priced order %d", clientRows, priced.ID)
	}
}

func TestListRequiresPrincipal(t *testing.T) {
	f := newFixture(t, "notif_list_anon")

	_, err := f.notifications.List(context.Background(), nil)
	assertKind(t, err, errorbank.KindUnauthorized)
}

func TestMarkSeenClearsFlagBeforeOrderedBoundary(t *testing.T) {
	f := newFixture(t, "notif_seen_early")
	ctx := context.Background()

	order := f.createOrder(t, 20)
	f.promote(t, order.ID, "priced")

	if err := f.notifications.MarkSeen(ctx, testutil.ClientPrincipal(20), order.ID); err != nil {
		t.Fatalf("mark seen: %v", err)
	}

	n, err := f.notifRepo.GetByOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("get notification: %v", err)
	}
	if n.New {
		t.Fatal("notification should be cleared, not deleted")
	}
	if n.Status() != entity.StatusPriced {
		t.Fatalf("status = %s, want priced", n.Status())
	}

	// A repeat acknowledgement is a no-op, not an error.
	if err := f.notifications.MarkSeen(ctx, testutil.ClientPrincipal(20), order.ID); err != nil {
		t.Fatalf("second mark seen: %v", err)
	}
	n, err = f.notifRepo.GetByOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("get notification after repeat: %v", err)
	}
	if n.New {
		t.Fatal("flag must stay cleared after repeated mark seen")
	}
}

func TestMarkSeenDeletesPastOrderedBoundary(t *testing.T) {
	f := newFixture(t, "notif_seen_late")
	ctx := context.Background()

	order := f.createOrder(t, 21)
	f.promote(t, order.ID, "priced")
	if err := f.orders.Promote(ctx, testutil.ClientPrincipal(21), order.ID, "ordered"); err != nil {
		t.Fatalf("promote to ordered: %v", err)
	}
	f.promote(t, order.ID, "shipped")

	if err := f.notifications.MarkSeen(ctx, testutil.ClientPrincipal(21), order.ID); err != nil {
		t.Fatalf("mark seen: %v", err)
	}

	if _, err := f.notifRepo.GetByOrder(ctx, order.ID); !errors.Is(err, notifrepo.ErrNotFound) {
		t.Fatalf("notification should be deleted, got %v", err)
	}
}

func TestMarkSeenRejectsWrongViewerClass(t *testing.T) {
	f := newFixture(t, "notif_seen_class")
	ctx := context.Background()

	// Quote is admin territory; the owning client has nothing to acknowledge.
	order := f.createOrder(t, 22)
	err := f.notifications.MarkSeen(ctx, testutil.ClientPrincipal(22), order.ID)
	assertKind(t, err, errorbank.KindForbidden)

	// Priced is client territory; an admin acknowledging it is rejected too.
	f.promote(t, order.ID, "priced")
	err = f.notifications.MarkSeen(ctx, testutil.AdminPrincipal(1), order.ID)
	assertKind(t, err, errorbank.KindForbidden)
}

func TestMarkSeenForeignClientForbidden(t *testing.T) {
	f := newFixture(t, "notif_seen_foreign")
	ctx := context.Background()

	order := f.createOrder(t, 23)
	f.promote(t, order.ID, "priced")

	err := f.notifications.MarkSeen(ctx, testutil.ClientPrincipal(24), order.ID)
	assertKind(t, err, errorbank.KindForbidden)
}

func TestMarkSeenMissingOrder(t *testing.T) {
	f := newFixture(t, "notif_seen_missing")

	err := f.notifications.MarkSeen(context.Background(), testutil.AdminPrincipal(1), 4242)
	assertKind(t, err, errorbank.KindNotFound)
}
