package order

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/broce-labs/partsline/internal/auth"
	"github.com/broce-labs/partsline/internal/config"
	"github.com/broce-labs/partsline/internal/entity"
	notifrepo "github.com/broce-labs/partsline/internal/repository/notification"
	repo "github.com/broce-labs/partsline/internal/repository/order"
	partrepo "github.com/broce-labs/partsline/internal/repository/part"
	"github.com/broce-labs/partsline/internal/testutil"
	"github.com/broce-labs/partsline/pkg/errorbank"
)

func newTestService(t *testing.T, name string) (*Service, *repo.Repository) {
	t.Helper()
	conns := testutil.OpenDB(t, name)
	orders := repo.NewRepository(conns)
	svc := NewService(Params{
		Repository:    orders,
		Parts:         partrepo.NewRepository(conns),
		Notifications: notifrepo.NewRepository(conns),
		Cache:         nil,
		Config:        config.Config{Cache: config.Cache{DefaultTTL: time.Minute}},
		Logger:        testutil.Logger(),
		Publisher:     nil,
	})
	return svc, orders
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

func createOrder(t *testing.T, svc *Service, owner *auth.Principal) *entity.Order {
	t.Helper()
	order, err := svc.Create(context.Background(), owner, CreateInput{
		ShippingAddress: "100 Grader Way",
		ShippingCity:    "Dodge City",
		ShippingState:   "KS",
		Details: []DetailInput{
			{MachineSerialNum: 4401, PartNumber: "BB-250-001", Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func TestCreateRequiresDetails(t *testing.T) {
	svc, _ := newTestService(t, "orders_create_empty")

	_, err := svc.Create(context.Background(), testutil.ClientPrincipal(1), CreateInput{})
	assertKind(t, err, errorbank.KindBadRequest)
}

func TestCreateRequiresPrincipal(t *testing.T) {
	svc, _ := newTestService(t, "orders_create_anon")

	_, err := svc.Create(context.Background(), nil, CreateInput{
		Details: []DetailInput{{PartNumber: "BB-250-001", Quantity: 1}},
	})
	assertKind(t, err, errorbank.KindUnauthorized)
}

func TestCreateStartsAtQuoteWithNotification(t *testing.T) {
	svc, orders := newTestService(t, "orders_create_quote")
	owner := testutil.ClientPrincipal(7)

	order := createOrder(t, svc, owner)
	if order.UserID != owner.ID {
		t.Fatalf("order owner = %d, want %d", order.UserID, owner.ID)
	}

	ctx := context.Background()
	current, err := orders.CurrentStatus(ctx, orders.Writer(), order.ID)
	if err != nil {
		t.Fatalf("current status: %v", err)
	}
	if current.Status() != entity.StatusQuote {
		t.Fatalf("initial status = %s, want quote", current.Status())
	}

	loaded, err := svc.Get(ctx, owner, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if loaded.Notification == nil || !loaded.Notification.New {
		t.Fatalf("expected fresh notification, got %+v", loaded.Notification)
	}
	if len(loaded.Details) != 1 || loaded.Details[0].Quantity != 2 {
		t.Fatalf("unexpected details: %+v", loaded.Details)
	}
}

func TestCreateRegistersUnknownPartNumbers(t *testing.T) {
	svc, _ := newTestService(t, "orders_create_part")
	owner := testutil.ClientPrincipal(3)

	order, err := svc.Create(context.Background(), owner, CreateInput{
		Details: []DetailInput{
			{MachineSerialNum: 1, PartNumber: "ZZ-999-000", Quantity: 1},
			{MachineSerialNum: 2, PartNumber: "ZZ-999-000", Quantity: 4},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	loaded, err := svc.Get(context.Background(), owner, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if len(loaded.Details) != 2 {
		t.Fatalf("expected 2 details, got %d", len(loaded.Details))
	}
	if loaded.Details[0].PartID != loaded.Details[1].PartID {
		t.Fatal("same part number should resolve to one part row")
	}
	if loaded.Details[0].Part == nil || loaded.Details[0].Part.Number != "ZZ-999-000" {
		t.Fatalf("placeholder part missing: %+v", loaded.Details[0].Part)
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc, _ := newTestService(t, "orders_get_owner")
	owner := testutil.ClientPrincipal(5)
	order := createOrder(t, svc, owner)

	ctx := context.Background()
	if _, err := svc.Get(ctx, testutil.ClientPrincipal(6), order.ID); err == nil {
		t.Fatal("expected foreign client to be rejected")
	} else {
		assertKind(t, err, errorbank.KindForbidden)
	}

	if _, err := svc.Get(ctx, testutil.AdminPrincipal(99), order.ID); err != nil {
		t.Fatalf("admin read failed: %v", err)
	}
}

func TestGetMissingOrder(t *testing.T) {
	svc, _ := newTestService(t, "orders_get_missing")

	_, err := svc.Get(context.Background(), testutil.AdminPrincipal(1), 12345)
	assertKind(t, err, errorbank.KindNotFound)
}

func TestListScopesClientsToOwnOrders(t *testing.T) {
	svc, _ := newTestService(t, "orders_list_scope")
	first := testutil.ClientPrincipal(10)
	second := testutil.ClientPrincipal(11)
	createOrder(t, svc, first)
	createOrder(t, svc, second)
	createOrder(t, svc, second)

	ctx := context.Background()
	mine, err := svc.List(ctx, first, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("client sees %d orders, want 1", len(mine))
	}

	all, err := svc.List(ctx, testutil.AdminPrincipal(1), nil)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("admin sees %d orders, want 3", len(all))
	}
}

func TestListRejectsUnknownStatusName(t *testing.T) {
	svc, _ := newTestService(t, "orders_list_badstatus")

	_, err := svc.List(context.Background(), testutil.AdminPrincipal(1), []string{"delivered"})
	assertKind(t, err, errorbank.KindBadRequest)
}

func TestListFiltersByCurrentStatus(t *testing.T) {
	svc, _ := newTestService(t, "orders_list_filter")
	owner := testutil.ClientPrincipal(20)
	admin := testutil.AdminPrincipal(1)
	quoted := createOrder(t, svc, owner)
	priced := createOrder(t, svc, owner)

	ctx := context.Background()
	if err := svc.Promote(ctx, admin, priced.ID, "priced"); err != nil {
		t.Fatalf("promote: %v", err)
	}

	got, err := svc.List(ctx, admin, []string{"priced"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != priced.ID {
		t.Fatalf("filter returned %+v, want only order %d", got, priced.ID)
	}

	// The old quote row of the promoted order must not match the filter.
	got, err = svc.List(ctx, admin, []string{"quote"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != quoted.ID {
		t.Fatalf("quote filter returned %+v, want only order %d", got, quoted.ID)
	}
}

func TestAddPartMergesExistingLine(t *testing.T) {
	svc, _ := newTestService(t, "orders_addpart_merge")
	owner := testutil.ClientPrincipal(30)
	admin := testutil.AdminPrincipal(1)
	order := createOrder(t, svc, owner)

	ctx := context.Background()
	err := svc.AddPart(ctx, admin, order.ID, AddPartInput{
		MachineSerialNum: 4401,
		PartNumber:       "BB-250-001",
		Quantity:         3,
	})
	if err != nil {
		t.Fatalf("add part: %v", err)
	}

	loaded, err := svc.Get(ctx, admin, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if len(loaded.Details) != 1 {
		t.Fatalf("expected merged line, got %d lines", len(loaded.Details))
	}
	if loaded.Details[0].Quantity != 5 {
		t.Fatalf("merged quantity = %d, want 5", loaded.Details[0].Quantity)
	}

	// A different machine serial opens a new line even for the same part.
	err = svc.AddPart(ctx, admin, order.ID, AddPartInput{
		MachineSerialNum: 9900,
		PartNumber:       "BB-250-001",
		Quantity:         1,
	})
	if err != nil {
		t.Fatalf("add part: %v", err)
	}
	loaded, err = svc.Get(ctx, admin, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if len(loaded.Details) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(loaded.Details))
	}
}

func TestAddPartValidation(t *testing.T) {
	svc, _ := newTestService(t, "orders_addpart_validate")
	admin := testutil.AdminPrincipal(1)
	owner := testutil.ClientPrincipal(31)
	order := createOrder(t, svc, owner)

	ctx := context.Background()
	err := svc.AddPart(ctx, admin, order.ID, AddPartInput{Quantity: 1})
	assertKind(t, err, errorbank.KindBadRequest)

	err = svc.AddPart(ctx, admin, order.ID, AddPartInput{PartNumber: "BB-250-001"})
	assertKind(t, err, errorbank.KindBadRequest)

	err = svc.AddPart(ctx, owner, order.ID, AddPartInput{PartNumber: "BB-250-001", Quantity: 1})
	assertKind(t, err, errorbank.KindForbidden)
}

func TestUpdateOrderPatchesWhitelistedFields(t *testing.T) {
	svc, _ := newTestService(t, "orders_update")
	owner := testutil.ClientPrincipal(40)
	order := createOrder(t, svc, owner)

	ctx := context.Background()
	city := "Wichita"
	po := "PO-7788"
	if err := svc.UpdateOrder(ctx, owner, order.ID, OrderPatch{ShippingCity: &city, PONumber: &po}); err != nil {
		t.Fatalf("update: %v", err)
	}

	loaded, err := svc.Get(ctx, owner, order.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.ShippingCity != city || loaded.PONumber != po {
		t.Fatalf("patch not applied: %+v", loaded)
	}
	if loaded.ShippingAddress != "100 Grader Way" {
		t.Fatalf("untouched field changed: %q", loaded.ShippingAddress)
	}
}

func TestUpdateOrderForeignClientForbidden(t *testing.T) {
	svc, _ := newTestService(t, "orders_update_foreign")
	owner := testutil.ClientPrincipal(41)
	order := createOrder(t, svc, owner)

	city := "Topeka"
	err := svc.UpdateOrder(context.Background(), testutil.ClientPrincipal(42), order.ID, OrderPatch{ShippingCity: &city})
	assertKind(t, err, errorbank.KindForbidden)
}

func TestUpdateDetailChainsPromotion(t *testing.T) {
	svc, orders := newTestService(t, "orders_detail_chain")
	owner := testutil.ClientPrincipal(50)
	admin := testutil.AdminPrincipal(1)
	order := createOrder(t, svc, owner)

	ctx := context.Background()
	loaded, err := svc.Get(ctx, admin, order.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	detailID := loaded.Details[0].ID

	price := 42.50
	if err := svc.UpdateDetail(ctx, admin, detailID, DetailPatch{Price: &price}, "priced"); err != nil {
		t.Fatalf("update detail: %v", err)
	}

	current, err := orders.CurrentStatus(ctx, orders.Writer(), order.ID)
	if err != nil {
		t.Fatalf("current status: %v", err)
	}
	if current.Status() != entity.StatusPriced {
		t.Fatalf("status after chained promotion = %s, want priced", current.Status())
	}

	detail, err := orders.GetDetail(ctx, detailID)
	if err != nil {
		t.Fatalf("get detail: %v", err)
	}
	if detail.Price != price {
		t.Fatalf("price = %v, want %v", detail.Price, price)
	}
}

func TestDeleteCascadesDependents(t *testing.T) {
	svc, orders := newTestService(t, "orders_delete")
	owner := testutil.ClientPrincipal(60)
	admin := testutil.AdminPrincipal(1)
	order := createOrder(t, svc, owner)

	ctx := context.Background()
	if err := svc.Delete(ctx, owner, order.ID); err == nil {
		t.Fatal("client delete should be forbidden")
	}
	if err := svc.Delete(ctx, admin, order.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := orders.GetByID(ctx, order.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("order should be gone, got %v", err)
	}
	if _, err := orders.CurrentStatus(ctx, orders.Writer(), order.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("status rows should be gone, got %v", err)
	}

	if err := svc.Delete(ctx, admin, order.ID); err == nil {
		t.Fatal("second delete should report not found")
	} else {
		assertKind(t, err, errorbank.KindNotFound)
	}
}

func TestWrapTxErrorKeepsApplicationKinds(t *testing.T) {
	notFound := errorbank.NotFound("order not found")
	if got := wrapTxError(notFound, "failed to create order"); got != notFound {
		t.Fatalf("application error must pass through unchanged, got %v", got)
	}

	integrity := errorbank.DataIntegrity("order has no current status")
	if got := wrapTxError(fmt.Errorf("in tx: %w", integrity), "failed to create order"); got == nil {
		t.Fatal("expected error")
	} else {
		assertKind(t, got, errorbank.KindDataIntegrity)
	}

	driverErr := errors.New("database is locked")
	got := wrapTxError(driverErr, "failed to create order")
	assertKind(t, got, errorbank.KindInternal)
	if !errors.Is(got, driverErr) {
		t.Fatal("wrapped error must keep its cause")
	}
}
