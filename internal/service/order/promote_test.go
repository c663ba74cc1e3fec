package order

import (
	"context"
	"testing"

	"github.com/broce-labs/partsline/internal/auth"
	"github.com/broce-labs/partsline/internal/entity"
	repo "github.com/broce-labs/partsline/internal/repository/order"
	"github.com/broce-labs/partsline/internal/testutil"
	"github.com/broce-labs/partsline/pkg/errorbank"
)

func currentOf(t *testing.T, orders *repo.Repository, orderID int64) entity.Status {
	t.Helper()
	current, err := orders.CurrentStatus(context.Background(), orders.Writer(), orderID)
	if err != nil {
		t.Fatalf("current status: %v", err)
	}
	return current.Status()
}

func TestPromoteWalksTheFullChain(t *testing.T) {
	svc, orders := newTestService(t, "promote_chain")
	owner := testutil.ClientPrincipal(70)
	admin := testutil.AdminPrincipal(1)
	order := createOrder(t, svc, owner)

	ctx := context.Background()
	steps := []struct {
		status string
		by     *auth.Principal
	}{
		{"priced", admin},
		{"ordered", owner},
		{"shipped", admin},
	}
	for _, step := range steps {
		if err := svc.Promote(ctx, step.by, order.ID, step.status); err != nil {
			t.Fatalf("promote to %s: %v", step.status, err)
		}
	}
	if got := currentOf(t, orders, order.ID); got != entity.StatusShipped {
		t.Fatalf("final status = %s, want shipped", got)
	}

	history, err := orders.Statuses(ctx, order.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("history rows = %d, want 4", len(history))
	}
	currents := 0
	for _, row := range history {
		if row.Current {
			currents++
		}
	}
	if currents != 1 {
		t.Fatalf("current rows = %d, want exactly 1", currents)
	}
}

func TestPromoteRejectsSkippedSteps(t *testing.T) {
	svc, orders := newTestService(t, "promote_skip")
	owner := testutil.ClientPrincipal(71)
	admin := testutil.AdminPrincipal(1)
	order := createOrder(t, svc, owner)

	ctx := context.Background()
	err := svc.Promote(ctx, admin, order.ID, "ordered")
	assertKind(t, err, errorbank.KindUnprocessableEntity)

	err = svc.Promote(ctx, admin, order.ID, "shipped")
	assertKind(t, err, errorbank.KindUnprocessableEntity)

	if got := currentOf(t, orders, order.ID); got != entity.StatusQuote {
		t.Fatalf("failed promotion moved status to %s", got)
	}
}

func TestPromoteRejectsBackwardMoves(t *testing.T) {
	svc, _ := newTestService(t, "promote_backward")
	owner := testutil.ClientPrincipal(72)
	admin := testutil.AdminPrincipal(1)
	order := createOrder(t, svc, owner)

	ctx := context.Background()
	if err := svc.Promote(ctx, admin, order.ID, "priced"); err != nil {
		t.Fatalf("promote: %v", err)
	}

	err := svc.Promote(ctx, admin, order.ID, "quote")
	assertKind(t, err, errorbank.KindUnprocessableEntity)

	err = svc.Promote(ctx, admin, order.ID, "priced")
	assertKind(t, err, errorbank.KindUnprocessableEntity)
}

func TestPromoteInvalidStatusName(t *testing.T) {
	svc, _ := newTestService(t, "promote_badname")
	owner := testutil.ClientPrincipal(73)
	order := createOrder(t, svc, owner)

	err := svc.Promote(context.Background(), testutil.AdminPrincipal(1), order.ID, "delivered")
	assertKind(t, err, errorbank.KindBadRequest)
}

func TestPromotePricedAndShippedAreAdminOnly(t *testing.T) {
	svc, orders := newTestService(t, "promote_adminonly")
	owner := testutil.ClientPrincipal(74)
	admin := testutil.AdminPrincipal(1)
	order := createOrder(t, svc, owner)

	ctx := context.Background()
	err := svc.Promote(ctx, owner, order.ID, "priced")
	assertKind(t, err, errorbank.KindForbidden)

	if err := svc.Promote(ctx, admin, order.ID, "priced"); err != nil {
		t.Fatalf("admin promote: %v", err)
	}
	if err := svc.Promote(ctx, owner, order.ID, "ordered"); err != nil {
		t.Fatalf("owner promote to ordered: %v", err)
	}

	err = svc.Promote(ctx, owner, order.ID, "shipped")
	assertKind(t, err, errorbank.KindForbidden)

	if got := currentOf(t, orders, order.ID); got != entity.StatusOrdered {
		t.Fatalf("status = %s, want ordered", got)
	}
}

func TestPromoteForeignClientCannotTouchOrder(t *testing.T) {
	svc, _ := newTestService(t, "promote_foreign")
	owner := testutil.ClientPrincipal(75)
	order := createOrder(t, svc, owner)

	ctx := context.Background()
	if err := svc.Promote(ctx, testutil.AdminPrincipal(1), order.ID, "priced"); err != nil {
		t.Fatalf("promote: %v", err)
	}

	err := svc.Promote(ctx, testutil.ClientPrincipal(76), order.ID, "ordered")
	assertKind(t, err, errorbank.KindForbidden)
}

func TestPromoteSideExitsSkipAdjacency(t *testing.T) {
	svc, orders := newTestService(t, "promote_sideexit")
	owner := testutil.ClientPrincipal(77)
	admin := testutil.AdminPrincipal(1)

	abandoned := createOrder(t, svc, owner)
	ctx := context.Background()
	if err := svc.Promote(ctx, owner, abandoned.ID, "abandoned"); err != nil {
		t.Fatalf("abandon from quote: %v", err)
	}
	if got := currentOf(t, orders, abandoned.ID); got != entity.StatusAbandoned {
		t.Fatalf("status = %s, want abandoned", got)
	}

	archived := createOrder(t, svc, owner)
	if err := svc.Promote(ctx, admin, archived.ID, "priced"); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if err := svc.Promote(ctx, admin, archived.ID, "archived"); err != nil {
		t.Fatalf("archive from priced: %v", err)
	}
	if got := currentOf(t, orders, archived.ID); got != entity.StatusArchived {
		t.Fatalf("status = %s, want archived", got)
	}
}

func TestPromoteUpdatesNotification(t *testing.T) {
	svc, _ := newTestService(t, "promote_notification")
	owner := testutil.ClientPrincipal(78)
	admin := testutil.AdminPrincipal(1)
	order := createOrder(t, svc, owner)

	ctx := context.Background()
	if err := svc.Promote(ctx, admin, order.ID, "priced"); err != nil {
		t.Fatalf("promote: %v", err)
	}

	loaded, err := svc.Get(ctx, owner, order.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Notification == nil {
		t.Fatal("notification missing")
	}
	if loaded.Notification.Status() != entity.StatusPriced {
		t.Fatalf("notification status = %s, want priced", loaded.Notification.Status())
	}
	if !loaded.Notification.New {
		t.Fatal("promotion should flag the notification unseen")
	}
}

func TestPromoteMissingOrderIsDataIntegrity(t *testing.T) {
	svc, _ := newTestService(t, "promote_missing")

	err := svc.Promote(context.Background(), testutil.AdminPrincipal(1), 9999, "priced")
	assertKind(t, err, errorbank.KindDataIntegrity)
}
