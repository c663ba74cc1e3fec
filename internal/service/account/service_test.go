package account

import (
	"context"
	"errors"
	"testing"

	repo "github.com/broce-labs/partsline/internal/repository/account"
	"github.com/broce-labs/partsline/internal/testutil"
	"github.com/broce-labs/partsline/pkg/errorbank"
)

func newTestService(t *testing.T, name string) *Service {
	t.Helper()
	conns := testutil.OpenDB(t, name)
	return NewService(Params{
		Repository: repo.NewRepository(conns),
		Logger:     testutil.Logger(),
	})
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

func TestCreateRequiresName(t *testing.T) {
	svc := newTestService(t, "accounts_create_validate")

	_, err := svc.Create(context.Background(), testutil.AdminPrincipal(1), CreateInput{
		BillingAddress: "4100 W 76th St",
	})
	assertKind(t, err, errorbank.KindBadRequest)
}

func TestCreateIsAdminOnly(t *testing.T) {
	svc := newTestService(t, "accounts_create_admin")

	_, err := svc.Create(context.Background(), testutil.ClientPrincipal(1), CreateInput{
		AccountName: "Hennepin Paving Co",
	})
	assertKind(t, err, errorbank.KindForbidden)
}

func TestAccountRoundTrip(t *testing.T) {
	svc := newTestService(t, "accounts_roundtrip")
	ctx := context.Background()
	admin := testutil.AdminPrincipal(1)
	client := testutil.ClientPrincipal(2)

	created, err := svc.Create(ctx, admin, CreateInput{
		AccountName:    "Hennepin Paving Co",
		BillingAddress: "4100 W 76th St",
		BillingCity:    "Edina",
		BillingState:   "MN",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}

	// Clients may read a single account but not enumerate them.
	got, err := svc.Get(ctx, client, created.ID)
	if err != nil {
		t.Fatalf("get as client: %v", err)
	}
	if got.AccountName != "Hennepin Paving Co" {
		t.Fatalf("unexpected name %q", got.AccountName)
	}

	_, err = svc.List(ctx, client)
	assertKind(t, err, errorbank.KindForbidden)

	accounts, err := svc.List(ctx, admin)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
}

func TestUpdatePatchesOnlyProvidedFields(t *testing.T) {
	svc := newTestService(t, "accounts_update")
	ctx := context.Background()
	admin := testutil.AdminPrincipal(1)

	created, err := svc.Create(ctx, admin, CreateInput{
		AccountName:    "Hennepin Paving Co",
		BillingAddress: "4100 W 76th St",
		BillingCity:    "Edina",
		BillingState:   "MN",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	city := "Bloomington"
	if err := svc.Update(ctx, admin, created.ID, Patch{BillingCity: &city}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := svc.Get(ctx, admin, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.BillingCity != "Bloomington" {
		t.Fatalf("expected patched city, got %q", got.BillingCity)
	}
	if got.AccountName != "Hennepin Paving Co" || got.BillingAddress != "4100 W 76th St" {
		t.Fatal("unpatched fields must be untouched")
	}

	// Empty patch is a no-op, not an error.
	if err := svc.Update(ctx, admin, created.ID, Patch{}); err != nil {
		t.Fatalf("empty patch: %v", err)
	}

	err = svc.Update(ctx, admin, created.ID+100, Patch{BillingCity: &city})
	assertKind(t, err, errorbank.KindNotFound)
}

func TestDelete(t *testing.T) {
	svc := newTestService(t, "accounts_delete")
	ctx := context.Background()
	admin := testutil.AdminPrincipal(1)

	created, err := svc.Create(ctx, admin, CreateInput{AccountName: "Hennepin Paving Co"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, admin, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = svc.Get(ctx, admin, created.ID)
	assertKind(t, err, errorbank.KindNotFound)

	err = svc.Delete(ctx, admin, created.ID)
	assertKind(t, err, errorbank.KindNotFound)
}
