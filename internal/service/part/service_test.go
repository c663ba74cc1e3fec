package part

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/broce-labs/partsline/internal/config"
	repo "github.com/broce-labs/partsline/internal/repository/part"
	"github.com/broce-labs/partsline/internal/testutil"
	"github.com/broce-labs/partsline/pkg/errorbank"
)

func newTestService(t *testing.T, name string) *Service {
	t.Helper()
	conns := testutil.OpenDB(t, name)
	return NewService(Params{
		Repository: repo.NewRepository(conns),
		Cache:      nil,
		Config:     config.Config{Cache: config.Cache{DefaultTTL: time.Minute}},
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

func validInput() CreateInput {
	return CreateInput{
		Number:      "KR-350-202",
		Description: "Hydraulic drive motor",
		Cost:        618.00,
		ImageURL:    "https://cdn.partsline.local/parts/kr-350-202.jpg",
	}
}

func TestCreateRequiresAllFields(t *testing.T) {
	svc := newTestService(t, "parts_create_validate")
	ctx := context.Background()
	admin := testutil.AdminPrincipal(1)

	mutations := []func(*CreateInput){
		func(in *CreateInput) { in.Number = "" },
		func(in *CreateInput) { in.Description = "" },
		func(in *CreateInput) { in.Cost = 0 },
		func(in *CreateInput) { in.ImageURL = "" },
	}
	for i, mutate := range mutations {
		input := validInput()
		mutate(&input)
		_, err := svc.Create(ctx, admin, input)
		if err == nil {
			t.Errorf("case %d: expected error", i)
			continue
		}
		assertKind(t, err, errorbank.KindBadRequest)
	}
}

func TestCreateIsAdminOnly(t *testing.T) {
	svc := newTestService(t, "parts_create_admin")

	_, err := svc.Create(context.Background(), testutil.ClientPrincipal(1), validInput())
	assertKind(t, err, errorbank.KindForbidden)
}

func TestCatalogueRoundTrip(t *testing.T) {
	svc := newTestService(t, "parts_roundtrip")
	ctx := context.Background()
	admin := testutil.AdminPrincipal(1)
	client := testutil.ClientPrincipal(2)

	part, err := svc.Create(ctx, admin, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Reads are open to both role classes.
	loaded, err := svc.Get(ctx, client, part.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Number != "KR-350-202" {
		t.Fatalf("number = %q", loaded.Number)
	}

	cost := 599.99
	if err := svc.Update(ctx, admin, part.ID, Patch{Cost: &cost}); err != nil {
		t.Fatalf("update: %v", err)
	}
	loaded, err = svc.Get(ctx, admin, part.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Cost != cost {
		t.Fatalf("cost = %v, want %v", loaded.Cost, cost)
	}
	if loaded.Description != "Hydraulic drive motor" {
		t.Fatalf("untouched field changed: %q", loaded.Description)
	}

	if err := svc.Update(ctx, client, part.ID, Patch{Cost: &cost}); err == nil {
		t.Fatal("client update should be forbidden")
	}

	if err := svc.Delete(ctx, admin, part.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = svc.Get(ctx, admin, part.ID)
	assertKind(t, err, errorbank.KindNotFound)
}
