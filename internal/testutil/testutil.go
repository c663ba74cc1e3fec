// Package testutil provides shared fixtures for service and repository tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"

	"github.com/broce-labs/partsline/internal/auth"
	"github.com/broce-labs/partsline/internal/database"
	"github.com/broce-labs/partsline/internal/entity"
)

// OpenDB opens an in-memory SQLite database with the full schema applied and
// status types seeded. The name keeps parallel tests on separate databases.
func OpenDB(t *testing.T, name string) *database.Connections {
	t.Helper()

	sqlDB, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	models := []any{
		(*entity.Account)(nil),
		(*entity.User)(nil),
		(*entity.Part)(nil),
		(*entity.StatusType)(nil),
		(*entity.Order)(nil),
		(*entity.OrderDetail)(nil),
		(*entity.OrderStatus)(nil),
		(*entity.Notification)(nil),
		(*entity.ShippingAddress)(nil),
		(*entity.ShippingDetail)(nil),
		(*entity.ShippingOption)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			t.Fatalf("create table for %T: %v", model, err)
		}
	}

	// Mirror the production constraint of one current status row per order.
	if _, err := db.ExecContext(ctx, `CREATE UNIQUE INDEX IF NOT EXISTS order_statuses_one_current_idx ON order_statuses (order_id) WHERE "current"`); err != nil {
		t.Fatalf("create current index: %v", err)
	}

	for s := entity.StatusQuote; s <= entity.StatusAbandoned; s++ {
		statusType := &entity.StatusType{ID: int64(s), Status: s.String()}
		if _, err := db.NewInsert().Model(statusType).Exec(ctx); err != nil {
			t.Fatalf("seed status type %s: %v", s, err)
		}
	}

	return &database.Connections{Writer: db, Reader: db}
}

// Logger returns a no-op logger for wiring services under test.
func Logger() *zap.Logger {
	return zap.NewNop()
}

// AdminPrincipal returns an admin identity with the given user id.
func AdminPrincipal(id int64) *auth.Principal {
	return &auth.Principal{ID: id, Role: auth.RoleAdmin, AccountID: 1}
}

// ClientPrincipal returns a client identity with the given user id.
func ClientPrincipal(id int64) *auth.Principal {
	return &auth.Principal{ID: id, Role: auth.RoleClient, AccountID: 1}
}

// CreateUser inserts a user row and returns it.
func CreateUser(t *testing.T, db *bun.DB, email string, role auth.Role) *entity.User {
	t.Helper()
	user := &entity.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		AccountID:    1,
	}
	if _, err := db.NewInsert().Model(user).Exec(context.Background()); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}
