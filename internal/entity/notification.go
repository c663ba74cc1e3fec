package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Notification tracks whether the latest status change of an order has been
// acknowledged. One row per order, created alongside the order at quote.
type Notification struct {
	bun.BaseModel `bun:"table:notifications,alias:n"`

	ID           int64     `bun:",pk,autoincrement"`
	OrderID      int64     `bun:"order_id,notnull,unique"`
	StatusTypeID int64     `bun:"status_type_id,notnull"`
	New          bool      `bun:"new,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero"`
}

// Status returns the status ordinal the notification currently points at.
func (n *Notification) Status() Status {
	return Status(n.StatusTypeID)
}
