package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// ShippingAddress is a delivery destination attached to line items post-hoc.
type ShippingAddress struct {
	bun.BaseModel `bun:"table:shipping_addresses,alias:sa"`

	ID        int64     `bun:",pk,autoincrement"`
	Street    string    `bun:"street,notnull"`
	City      string    `bun:"city,notnull"`
	State     string    `bun:"state,notnull"`
	Zip       int64     `bun:"zip,nullzero"`
	PONumber  string    `bun:"po_number,nullzero"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}

// ShippingDetail records carrier tracking for a shipped line item.
type ShippingDetail struct {
	bun.BaseModel `bun:"table:shipping_details,alias:sd"`

	ID             int64     `bun:",pk,autoincrement"`
	TrackingNumber string    `bun:"tracking_number,nullzero"`
	Cost           float64   `bun:"cost,nullzero"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero"`
}

// ShippingOption is a selectable shipping method.
type ShippingOption struct {
	bun.BaseModel `bun:"table:shipping_options,alias:so"`

	ID        int64     `bun:",pk,autoincrement"`
	Option    string    `bun:"option,nullzero"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}
