package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Order is a purchase order owned by the user who created it. UserID never
// changes after creation.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID              int64     `bun:",pk,autoincrement"`
	ShippingAddress string    `bun:"shipping_address,nullzero"`
	ShippingCity    string    `bun:"shipping_city,nullzero"`
	ShippingState   string    `bun:"shipping_state,nullzero"`
	ShippingZip     int64     `bun:"shipping_zip,nullzero"`
	PONumber        string    `bun:"po_number,nullzero"`
	UserID          int64     `bun:"user_id,notnull"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time `bun:"updated_at,nullzero"`

	User         *User          `bun:"rel:belongs-to,join:user_id=id"`
	Details      []*OrderDetail `bun:"rel:has-many,join:id=order_id"`
	Statuses     []*OrderStatus `bun:"rel:has-many,join:id=order_id"`
	Notification *Notification  `bun:"rel:has-one,join:id=order_id"`
}

// OrderDetail is one machine/part/quantity line item within an order.
type OrderDetail struct {
	bun.BaseModel `bun:"table:order_details,alias:od"`

	ID                int64     `bun:",pk,autoincrement"`
	OrderID           int64     `bun:"order_id,notnull"`
	PartID            int64     `bun:"part_id,notnull"`
	MachineSerialNum  int64     `bun:"machine_serial_num,nullzero"`
	Quantity          int64     `bun:"quantity,notnull"`
	Price             float64   `bun:"price,nullzero"`
	Discount          float64   `bun:"discount,nullzero"`
	ShippingOptionID  int64     `bun:"shipping_option_id,nullzero"`
	ShippingDetailID  int64     `bun:"shipping_detail_id,nullzero"`
	ShippingAddressID int64     `bun:"shipping_address_id,nullzero"`
	CreatedAt         time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time `bun:"updated_at,nullzero"`

	Part *Part `bun:"rel:belongs-to,join:part_id=id"`
}
