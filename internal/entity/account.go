package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Account groups the users of one customer business.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID             int64     `bun:",pk,autoincrement"`
	AccountName    string    `bun:"account_name,notnull"`
	BillingAddress string    `bun:"billing_address,nullzero"`
	BillingCity    string    `bun:"billing_city,nullzero"`
	BillingState   string    `bun:"billing_state,nullzero"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero"`

	Users []*User `bun:"rel:has-many,join:id=account_id"`
}
