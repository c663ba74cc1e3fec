package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Part is shared reference data keyed by its natural part number. An order
// may reference an unknown number, in which case a placeholder row is created
// with only the number populated and filled in later by an admin.
type Part struct {
	bun.BaseModel `bun:"table:parts,alias:p"`

	ID          int64     `bun:",pk,autoincrement"`
	Number      string    `bun:"number,notnull,unique"`
	Description string    `bun:"description,nullzero"`
	Cost        float64   `bun:"cost,nullzero"`
	ImageURL    string    `bun:"image_url,nullzero"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero"`
}
