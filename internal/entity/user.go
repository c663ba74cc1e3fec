package entity

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/broce-labs/partsline/internal/auth"
)

// User is a login identity. Role is assigned at signup and never promoted
// through the API.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:",pk,autoincrement"`
	FirstName    string    `bun:"first_name,notnull"`
	LastName     string    `bun:"last_name,notnull"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Role         auth.Role `bun:"role,notnull"`
	AccountID    int64     `bun:"account_id,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero"`

	Account *Account `bun:"rel:belongs-to,join:account_id=id"`
}

// Principal derives the request identity for this user.
func (u *User) Principal() auth.Principal {
	return auth.Principal{ID: u.ID, Role: u.Role, AccountID: u.AccountID}
}
