package entity

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/broce-labs/partsline/internal/auth"
)

// Status is the ordinal of a status type row. The fulfillment chain
// quote→priced→ordered→shipped must advance one step at a time; archived and
// abandoned are side-exits reachable from any stage.
type Status int

const (
	StatusQuote     Status = 1
	StatusPriced    Status = 2
	StatusOrdered   Status = 3
	StatusShipped   Status = 4
	StatusArchived  Status = 5
	StatusAbandoned Status = 6
)

var statusNames = map[Status]string{
	StatusQuote:     "quote",
	StatusPriced:    "priced",
	StatusOrdered:   "ordered",
	StatusShipped:   "shipped",
	StatusArchived:  "archived",
	StatusAbandoned: "abandoned",
}

var statusByName = func() map[string]Status {
	m := make(map[string]Status, len(statusNames))
	for status, name := range statusNames {
		m[name] = status
	}
	return m
}()

// ParseStatus resolves a status name to its ordinal.
func ParseStatus(name string) (Status, bool) {
	status, ok := statusByName[name]
	return status, ok
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether s is one of the six known statuses.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// SideExit reports whether s bypasses the sequential adjacency check.
func (s Status) SideExit() bool {
	return s == StatusArchived || s == StatusAbandoned
}

// RequiredRole is the role class that may request promotion to this status.
// Archived is reachable by either class, which MinimumRoleAnyOf expresses;
// owner-or-admin is layered on top by the promotion path itself.
func (s Status) RequiredRole() []auth.Role {
	switch s {
	case StatusQuote, StatusOrdered, StatusAbandoned:
		return []auth.Role{auth.RoleClient}
	case StatusPriced, StatusShipped:
		return []auth.Role{auth.RoleAdmin}
	case StatusArchived:
		return []auth.Role{auth.RoleAdmin, auth.RoleClient}
	default:
		return nil
	}
}

// StatusType is the static reference row backing a Status ordinal.
type StatusType struct {
	bun.BaseModel `bun:"table:status_types,alias:st"`

	ID     int64  `bun:",pk"`
	Status string `bun:"status,notnull"`
}

// OrderStatus is one row of an order's append-only status history. Exactly
// one row per order carries current=true; the rest are immutable history.
type OrderStatus struct {
	bun.BaseModel `bun:"table:order_statuses,alias:os"`

	ID           int64     `bun:",pk,autoincrement"`
	OrderID      int64     `bun:"order_id,notnull"`
	StatusTypeID int64     `bun:"status_type_id,notnull"`
	Current      bool      `bun:"current,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero"`

	Order *Order `bun:"rel:belongs-to,join:order_id=id"`
}

// Status returns the ordinal recorded on this history row.
func (s *OrderStatus) Status() Status {
	return Status(s.StatusTypeID)
}
