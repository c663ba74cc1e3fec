package auth

// Role is the access level attached to a user. Admin satisfies any
// requirement a Client satisfies.
type Role int

const (
	RoleClient Role = 0
	RoleAdmin  Role = 1
)

// AtLeast reports whether r grants at least the access of other.
func (r Role) AtLeast(other Role) bool {
	return r >= other
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleAdmin
}

func (r Role) String() string {
	switch r {
	case RoleClient:
		return "client"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Principal is the authenticated identity resolved for a request.
type Principal struct {
	ID        int64
	Role      Role
	AccountID int64
}

// IsAdmin reports whether the principal holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role.AtLeast(RoleAdmin)
}
