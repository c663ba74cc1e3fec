// Package permission implements the access decision primitive used by every
// mutating or resource-scoped endpoint. Callers load the resource first, read
// its true ownership data, then call Authorize before touching state.
package permission

import (
	"github.com/broce-labs/partsline/internal/auth"
	"github.com/broce-labs/partsline/pkg/errorbank"
)

type kind int

const (
	kindMinimumRole kind = iota
	kindMinimumRoleAnyOf
	kindOwnerOrRole
)

// Requirement describes what a principal must satisfy to proceed.
type Requirement struct {
	kind    kind
	roles   []auth.Role
	ownerID int64
}

// MinimumRole requires principal.Role >= role.
func MinimumRole(role auth.Role) Requirement {
	return Requirement{kind: kindMinimumRole, roles: []auth.Role{role}}
}

// MinimumRoleAnyOf is satisfied when the principal meets at least one of the
// listed role thresholds.
func MinimumRoleAnyOf(roles ...auth.Role) Requirement {
	return Requirement{kind: kindMinimumRoleAnyOf, roles: roles}
}

// OwnerOrRole is satisfied when the principal owns the resource or meets the
// role threshold. An ownerID of zero marks a resource missing its ownership
// field and is reported as a data-integrity fault, not a denial.
func OwnerOrRole(ownerID int64, role auth.Role) Requirement {
	return Requirement{kind: kindOwnerOrRole, roles: []auth.Role{role}, ownerID: ownerID}
}

// Authorize evaluates the requirement against the principal. It returns nil
// when access is granted and a categorized errorbank error otherwise.
func Authorize(p *auth.Principal, req Requirement) error {
	if p == nil {
		return errorbank.Unauthorized("authentication required")
	}
	if !p.Role.Valid() || p.ID == 0 {
		return errorbank.Unauthorized("no user data found")
	}

	switch req.kind {
	case kindMinimumRole:
		if p.Role.AtLeast(req.roles[0]) {
			return nil
		}
	case kindMinimumRoleAnyOf:
		for _, role := range req.roles {
			if p.Role.AtLeast(role) {
				return nil
			}
		}
	case kindOwnerOrRole:
		if req.ownerID == 0 {
			return errorbank.DataIntegrity("resource has no owner")
		}
		if p.ID == req.ownerID || p.Role.AtLeast(req.roles[0]) {
			return nil
		}
	}

	return errorbank.Forbidden("permission denied")
}
