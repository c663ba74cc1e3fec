package permission

import (
	"errors"
	"testing"

	"github.com/broce-labs/partsline/internal/auth"
	"github.com/broce-labs/partsline/pkg/errorbank"
)

func kindOf(t *testing.T, err error) errorbank.Kind {
	t.Helper()
	var appErr *errorbank.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	return appErr.Kind()
}

func TestAuthorizeNilPrincipal(t *testing.T) {
	err := Authorize(nil, MinimumRole(auth.RoleClient))
	if kindOf(t, err) != errorbank.KindUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestAuthorizeMalformedPrincipal(t *testing.T) {
	cases := []struct {
		name string
		p    *auth.Principal
	}{
		{"zero id", &auth.Principal{ID: 0, Role: auth.RoleClient}},
		{"invalid role", &auth.Principal{ID: 1, Role: auth.Role(5)}},
		{"negative role", &auth.Principal{ID: 1, Role: auth.Role(-1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.p, MinimumRole(auth.RoleClient))
			if kindOf(t, err) != errorbank.KindUnauthorized {
				t.Fatalf("expected unauthorized, got %v", err)
			}
		})
	}
}

func TestMinimumRole(t *testing.T) {
	client := &auth.Principal{ID: 1, Role: auth.RoleClient}
	admin := &auth.Principal{ID: 2, Role: auth.RoleAdmin}

	if err := Authorize(client, MinimumRole(auth.RoleClient)); err != nil {
		t.Fatalf("client should pass client threshold: %v", err)
	}
	if err := Authorize(admin, MinimumRole(auth.RoleClient)); err != nil {
		t.Fatalf("admin should pass client threshold: %v", err)
	}
	err := Authorize(client, MinimumRole(auth.RoleAdmin))
	if kindOf(t, err) != errorbank.KindForbidden {
		t.Fatalf("client should fail admin threshold, got %v", err)
	}
}

func TestMinimumRoleAnyOf(t *testing.T) {
	client := &auth.Principal{ID: 1, Role: auth.RoleClient}
	if err := Authorize(client, MinimumRoleAnyOf(auth.RoleAdmin, auth.RoleClient)); err != nil {
		t.Fatalf("client should satisfy one of the thresholds: %v", err)
	}
}

func TestOwnerOrRole(t *testing.T) {
	owner := &auth.Principal{ID: 7, Role: auth.RoleClient}
	stranger := &auth.Principal{ID: 8, Role: auth.RoleClient}
	admin := &auth.Principal{ID: 9, Role: auth.RoleAdmin}

	if err := Authorize(owner, OwnerOrRole(7, auth.RoleAdmin)); err != nil {
		t.Fatalf("owner should pass: %v", err)
	}
	if err := Authorize(admin, OwnerOrRole(7, auth.RoleAdmin)); err != nil {
		t.Fatalf("admin should pass: %v", err)
	}
	err := Authorize(stranger, OwnerOrRole(7, auth.RoleAdmin))
	if kindOf(t, err) != errorbank.KindForbidden {
		t.Fatalf("stranger should be forbidden, got %v", err)
	}
}

func TestOwnerOrRoleMissingOwnerIsIntegrityFault(t *testing.T) {
	admin := &auth.Principal{ID: 9, Role: auth.RoleAdmin}
	err := Authorize(admin, OwnerOrRole(0, auth.RoleAdmin))
	if kindOf(t, err) != errorbank.KindDataIntegrity {
		t.Fatalf("expected data integrity fault, got %v", err)
	}
}
