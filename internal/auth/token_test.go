package auth

import (
	"testing"
	"time"

	"github.com/broce-labs/partsline/internal/config"
)

func newTokenService(secret string, ttl time.Duration) *Service {
	return NewService(config.Config{Auth: config.Auth{Secret: secret, TokenTTL: ttl}})
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc := newTokenService("test-secret", time.Hour)

	token, err := svc.Issue(Principal{ID: 42, Role: RoleAdmin, AccountID: 7})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	principal, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if principal.ID != 42 || principal.Role != RoleAdmin || principal.AccountID != 7 {
		t.Fatalf("round trip mismatch: %+v", principal)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := newTokenService("secret-a", time.Hour)
	verifier := newTokenService("secret-b", time.Hour)

	token, err := issuer.Issue(Principal{ID: 1, Role: RoleClient})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Verify(token); err == nil {
		t.Fatal("token signed with another secret should not verify")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := newTokenService("test-secret", -time.Minute)

	token, err := svc.Issue(Principal{ID: 1, Role: RoleClient})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Verify(token); err == nil {
		t.Fatal("expired token should not verify")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := newTokenService("test-secret", time.Hour)
	if _, err := svc.Verify("not.a.token"); err == nil {
		t.Fatal("garbage token should not verify")
	}
}

func TestVerifyRejectsEmptyIdentity(t *testing.T) {
	svc := newTokenService("test-secret", time.Hour)

	token, err := svc.Issue(Principal{ID: 0, Role: RoleClient})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Verify(token); err == nil {
		t.Fatal("token without a user id should not verify")
	}
}

func TestRoleAtLeast(t *testing.T) {
	if !RoleAdmin.AtLeast(RoleClient) {
		t.Fatal("admin should satisfy client threshold")
	}
	if RoleClient.AtLeast(RoleAdmin) {
		t.Fatal("client should not satisfy admin threshold")
	}
	if Role(3).Valid() {
		t.Fatal("unknown role should be invalid")
	}
}
