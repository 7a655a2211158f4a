package authz

import (
	"context"
	"errors"
	"testing"

	"bizlookup.org/internal/account"
)

func TestKeyPrincipalCarriesKeyScopeOnly(t *testing.T) {
	key := &account.Key{
		ID:         "key-1",
		CustomerID: "cus-1",
		Scopes:     []string{account.ScopeBusinessRead},
	}
	p := NewKeyPrincipal(key)

	if p.Kind != PrincipalAPIKey {
		t.Fatalf("unexpected kind: %s", p.Kind)
	}
	if p.ID != "cus-1" || p.KeyID != "key-1" {
		t.Fatalf("identity not mapped: %+v", p)
	}
	if !p.Has(account.ScopeBusinessRead) {
		t.Fatalf("expected key scope to be granted")
	}
	// The owning customer may hold business:write; the key principal must
	// not inherit it.
	if p.Has(account.ScopeBusinessWrite) {
		t.Fatalf("key principal holds permission outside its scope")
	}
}

func TestRequire(t *testing.T) {
	ctx := context.Background()

	if _, err := Require(ctx, account.ScopeBusinessRead); !errors.Is(err, ErrAuthenticationRequired) {
		t.Fatalf("expected ErrAuthenticationRequired, got %v", err)
	}

	p := NewCustomerPrincipal("cus-1", []string{account.ScopeBusinessRead, account.PermKeysRead})
	ctx = ContextWithPrincipal(ctx, p)

	if _, err := Require(ctx, account.ScopeBusinessRead); err != nil {
		t.Fatalf("Require granted permission: %v", err)
	}
	if _, err := Require(ctx, account.ScopeBusinessWrite); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := Require(ctx, account.ScopeBusinessRead, account.ScopeBusinessWrite); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for partial grant, got %v", err)
	}
}

func TestPrincipalFromContextMissing(t *testing.T) {
	if _, ok := PrincipalFromContext(context.Background()); ok {
		t.Fatalf("expected no principal")
	}
	p := NewAdminPrincipal("adm-1", account.RoleAdmin, account.RolePermissions(account.RoleAdmin))
	ctx := ContextWithPrincipal(context.Background(), p)
	got, ok := PrincipalFromContext(ctx)
	if !ok || got.ID != "adm-1" {
		t.Fatalf("principal round-trip failed: %+v ok=%v", got, ok)
	}
}
