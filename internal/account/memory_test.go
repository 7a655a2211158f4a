package account

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemStoreEmailCaseInsensitive(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	c := &Customer{Email: "Test@Example.com", Plan: PlanFree, Status: StatusActive, Verification: VerificationInactive}
	if err := store.Customers().Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, variant := range []string{"test@example.com", "TEST@EXAMPLE.COM", "Test@Example.com"} {
		got, err := store.Customers().FindByEmail(ctx, variant)
		if err != nil {
			t.Fatalf("FindByEmail(%q): %v", variant, err)
		}
		if got.ID != c.ID {
			t.Fatalf("FindByEmail(%q) returned %s, want %s", variant, got.ID, c.ID)
		}
	}

	dup := &Customer{Email: "TEST@example.COM", Plan: PlanFree, Status: StatusActive}
	if err := store.Customers().Create(ctx, dup); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists for case variant, got %v", err)
	}
}

func TestMemStoreConcurrentCreateSameEmail(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.Admins().Create(ctx, &Admin{
				Email:  "race@example.com",
				Role:   RoleAdmin,
				Status: StatusActive,
			})
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrAlreadyExists):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != attempts-1 {
		t.Fatalf("expected exactly one success, got %d successes / %d conflicts", successes, conflicts)
	}
}

func TestMemStoreUpdateCannotTouchPassword(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	c := &Customer{Email: "c@example.com", PasswordHash: "$2a$10$hash", Plan: PlanFree, Status: StatusActive}
	if err := store.Customers().Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}

	company := "Acme Ltd"
	plan := PlanStandard
	got, err := store.Customers().Update(ctx, c.ID, CustomerUpdate{Company: &company, Plan: &plan})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Company != company || got.Plan != plan {
		t.Fatalf("update not applied: %+v", got)
	}
	if got.PasswordHash != "$2a$10$hash" {
		t.Fatalf("password hash changed via generic update")
	}
}

func TestMemStoreUpdateRoleResetsPermissions(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	a := &Admin{Email: "a@example.com", Role: RoleAdmin, Permissions: RolePermissions(RoleAdmin), Status: StatusActive}
	if err := store.Admins().Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	role := RoleSuperAdmin
	got, err := store.Admins().Update(ctx, a.ID, AdminUpdate{Role: &role})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	found := false
	for _, p := range got.Permissions {
		if p == PermAdminsWrite {
			found = true
		}
	}
	if !found {
		t.Fatalf("role change did not reset permissions: %v", got.Permissions)
	}
}

func TestMemStoreLastLoginAndReadIsolation(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	a := &Admin{Email: "a@example.com", Role: RoleAdmin, Status: StatusActive}
	if err := store.Admins().Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := store.Admins().UpdateLastLogin(ctx, "A@EXAMPLE.COM", at); err != nil {
		t.Fatalf("UpdateLastLogin: %v", err)
	}
	got, err := store.Admins().FindByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if got.LastLoginAt == nil || !got.LastLoginAt.Equal(at) {
		t.Fatalf("last login not recorded: %v", got.LastLoginAt)
	}

	// Mutating the returned copy must not leak into the store.
	got.Email = "mutated@example.com"
	again, err := store.Admins().FindByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if again.Email != "a@example.com" {
		t.Fatalf("store leaked internal pointer")
	}
}

func TestMemStoreKeys(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	k := &Key{
		CustomerID:  "cus-1",
		Name:        "k1",
		Scopes:      []string{ScopeBusinessRead},
		SecretHash:  "$2a$10$hash",
		Fingerprint: "fp-1",
	}
	if err := store.Keys().Create(ctx, k); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.Keys().FindByFingerprint(ctx, "fp-1")
	if err != nil || got.ID != k.ID {
		t.Fatalf("FindByFingerprint: %v %+v", err, got)
	}
	if _, err := store.Keys().FindByFingerprint(ctx, "fp-absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Keys().Revoke(ctx, k.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	got, err = store.Keys().FindByID(ctx, k.ID)
	if err != nil || !got.Revoked {
		t.Fatalf("revocation not persisted: %v %+v", err, got)
	}

	list, err := store.Keys().ListByCustomer(ctx, "cus-1")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByCustomer: %v %d", err, len(list))
	}

	if err := store.Keys().Create(ctx, &Key{CustomerID: "cus-1"}); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}
