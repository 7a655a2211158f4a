package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"bizlookup.org/internal/secrets"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	hasher, err := secrets.NewHasher(secrets.MinCost)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	svc, err := NewService(NewMemStore(), hasher)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCreateAdminNormalizesAndHashes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateAdmin(ctx, "  Ops@Example.COM ", "hunter2-long", RoleAdmin)
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	if a.Email != "ops@example.com" {
		t.Fatalf("email not normalized: %s", a.Email)
	}
	if a.PasswordHash == "" || a.PasswordHash == "hunter2-long" {
		t.Fatalf("password not hashed")
	}
	if len(a.Permissions) == 0 {
		t.Fatalf("permission set not derived from role")
	}

	if _, err := svc.CreateAdmin(ctx, "ops@example.com", "x-long-enough", RoleAdmin); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := svc.CreateAdmin(ctx, "", "pw", RoleAdmin); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	if _, err := svc.CreateAdmin(ctx, "x@example.com", "pw", Role("owner")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for role, got %v", err)
	}
}

func TestAuthenticateAdmin(t *testing.T) {
	fixed := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	hasher, _ := secrets.NewHasher(secrets.MinCost)
	svc, err := NewService(NewMemStore(), hasher, WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	ctx := context.Background()

	if _, err := svc.CreateAdmin(ctx, "ops@example.com", "correct-horse", RoleAdmin); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}

	a, err := svc.AuthenticateAdmin(ctx, "OPS@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("AuthenticateAdmin: %v", err)
	}
	if a.Email != "ops@example.com" {
		t.Fatalf("unexpected account: %s", a.Email)
	}

	stamped, err := svc.GetAdmin(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAdmin: %v", err)
	}
	if stamped.LastLoginAt == nil || !stamped.LastLoginAt.Equal(fixed) {
		t.Fatalf("last login not stamped: %v", stamped.LastLoginAt)
	}

	if _, err := svc.AuthenticateAdmin(ctx, "ops@example.com", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
	if _, err := svc.AuthenticateAdmin(ctx, "nobody@example.com", "correct-horse"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("unknown email must map to ErrBadCredentials, got %v", err)
	}

	status := StatusSuspended
	if _, err := svc.UpdateAdmin(ctx, a.ID, AdminUpdate{Status: &status}); err != nil {
		t.Fatalf("UpdateAdmin: %v", err)
	}
	if _, err := svc.AuthenticateAdmin(ctx, "ops@example.com", "correct-horse"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("suspended account must not authenticate, got %v", err)
	}
}

func TestCreateCustomerValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	c, err := svc.CreateCustomer(ctx, NewCustomer{
		Email:   "Buyer@Example.com",
		Company: "Acme Ltd",
		Phone:   "+49 30 1234567",
		Plan:    PlanStandard,
	})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if c.Email != "buyer@example.com" {
		t.Fatalf("email not normalized: %s", c.Email)
	}
	if c.PasswordHash != "" {
		t.Fatalf("password hash set without a password")
	}
	if c.Verification != VerificationInactive {
		t.Fatalf("verification must start inactive, got %s", c.Verification)
	}

	if _, err := svc.CreateCustomer(ctx, NewCustomer{Email: "p@example.com", Phone: "not-a-phone"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for phone, got %v", err)
	}
	if _, err := svc.CreateCustomer(ctx, NewCustomer{Email: "p@example.com", Plan: Plan("platinum")}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for plan, got %v", err)
	}
	if _, err := svc.CreateCustomer(ctx, NewCustomer{Email: "buyer@EXAMPLE.com"}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists for case variant, got %v", err)
	}
}

func TestCustomerWithoutPasswordCannotLogIn(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	c, err := svc.CreateCustomer(ctx, NewCustomer{Email: "machine@example.com"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if _, err := svc.AuthenticateCustomer(ctx, "machine@example.com", ""); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}

	// Setting an initial password enables self-service login.
	if err := svc.ChangeCustomerPassword(ctx, c.ID, "", "first-password"); err != nil {
		t.Fatalf("ChangeCustomerPassword: %v", err)
	}
	if _, err := svc.AuthenticateCustomer(ctx, "machine@example.com", "first-password"); err != nil {
		t.Fatalf("AuthenticateCustomer after set: %v", err)
	}
}

func TestChangeCustomerPasswordRequiresCurrent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	c, err := svc.CreateCustomer(ctx, NewCustomer{Email: "b@example.com", Password: "original-pass"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	if err := svc.ChangeCustomerPassword(ctx, c.ID, "wrong", "next-pass"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
	if err := svc.ChangeCustomerPassword(ctx, c.ID, "original-pass", "next-pass"); err != nil {
		t.Fatalf("ChangeCustomerPassword: %v", err)
	}
	if _, err := svc.AuthenticateCustomer(ctx, "b@example.com", "next-pass"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
	if _, err := svc.AuthenticateCustomer(ctx, "b@example.com", "original-pass"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("old password still accepted")
	}
}

func TestUpdateCustomerValidatesFields(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	c, err := svc.CreateCustomer(ctx, NewCustomer{Email: "b@example.com"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	bad := "###"
	if _, err := svc.UpdateCustomer(ctx, c.ID, CustomerUpdate{Phone: &bad}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for phone, got %v", err)
	}
	verification := VerificationVerified
	got, err := svc.UpdateCustomer(ctx, c.ID, CustomerUpdate{Verification: &verification})
	if err != nil {
		t.Fatalf("UpdateCustomer: %v", err)
	}
	if got.Verification != VerificationVerified {
		t.Fatalf("verification not updated: %s", got.Verification)
	}
	unknown := "maybe"
	if _, err := svc.UpdateCustomer(ctx, c.ID, CustomerUpdate{Verification: &unknown}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for verification, got %v", err)
	}
}
