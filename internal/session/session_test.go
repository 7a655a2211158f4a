package session

import (
	"errors"
	"testing"
	"time"

	"bizlookup.org/internal/account"
)

const testSecret = "test-signing-secret"

func testAdmin() *account.Admin {
	return &account.Admin{
		ID:          "adm-1",
		Email:       "ops@example.com",
		Role:        account.RoleSuperAdmin,
		Permissions: account.RolePermissions(account.RoleSuperAdmin),
		Status:      account.StatusActive,
	}
}

func testCustomer() *account.Customer {
	return &account.Customer{
		ID:     "cus-1",
		Email:  "buyer@example.com",
		Plan:   account.PlanStandard,
		Status: account.StatusActive,
	}
}

func TestIssueAndVerifyAdmin(t *testing.T) {
	iss, err := NewIssuer(testSecret)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	token, exp, err := iss.IssueAdmin(testAdmin())
	if err != nil {
		t.Fatalf("IssueAdmin: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v", exp)
	}

	claims, err := iss.Verify(token, account.KindAdmin)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "adm-1" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Role != string(account.RoleSuperAdmin) {
		t.Fatalf("unexpected role: %s", claims.Role)
	}
	found := false
	for _, p := range claims.Permissions {
		if p == account.PermAdminsWrite {
			found = true
		}
	}
	if !found {
		t.Fatalf("permission snapshot missing %s: %v", account.PermAdminsWrite, claims.Permissions)
	}
}

func TestKindDiscriminatorIsEnforced(t *testing.T) {
	iss, err := NewIssuer(testSecret)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	adminToken, _, err := iss.IssueAdmin(testAdmin())
	if err != nil {
		t.Fatalf("IssueAdmin: %v", err)
	}
	customerToken, _, err := iss.IssueCustomer(testCustomer())
	if err != nil {
		t.Fatalf("IssueCustomer: %v", err)
	}

	if _, err := iss.Verify(adminToken, account.KindCustomer); !errors.Is(err, ErrInvalid) {
		t.Fatalf("admin token accepted for customer kind: %v", err)
	}
	if _, err := iss.Verify(customerToken, account.KindAdmin); !errors.Is(err, ErrInvalid) {
		t.Fatalf("customer token accepted for admin kind: %v", err)
	}
}

func TestExpiredTokenIsExpiredNotInvalid(t *testing.T) {
	base := time.Now().UTC()
	clock := base
	iss, err := NewIssuer(testSecret, WithClock(func() time.Time { return clock }), WithCustomerTTL(time.Minute))
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	token, _, err := iss.IssueCustomer(testCustomer())
	if err != nil {
		t.Fatalf("IssueCustomer: %v", err)
	}

	clock = base.Add(2 * time.Minute)
	if _, err := iss.Verify(token, account.KindCustomer); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestTamperedTokenIsInvalid(t *testing.T) {
	iss, err := NewIssuer(testSecret)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	token, _, err := iss.IssueCustomer(testCustomer())
	if err != nil {
		t.Fatalf("IssueCustomer: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := iss.Verify(tampered, account.KindCustomer); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for tampered token, got %v", err)
	}

	other, err := NewIssuer("a-different-secret")
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	if _, err := other.Verify(token, account.KindCustomer); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid under rotated secret, got %v", err)
	}
}

func TestCustomerPermissionsFollowPlan(t *testing.T) {
	iss, err := NewIssuer(testSecret)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	free := testCustomer()
	free.Plan = account.PlanFree
	token, _, err := iss.IssueCustomer(free)
	if err != nil {
		t.Fatalf("IssueCustomer: %v", err)
	}
	claims, err := iss.Verify(token, account.KindCustomer)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	for _, p := range claims.Permissions {
		if p == account.ScopeBusinessWrite {
			t.Fatalf("free plan must not carry %s", account.ScopeBusinessWrite)
		}
	}
}
