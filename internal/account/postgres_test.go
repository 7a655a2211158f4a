package account

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPGCustomersFindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	created := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "email", "password_hash", "company", "phone", "plan", "status", "verification", "created_at", "last_login_at",
	}).AddRow("cus-1", "buyer@example.com", nil, "Acme Ltd", "+4930123456", "standard", "active", "inactive", created, nil)

	mock.ExpectQuery("select .* from customer_accounts where lower\\(email\\)=lower\\(\\$1\\)").
		WithArgs("Buyer@Example.com").
		WillReturnRows(rows)

	store := NewPGStore(db)
	c, err := store.Customers().FindByEmail(context.Background(), "Buyer@Example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if c.ID != "cus-1" || c.Plan != PlanStandard {
		t.Fatalf("unexpected record: %+v", c)
	}
	if c.PasswordHash != "" {
		t.Fatalf("null hash must map to empty string")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGCustomersCreateMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("insert into customer_accounts").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "customer_accounts_email_lower_idx"})

	store := NewPGStore(db)
	c := &Customer{Email: "buyer@example.com", Plan: PlanFree, Status: StatusActive, Verification: VerificationInactive}
	if err := store.Customers().Create(context.Background(), c); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGAdminsFindByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select .* from admin_accounts where id=\\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "password_hash", "role", "permissions", "status", "created_at", "last_login_at",
		}))

	store := NewPGStore(db)
	if _, err := store.Admins().FindByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGKeysRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	scopes, _ := json.Marshal([]string{ScopeBusinessRead})
	created := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec("insert into api_keys").
		WithArgs("key-1", "cus-1", "K1", scopes, "$2a$10$hash", "fp-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("select .* from api_keys where fingerprint=\\$1").
		WithArgs("fp-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "customer_id", "name", "scopes", "secret_hash", "fingerprint", "created_at", "last_used_at", "revoked",
		}).AddRow("key-1", "cus-1", "K1", scopes, "$2a$10$hash", "fp-1", created, nil, false))
	mock.ExpectExec("update api_keys set revoked=true").
		WithArgs("key-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPGStore(db)
	ctx := context.Background()

	key := &Key{ID: "key-1", CustomerID: "cus-1", Name: "K1", Scopes: []string{ScopeBusinessRead}, SecretHash: "$2a$10$hash", Fingerprint: "fp-1"}
	if err := store.Keys().Create(ctx, key); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := store.Keys().FindByFingerprint(ctx, "fp-1")
	if err != nil {
		t.Fatalf("FindByFingerprint: %v", err)
	}
	if got.Name != "K1" || len(got.Scopes) != 1 || got.Scopes[0] != ScopeBusinessRead {
		t.Fatalf("unexpected record: %+v", got)
	}
	if err := store.Keys().Revoke(ctx, "key-1"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGCustomersSetPasswordNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("update customer_accounts set password_hash=\\$2").
		WithArgs("missing", "$2a$10$hash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPGStore(db)
	if err := store.Customers().SetPassword(context.Background(), "missing", "$2a$10$hash"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
