package account

import (
	"context"
	"time"
)

// Store describes the persistence operations the credential subsystem
// needs. Backends must behave identically from the caller's perspective;
// the in-memory backend loses all state on restart and is for development
// and tests only.
type Store interface {
	Admins() AdminStore
	Customers() CustomerStore
	Keys() KeyStore
}

// AdminStore manages administrator accounts. Email comparisons are
// case-insensitive.
type AdminStore interface {
	Create(ctx context.Context, a *Admin) error
	FindByID(ctx context.Context, id string) (*Admin, error)
	FindByEmail(ctx context.Context, email string) (*Admin, error)
	// Update applies a partial update. The password hash is not reachable
	// through this path; password changes go through SetPassword.
	Update(ctx context.Context, id string, upd AdminUpdate) (*Admin, error)
	SetPassword(ctx context.Context, id, passwordHash string) error
	// UpdateLastLogin is a best-effort side effect of a successful login.
	UpdateLastLogin(ctx context.Context, email string, at time.Time) error
	List(ctx context.Context) ([]*Admin, error)
}

// CustomerStore manages customer accounts.
type CustomerStore interface {
	Create(ctx context.Context, c *Customer) error
	FindByID(ctx context.Context, id string) (*Customer, error)
	FindByEmail(ctx context.Context, email string) (*Customer, error)
	Update(ctx context.Context, id string, upd CustomerUpdate) (*Customer, error)
	SetPassword(ctx context.Context, id, passwordHash string) error
	UpdateLastLogin(ctx context.Context, email string, at time.Time) error
	List(ctx context.Context) ([]*Customer, error)
}

// KeyStore manages API-key records. Records are never deleted; revocation
// flips the Revoked flag.
type KeyStore interface {
	Create(ctx context.Context, k *Key) error
	FindByID(ctx context.Context, id string) (*Key, error)
	FindByFingerprint(ctx context.Context, fingerprint string) (*Key, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*Key, error)
	Revoke(ctx context.Context, id string) error
	// Touch records the last-used timestamp. Failures are swallowed by
	// callers; a verification must not fail because stamping did.
	Touch(ctx context.Context, id string, at time.Time) error
}

// AdminUpdate is a partial administrator update. Changing the role resets
// the stored permission set to the role's grant.
type AdminUpdate struct {
	Role   *Role
	Status *Status
}

// CustomerUpdate is a partial customer update. Profile fields are settable
// by the owning customer; plan, status and verification by administrators
// or the verification workflow.
type CustomerUpdate struct {
	Company      *string
	Phone        *string
	Plan         *Plan
	Status       *Status
	Verification *string
}
