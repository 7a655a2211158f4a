// Package account holds the principal records of the platform and the
// pluggable stores that persist them.
package account

import "time"

// Kind discriminates the two principal kinds the platform issues
// credentials for.
type Kind string

const (
	KindAdmin    Kind = "admin"
	KindCustomer Kind = "customer"
)

// Role is the administrator privilege level.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Status of an account. Accounts are never deleted, only suspended.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Verification states sourced from the external verification workflow.
const (
	VerificationInactive = "inactive"
	VerificationPending  = "pending"
	VerificationVerified = "verified"
)

// Plan tiers for customer accounts.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanStandard   Plan = "standard"
	PlanEnterprise Plan = "enterprise"
)

// Admin is a platform operator account.
type Admin struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Permissions  []string   `json:"permissions"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// Customer is a tenant consuming the lookup API. PasswordHash is empty when
// the account was provisioned without self-service login.
type Customer struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Company      string     `json:"company,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Plan         Plan       `json:"plan"`
	Status       Status     `json:"status"`
	Verification string     `json:"verification"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// Key is an API key owned by a customer. Only the hash of the key material
// is ever stored; the fingerprint is a SHA-256 digest used as a lookup
// index and is not sufficient to authenticate.
type Key struct {
	ID          string     `json:"id"`
	CustomerID  string     `json:"customer_id"`
	Name        string     `json:"name"`
	Scopes      []string   `json:"scopes"`
	SecretHash  string     `json:"-"`
	Fingerprint string     `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	Revoked     bool       `json:"revoked"`
}
