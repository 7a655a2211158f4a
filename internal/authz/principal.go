// Package authz resolves inbound credentials to principals and gates
// operations on permission scopes.
package authz

import (
	"bizlookup.org/internal/account"
)

// PrincipalKind tags how the caller authenticated.
type PrincipalKind string

const (
	// PrincipalAdmin is a session-authenticated administrator.
	PrincipalAdmin PrincipalKind = "admin"
	// PrincipalCustomer is a session-authenticated customer.
	PrincipalCustomer PrincipalKind = "customer"
	// PrincipalAPIKey is a machine caller holding a customer's key. Its
	// permission set is the key's scope, never the account's full
	// privilege.
	PrincipalAPIKey PrincipalKind = "api_key"
)

// Principal is the resolved identity attached to a request.
type Principal struct {
	Kind        PrincipalKind
	ID          string // account id; for api_key principals, the owning customer id
	KeyID       string // set only for api_key principals
	Role        account.Role
	Permissions map[string]struct{}
}

// NewAdminPrincipal builds a principal from an administrator's session
// claims snapshot.
func NewAdminPrincipal(id string, role account.Role, perms []string) Principal {
	return Principal{Kind: PrincipalAdmin, ID: id, Role: role, Permissions: permSet(perms)}
}

// NewCustomerPrincipal builds a principal from a customer's session claims
// snapshot.
func NewCustomerPrincipal(id string, perms []string) Principal {
	return Principal{Kind: PrincipalCustomer, ID: id, Permissions: permSet(perms)}
}

// NewKeyPrincipal builds a machine principal scoped to a single key.
func NewKeyPrincipal(key *account.Key) Principal {
	return Principal{
		Kind:        PrincipalAPIKey,
		ID:          key.CustomerID,
		KeyID:       key.ID,
		Permissions: permSet(key.Scopes),
	}
}

// Has reports whether the principal holds the permission.
func (p Principal) Has(perm string) bool {
	_, ok := p.Permissions[perm]
	return ok
}

// HasAll reports whether the principal holds every listed permission.
func (p Principal) HasAll(perms ...string) bool {
	for _, perm := range perms {
		if !p.Has(perm) {
			return false
		}
	}
	return true
}

func permSet(perms []string) map[string]struct{} {
	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}
