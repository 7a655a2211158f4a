package account

import (
	"fmt"
	"strings"
)

// Permission vocabulary. Operations declare what they require; principals
// carry what they hold.
const (
	ScopeBusinessRead  = "business:read"
	ScopeBusinessWrite = "business:write"

	PermAccountsRead   = "accounts:read"
	PermAccountsWrite  = "accounts:write"
	PermAdminsWrite    = "admins:write"
	PermKeysRead       = "keys:read"
	PermKeysWrite      = "keys:write"
	PermDiagnosticsRun = "diagnostics:run"
)

// KeyScopes is the vocabulary an API key's scope may draw from. Keys are
// machine credentials for the lookup API only.
var KeyScopes = []string{ScopeBusinessRead, ScopeBusinessWrite}

// NormalizeKeyScopes trims and deduplicates scopes and checks that the
// result is a non-empty subset of KeyScopes.
func NormalizeKeyScopes(scopes []string) ([]string, error) {
	scopes = dedupe(scopes)
	if len(scopes) == 0 {
		return nil, fmt.Errorf("%w: at least one scope is required", ErrMissingFields)
	}
	for _, s := range scopes {
		known := false
		for _, k := range KeyScopes {
			if s == k {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("%w: unknown scope %q", ErrInvalidInput, s)
		}
	}
	return scopes, nil
}

// RolePermissions returns the permission set granted by an administrator
// role.
func RolePermissions(role Role) []string {
	base := []string{
		PermAccountsRead,
		PermAccountsWrite,
		PermKeysRead,
		PermKeysWrite,
		PermDiagnosticsRun,
		ScopeBusinessRead,
	}
	if role == RoleSuperAdmin {
		base = append(base, PermAdminsWrite)
	}
	return base
}

// CustomerPermissions returns the full permission set of a
// session-authenticated customer. API-key principals never receive this
// set; they carry their key's scopes only.
func CustomerPermissions(c *Customer) []string {
	perms := []string{PermKeysRead, PermKeysWrite, ScopeBusinessRead}
	if c.Plan != PlanFree {
		perms = append(perms, ScopeBusinessWrite)
	}
	return perms
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
