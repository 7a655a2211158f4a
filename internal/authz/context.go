package authz

import "context"

type principalContextKey struct{}

// ContextWithPrincipal attaches the resolved principal to the context.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, &principal)
}

// PrincipalFromContext extracts the resolved principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	v, ok := ctx.Value(principalContextKey{}).(*Principal)
	if !ok || v == nil {
		return Principal{}, false
	}
	return *v, true
}

// Require checks that the context carries a principal holding every listed
// permission. It returns ErrAuthenticationRequired when no principal is
// attached and ErrForbidden when the principal lacks a permission.
func Require(ctx context.Context, perms ...string) (Principal, error) {
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		return Principal{}, ErrAuthenticationRequired
	}
	if !principal.HasAll(perms...) {
		return Principal{}, ErrForbidden
	}
	return principal, nil
}
