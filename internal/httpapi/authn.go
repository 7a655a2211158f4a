package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"bizlookup.org/internal/account"
	"bizlookup.org/internal/apikey"
	"bizlookup.org/internal/authz"
	"bizlookup.org/internal/session"
)

const (
	authHeader   = "Authorization"
	bearerScheme = "Bearer "
	apiKeyHeader = "X-API-Key"
)

var publicPaths = []string{
	"/",
	"/healthz",
	"/readyz",
	"/metrics",
	"/v1/info",
	"/v1/auth/admin/login",
	"/v1/auth/customer/login",
}

// withAuth resolves the request credential to a principal before routing.
// The route family decides which credentials are acceptable: admin routes
// take admin sessions, portal routes customer sessions, and the lookup
// surface takes either a customer session or an API key.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if isPublicPath(path) {
			next.ServeHTTP(w, r)
			return
		}
		switch {
		case strings.HasPrefix(path, "/v1/admin/"):
			a.authenticateSession(w, r, next, account.KindAdmin)
		case strings.HasPrefix(path, "/v1/portal/"):
			a.authenticateSession(w, r, next, account.KindCustomer)
		case path == "/v1/auth/password":
			a.authenticateSession(w, r, next, account.KindAdmin, account.KindCustomer)
		case strings.HasPrefix(path, "/v1/business/"):
			a.authenticateLookup(w, r, next)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// authenticateSession accepts a bearer session token of one of the listed
// kinds. Kinds are tried in order; a token of the wrong kind fails
// verification, it is never coerced.
func (a *API) authenticateSession(w http.ResponseWriter, r *http.Request, next http.Handler, kinds ...account.Kind) {
	token, err := extractBearerToken(r.Header.Get(authHeader))
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, codeAuthRequired, "authentication required")
		return
	}
	var verifyErr error
	for _, kind := range kinds {
		claims, err := a.sessions.Verify(token, kind)
		if err == nil {
			principal := principalFromClaims(kind, claims)
			ctx := authz.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		// Expired wins over invalid so a stale token of the right kind
		// reports "log in again" rather than "forged".
		if verifyErr == nil || errors.Is(err, session.ErrExpired) {
			verifyErr = err
		}
	}
	handleServiceError(w, r, verifyErr)
}

// authenticateLookup resolves either an API key (X-API-Key header or a
// prefixed bearer value) or a customer session.
func (a *API) authenticateLookup(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if presented := strings.TrimSpace(r.Header.Get(apiKeyHeader)); presented != "" {
		a.authenticateKey(w, r, next, presented)
		return
	}
	token, err := extractBearerToken(r.Header.Get(authHeader))
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, codeAuthRequired, "authentication required")
		return
	}
	if strings.HasPrefix(token, apikey.Prefix) {
		a.authenticateKey(w, r, next, token)
		return
	}
	a.authenticateSession(w, r, next, account.KindCustomer)
}

func (a *API) authenticateKey(w http.ResponseWriter, r *http.Request, next http.Handler, presented string) {
	key, err := a.keys.Verify(r.Context(), presented)
	if err != nil {
		switch {
		case errors.Is(err, apikey.ErrRevoked):
			writeError(w, r, http.StatusUnauthorized, codeRevoked, "api key revoked")
		case errors.Is(err, account.ErrNotFound):
			writeError(w, r, http.StatusUnauthorized, codeInvalid, "invalid api key")
		default:
			handleServiceError(w, r, err)
		}
		return
	}
	ctx := authz.ContextWithPrincipal(r.Context(), authz.NewKeyPrincipal(key))
	next.ServeHTTP(w, r.WithContext(ctx))
}

func principalFromClaims(kind account.Kind, claims *session.Claims) authz.Principal {
	if kind == account.KindAdmin {
		return authz.NewAdminPrincipal(claims.Subject, account.Role(claims.Role), claims.Permissions)
	}
	return authz.NewCustomerPrincipal(claims.Subject, claims.Permissions)
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearerScheme)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearerScheme):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
