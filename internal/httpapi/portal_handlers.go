package httpapi

import (
	"net/http"
	"strings"

	"bizlookup.org/internal/account"
	"bizlookup.org/internal/audit"
	"bizlookup.org/internal/authz"
)

type updateProfileRequest struct {
	Company *string `json:"company"`
	Phone   *string `json:"phone"`
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	principal, err := authz.Require(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if principal.Kind != authz.PrincipalCustomer {
		handleServiceError(w, r, authz.ErrForbidden)
		return
	}
	switch r.Method {
	case http.MethodGet:
		customer, err := a.accounts.GetCustomer(r.Context(), principal.ID)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, customer)
	case http.MethodPatch:
		var req updateProfileRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
			return
		}
		// Owners may edit profile fields only; plan, status and
		// verification stay on the admin surface.
		customer, err := a.accounts.UpdateCustomer(r.Context(), principal.ID, account.CustomerUpdate{
			Company: req.Company,
			Phone:   req.Phone,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "customer.profile_updated", map[string]any{
			"account_id": principal.ID,
		})
		writeJSON(w, http.StatusOK, customer)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch)
	}
}

func (a *API) handlePortalKeys(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		principal, err := authz.Require(r.Context(), account.PermKeysWrite)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		var req issueKeyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
			return
		}
		key, plaintext, err := a.keys.Issue(r.Context(), principal.ID, req.Name, req.Scopes)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, issuedKeyResponse{Key: key, Plaintext: plaintext})
	case http.MethodGet:
		principal, err := authz.Require(r.Context(), account.PermKeysRead)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		keys, err := a.keys.ListForCustomer(r.Context(), principal.ID)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

// handlePortalKeyScoped revokes one of the caller's own keys. A key owned
// by someone else reads as absent, never as forbidden.
func (a *API) handlePortalKeyScoped(w http.ResponseWriter, r *http.Request) {
	keyID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/portal/keys/"), "/")
	if keyID == "" || strings.Contains(keyID, "/") {
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	principal, err := authz.Require(r.Context(), account.PermKeysWrite)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	key, err := a.keys.Get(r.Context(), keyID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if key.CustomerID != principal.ID {
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
		return
	}
	if err := a.keys.Revoke(r.Context(), keyID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "revoked"})
}
