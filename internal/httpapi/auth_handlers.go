package httpapi

import (
	"net/http"
	"time"

	"bizlookup.org/internal/account"
	"bizlookup.org/internal/audit"
	"bizlookup.org/internal/authz"
	"bizlookup.org/internal/obs"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Account   any       `json:"account"`
}

type passwordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (a *API) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}
	admin, err := a.accounts.AuthenticateAdmin(r.Context(), req.Email, req.Password)
	if err != nil {
		obs.ObserveLogin("admin", "fail")
		handleServiceError(w, r, err)
		return
	}
	token, expiresAt, err := a.sessions.IssueAdmin(admin)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	obs.ObserveLogin("admin", "ok")
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"kind":       string(account.KindAdmin),
		"account_id": admin.ID,
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt, Account: admin})
}

func (a *API) handleCustomerLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}
	customer, err := a.accounts.AuthenticateCustomer(r.Context(), req.Email, req.Password)
	if err != nil {
		obs.ObserveLogin("customer", "fail")
		handleServiceError(w, r, err)
		return
	}
	token, expiresAt, err := a.sessions.IssueCustomer(customer)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	obs.ObserveLogin("customer", "ok")
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"kind":       string(account.KindCustomer),
		"account_id": customer.ID,
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt, Account: customer})
}

// handlePasswordChange serves both principal kinds; the resolved principal
// decides which account the change applies to.
func (a *API) handlePasswordChange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, err := authz.Require(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var req passwordChangeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}
	switch principal.Kind {
	case authz.PrincipalAdmin:
		err = a.accounts.ChangeAdminPassword(r.Context(), principal.ID, req.CurrentPassword, req.NewPassword)
	case authz.PrincipalCustomer:
		err = a.accounts.ChangeCustomerPassword(r.Context(), principal.ID, req.CurrentPassword, req.NewPassword)
	default:
		handleServiceError(w, r, authz.ErrForbidden)
		return
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.password_changed", map[string]any{
		"account_id": principal.ID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "changed"})
}
