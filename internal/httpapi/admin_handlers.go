package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"bizlookup.org/internal/account"
	"bizlookup.org/internal/audit"
	"bizlookup.org/internal/authz"
)

type createAdminRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type createCustomerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Company  string `json:"company"`
	Phone    string `json:"phone"`
	Plan     string `json:"plan"`
}

type updateCustomerRequest struct {
	Company      *string `json:"company"`
	Phone        *string `json:"phone"`
	Plan         *string `json:"plan"`
	Status       *string `json:"status"`
	Verification *string `json:"verification"`
}

type issueKeyRequest struct {
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
}

type issuedKeyResponse struct {
	Key       *account.Key `json:"key"`
	Plaintext string       `json:"plaintext"`
}

type matchCheckRequest struct {
	Candidate string `json:"candidate"`
}

func (a *API) handleAdmins(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		if _, err := authz.Require(r.Context(), account.PermAdminsWrite); err != nil {
			handleServiceError(w, r, err)
			return
		}
		var req createAdminRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
			return
		}
		admin, err := a.accounts.CreateAdmin(r.Context(), req.Email, req.Password, account.Role(req.Role))
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "admin.created", map[string]any{
			"account_id": admin.ID,
			"role":       string(admin.Role),
		})
		w.Header().Set("Location", fmt.Sprintf("/v1/admin/admins/%s", admin.ID))
		writeJSON(w, http.StatusCreated, admin)
	case http.MethodGet:
		if _, err := authz.Require(r.Context(), account.PermAccountsRead); err != nil {
			handleServiceError(w, r, err)
			return
		}
		admins, err := a.accounts.ListAdmins(r.Context())
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"admins": admins})
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

func (a *API) handleCustomers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		if _, err := authz.Require(r.Context(), account.PermAccountsWrite); err != nil {
			handleServiceError(w, r, err)
			return
		}
		var req createCustomerRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
			return
		}
		customer, err := a.accounts.CreateCustomer(r.Context(), account.NewCustomer{
			Email:    req.Email,
			Password: req.Password,
			Company:  req.Company,
			Phone:    req.Phone,
			Plan:     account.Plan(req.Plan),
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "customer.created", map[string]any{
			"account_id": customer.ID,
			"plan":       string(customer.Plan),
		})
		w.Header().Set("Location", fmt.Sprintf("/v1/admin/customers/%s", customer.ID))
		writeJSON(w, http.StatusCreated, customer)
	case http.MethodGet:
		if _, err := authz.Require(r.Context(), account.PermAccountsRead); err != nil {
			handleServiceError(w, r, err)
			return
		}
		customers, err := a.accounts.ListCustomers(r.Context())
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

func (a *API) handleCustomerScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/admin/customers/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	customerID := parts[0]
	switch {
	case len(parts) == 1:
		a.handleCustomerByID(w, r, customerID)
	case len(parts) == 2 && parts[1] == "keys":
		a.handleCustomerKeys(w, r, customerID)
	default:
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
	}
}

func (a *API) handleCustomerByID(w http.ResponseWriter, r *http.Request, customerID string) {
	switch r.Method {
	case http.MethodGet:
		if _, err := authz.Require(r.Context(), account.PermAccountsRead); err != nil {
			handleServiceError(w, r, err)
			return
		}
		customer, err := a.accounts.GetCustomer(r.Context(), customerID)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, customer)
	case http.MethodPatch:
		if _, err := authz.Require(r.Context(), account.PermAccountsWrite); err != nil {
			handleServiceError(w, r, err)
			return
		}
		var req updateCustomerRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
			return
		}
		upd := account.CustomerUpdate{
			Company:      req.Company,
			Phone:        req.Phone,
			Verification: req.Verification,
		}
		if req.Plan != nil {
			plan := account.Plan(*req.Plan)
			upd.Plan = &plan
		}
		if req.Status != nil {
			status := account.Status(*req.Status)
			upd.Status = &status
		}
		customer, err := a.accounts.UpdateCustomer(r.Context(), customerID, upd)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "customer.updated", map[string]any{
			"account_id": customerID,
		})
		writeJSON(w, http.StatusOK, customer)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch)
	}
}

// handleCustomerKeys issues and lists keys on a customer's behalf. The
// plaintext appears in the issuance response and nowhere else.
func (a *API) handleCustomerKeys(w http.ResponseWriter, r *http.Request, customerID string) {
	switch r.Method {
	case http.MethodPost:
		if _, err := authz.Require(r.Context(), account.PermKeysWrite); err != nil {
			handleServiceError(w, r, err)
			return
		}
		var req issueKeyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
			return
		}
		key, plaintext, err := a.keys.Issue(r.Context(), customerID, req.Name, req.Scopes)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, issuedKeyResponse{Key: key, Plaintext: plaintext})
	case http.MethodGet:
		if _, err := authz.Require(r.Context(), account.PermKeysRead); err != nil {
			handleServiceError(w, r, err)
			return
		}
		keys, err := a.keys.ListForCustomer(r.Context(), customerID)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

// handleKeyScoped serves /v1/admin/keys/{id}/match-check, the support
// diagnostic comparing a candidate against a stored key hash.
func (a *API) handleKeyScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/admin/keys/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "match-check" {
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if _, err := authz.Require(r.Context(), account.PermDiagnosticsRun); err != nil {
		handleServiceError(w, r, err)
		return
	}
	var req matchCheckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}
	if strings.TrimSpace(req.Candidate) == "" {
		writeError(w, r, http.StatusBadRequest, codeMissingFields, "candidate is required")
		return
	}
	matched, err := a.keys.MatchCheck(r.Context(), parts[0], req.Candidate)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matched": matched})
}
