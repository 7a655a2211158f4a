package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"bizlookup.org/internal/account"
	"bizlookup.org/internal/apikey"
	"bizlookup.org/internal/authz"
	"bizlookup.org/internal/lookup"
	"bizlookup.org/internal/secrets"
	"bizlookup.org/internal/session"
)

// Machine-readable error codes carried in every error payload. Clients
// branch on code, not on message text.
const (
	codeMissingFields  = "missing_fields"
	codeInvalidInput   = "invalid_input"
	codeAlreadyExists  = "already_exists"
	codeNotFound       = "not_found"
	codeBadCredentials = "bad_credentials"
	codeAuthRequired   = "auth_required"
	codeInvalid        = "invalid"
	codeExpired        = "expired"
	codeRevoked        = "revoked"
	codeForbidden      = "forbidden"
	codeUpstream       = "upstream_unavailable"
	codeInternal       = "internal"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	payload := map[string]any{
		"error": msg,
		"code":  code,
	}
	if rid := requestIDFrom(r); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, status, payload)
}

// handleServiceError maps the shared error taxonomy onto the HTTP
// contract. Authorization failures stay distinct: 401 means "present a
// credential", 403 means "your credential does not cover this".
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, account.ErrMissingFields):
		writeError(w, r, http.StatusBadRequest, codeMissingFields, err.Error())
	case errors.Is(err, account.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
	case errors.Is(err, account.ErrAlreadyExists):
		writeError(w, r, http.StatusConflict, codeAlreadyExists, "record already exists")
	case errors.Is(err, account.ErrNotFound):
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
	case errors.Is(err, account.ErrBadCredentials):
		writeError(w, r, http.StatusUnauthorized, codeBadCredentials, "invalid credentials")
	case errors.Is(err, session.ErrExpired):
		writeError(w, r, http.StatusUnauthorized, codeExpired, "session expired")
	case errors.Is(err, session.ErrInvalid):
		writeError(w, r, http.StatusUnauthorized, codeInvalid, "invalid session token")
	case errors.Is(err, apikey.ErrRevoked):
		writeError(w, r, http.StatusUnauthorized, codeRevoked, "api key revoked")
	case errors.Is(err, authz.ErrAuthenticationRequired):
		writeError(w, r, http.StatusUnauthorized, codeAuthRequired, "authentication required")
	case errors.Is(err, authz.ErrForbidden):
		writeError(w, r, http.StatusForbidden, codeForbidden, "insufficient permissions")
	case errors.Is(err, secrets.ErrCorruptHash):
		writeError(w, r, http.StatusInternalServerError, codeInternal, "credential storage corrupted")
	case errors.Is(err, lookup.ErrUnavailable):
		writeError(w, r, http.StatusBadGateway, codeUpstream, "lookup provider unavailable")
	default:
		writeError(w, r, http.StatusInternalServerError, codeInternal, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, codeInvalidInput, "method not allowed")
}
