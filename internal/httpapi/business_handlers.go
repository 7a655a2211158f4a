package httpapi

import (
	"net/http"
	"strings"

	"bizlookup.org/internal/account"
	"bizlookup.org/internal/authz"
	"bizlookup.org/internal/lookup"
)

func (a *API) handleBusinessSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, err := authz.Require(r.Context(), account.ScopeBusinessRead); err != nil {
		handleServiceError(w, r, err)
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, r, http.StatusBadRequest, codeMissingFields, "query parameter q is required")
		return
	}
	results, err := a.search.Search(r.Context(), query)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if results == nil {
		results = []lookup.Business{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (a *API) handleBusinessRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if _, err := authz.Require(r.Context(), account.ScopeBusinessWrite); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if a.submit == nil {
		writeError(w, r, http.StatusBadGateway, codeUpstream, "record submission is not configured")
		return
	}
	var record lookup.Business
	if err := decodeJSON(w, r, &record); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}
	if strings.TrimSpace(record.Name) == "" {
		writeError(w, r, http.StatusBadRequest, codeMissingFields, "name is required")
		return
	}
	created, err := a.submit.Submit(r.Context(), record)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
