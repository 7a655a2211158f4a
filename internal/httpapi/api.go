// Package httpapi is the HTTP boundary: route wiring, credential
// resolution, permission gates and the JSON error contract.
package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"bizlookup.org/internal/account"
	"bizlookup.org/internal/apikey"
	"bizlookup.org/internal/lookup"
	"bizlookup.org/internal/obs"
	"bizlookup.org/internal/session"
)

// ReadyProbe checks backing-store readiness for /readyz.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Submitter forwards record corrections upstream.
type Submitter interface {
	Submit(ctx context.Context, record lookup.Business) (*lookup.Business, error)
}

// Options carries the collaborators the API serves.
type Options struct {
	Version  string
	Ready    ReadyProbe
	Accounts *account.Service
	Keys     *apikey.Service
	Sessions *session.Issuer
	Search   lookup.Searcher
	Submit   Submitter

	RateLimitRPS   float64
	RateLimitBurst int
}

// API is the HTTP layer.
type API struct {
	mux      *http.ServeMux
	version  string
	ready    ReadyProbe
	accounts *account.Service
	keys     *apikey.Service
	sessions *session.Issuer
	search   lookup.Searcher
	submit   Submitter

	rateRPS   float64
	rateBurst int
}

// New wires the route table.
func New(opts Options) (*API, error) {
	if opts.Accounts == nil || opts.Keys == nil || opts.Sessions == nil {
		return nil, errors.New("httpapi: accounts, keys and sessions are required")
	}
	if opts.Search == nil {
		return nil, errors.New("httpapi: searcher is required")
	}
	a := &API{
		mux:       http.NewServeMux(),
		version:   opts.Version,
		ready:     opts.Ready,
		accounts:  opts.Accounts,
		keys:      opts.Keys,
		sessions:  opts.Sessions,
		search:    opts.Search,
		submit:    opts.Submit,
		rateRPS:   opts.RateLimitRPS,
		rateBurst: opts.RateLimitBurst,
	}
	if a.rateRPS <= 0 {
		a.rateRPS = 20
	}
	if a.rateBurst <= 0 {
		a.rateBurst = 40
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// authentication
	a.mux.HandleFunc("/v1/auth/admin/login", a.handleAdminLogin)
	a.mux.HandleFunc("/v1/auth/customer/login", a.handleCustomerLogin)
	a.mux.HandleFunc("/v1/auth/password", a.handlePasswordChange)

	// administration
	a.mux.HandleFunc("/v1/admin/admins", a.handleAdmins)
	a.mux.HandleFunc("/v1/admin/customers", a.handleCustomers)
	a.mux.HandleFunc("/v1/admin/customers/", a.handleCustomerScoped)
	a.mux.HandleFunc("/v1/admin/keys/", a.handleKeyScoped)

	// customer portal
	a.mux.HandleFunc("/v1/portal/profile", a.handleProfile)
	a.mux.HandleFunc("/v1/portal/keys", a.handlePortalKeys)
	a.mux.HandleFunc("/v1/portal/keys/", a.handlePortalKeyScoped)

	// lookup proxy
	a.mux.HandleFunc("/v1/business/search", a.handleBusinessSearch)
	a.mux.HandleFunc("/v1/business/records", a.handleBusinessRecords)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a, nil
}

// Handler returns the fully wrapped handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, a.rateBurst, a.rateRPS)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "bizlookup-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.ready.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "bizlookup-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
