// Package lookup fronts the upstream business-data provider. The platform
// authenticates and authorizes callers; the provider owns the data.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Business is the minimal record shape exposed at the boundary. Provider
// payloads carry more; everything else is dropped on decode.
type Business struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Jurisdiction string `json:"jurisdiction"`
	Status       string `json:"status"`
}

// Searcher answers business lookups.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Business, error)
}

// ErrUnavailable indicates the provider could not be reached or answered
// with a server error. Callers map it to 502.
var ErrUnavailable = errors.New("lookup: provider unavailable")

// Provider is the HTTP client for the upstream lookup service.
type Provider struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewProvider constructs the upstream client. The token authenticates this
// platform to the provider and is never forwarded to callers.
func NewProvider(baseURL, token string) (*Provider, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("lookup: provider base URL is required")
	}
	return &Provider{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Search queries the provider's search endpoint.
func (p *Provider) Search(ctx context.Context, query string) ([]Business, error) {
	u := p.baseURL + "/search?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	p.authorize(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	var payload struct {
		Results []Business `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return payload.Results, nil
}

// Submit forwards a record correction to the provider. Write access is the
// paid-plan capability; authorization happens before this call.
func (p *Provider) Submit(ctx context.Context, record Business) (*Business, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/records", strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	p.authorize(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	var out Business
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return &out, nil
}

func (p *Provider) authorize(req *http.Request) {
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
}
