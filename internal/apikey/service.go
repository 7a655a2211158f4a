// Package apikey issues, verifies and revokes the long-lived machine
// credentials customers use against the lookup API.
package apikey

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"bizlookup.org/internal/account"
	"bizlookup.org/internal/audit"
	"bizlookup.org/internal/obs"
	"bizlookup.org/internal/secrets"
)

// ErrRevoked indicates a key that was deliberately disabled. Kept distinct
// from a lookup miss so API consumers can tell "reissue your key" from
// "wrong key".
var ErrRevoked = errors.New("apikey: key revoked")

// Prefix marks key material on the wire so the routing layer can tell an
// API key from a session token.
const Prefix = "bzl_"

// secretBytes is the entropy per key. 32 bytes keeps the material
// password-equivalent rather than a short token.
const secretBytes = 32

// Service implements issuance and verification. Only the bcrypt hash of
// key material is persisted; the SHA-256 fingerprint is a lookup index,
// not an authenticator.
type Service struct {
	store  account.Store
	hasher *secrets.Hasher
	now    func() time.Time
}

// Option configures Service behavior.
type Option func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the key issuer.
func NewService(store account.Store, hasher *secrets.Hasher, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("apikey: store is required")
	}
	if hasher == nil {
		return nil, errors.New("apikey: hasher is required")
	}
	svc := &Service{store: store, hasher: hasher, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Issue generates key material for a customer and returns the plaintext
// exactly once. Losing it requires reissuance; it is never stored or
// retrievable again.
func (s *Service) Issue(ctx context.Context, customerID, name string, scopes []string) (*account.Key, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", fmt.Errorf("%w: key name", account.ErrMissingFields)
	}
	scopes, err := account.NormalizeKeyScopes(scopes)
	if err != nil {
		return nil, "", err
	}
	customer, err := s.store.Customers().FindByID(ctx, customerID)
	if err != nil {
		return nil, "", err
	}
	if customer.Status != account.StatusActive {
		return nil, "", fmt.Errorf("%w: customer %s is not active", account.ErrInvalidInput, customerID)
	}

	plaintext, err := generateKeyMaterial()
	if err != nil {
		return nil, "", err
	}
	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, "", err
	}
	key := &account.Key{
		CustomerID:  customerID,
		Name:        name,
		Scopes:      scopes,
		SecretHash:  hash,
		Fingerprint: fingerprint(plaintext),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Keys().Create(ctx, key); err != nil {
		return nil, "", err
	}
	_ = audit.LogEvent(ctx, "apikey.issued", map[string]any{
		"key_id":      key.ID,
		"customer_id": customerID,
		"name":        name,
		"scopes":      scopes,
	})
	return key, plaintext, nil
}

// Verify resolves presented key material to its record. A lookup miss and
// a hash mismatch both cost one bcrypt comparison, so the two are not
// distinguishable by timing beyond what hashing already bounds.
func (s *Service) Verify(ctx context.Context, presented string) (*account.Key, error) {
	presented = strings.TrimSpace(presented)
	if !strings.HasPrefix(presented, Prefix) {
		s.hasher.DummyVerify()
		obs.ObserveKeyVerification("malformed")
		return nil, account.ErrNotFound
	}
	key, err := s.store.Keys().FindByFingerprint(ctx, fingerprint(presented))
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			s.hasher.DummyVerify()
			obs.ObserveKeyVerification("miss")
			return nil, account.ErrNotFound
		}
		return nil, err
	}
	ok, err := s.hasher.Verify(presented, key.SecretHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		obs.ObserveKeyVerification("mismatch")
		return nil, account.ErrNotFound
	}
	if key.Revoked {
		obs.ObserveKeyVerification("revoked")
		return nil, ErrRevoked
	}
	obs.ObserveKeyVerification("ok")
	s.touch(ctx, key.ID)
	return key, nil
}

// VerifyForCustomer is Verify restricted to keys owned by one customer.
func (s *Service) VerifyForCustomer(ctx context.Context, customerID, presented string) (*account.Key, error) {
	key, err := s.Verify(ctx, presented)
	if err != nil {
		return nil, err
	}
	if key.CustomerID != customerID {
		return nil, account.ErrNotFound
	}
	return key, nil
}

// Revoke flips the revoked flag; the record is kept for audit.
func (s *Service) Revoke(ctx context.Context, keyID string) error {
	if err := s.store.Keys().Revoke(ctx, keyID); err != nil {
		return err
	}
	_ = audit.LogEvent(ctx, "apikey.revoked", map[string]any{"key_id": keyID})
	return nil
}

// Get returns a key record by id.
func (s *Service) Get(ctx context.Context, keyID string) (*account.Key, error) {
	return s.store.Keys().FindByID(ctx, keyID)
}

// ListForCustomer enumerates a customer's keys, revoked ones included.
func (s *Service) ListForCustomer(ctx context.Context, customerID string) ([]*account.Key, error) {
	return s.store.Keys().ListByCustomer(ctx, customerID)
}

// MatchCheck is the support diagnostic: does a plaintext candidate match
// the stored hash of a specific key. Access is audited with actor and key
// id; the candidate itself is never logged. Callers must restrict this to
// administrators.
func (s *Service) MatchCheck(ctx context.Context, keyID, candidate string) (bool, error) {
	key, err := s.store.Keys().FindByID(ctx, keyID)
	if err != nil {
		return false, err
	}
	matched, err := s.hasher.Verify(candidate, key.SecretHash)
	if err != nil {
		return false, err
	}
	_ = audit.LogEvent(ctx, "apikey.match_check", map[string]any{
		"key_id":  keyID,
		"matched": matched,
	})
	return matched, nil
}

// touch stamps last-used without blocking or failing the request. The
// write is detached from the request's cancellation so an in-flight stamp
// may complete after the caller goes away.
func (s *Service) touch(ctx context.Context, keyID string) {
	detached := context.WithoutCancel(ctx)
	now := s.now()
	go func() {
		if err := s.store.Keys().Touch(detached, keyID, now); err != nil {
			obs.LogEvent("warn", "api key last-used stamp failed", map[string]any{
				"key_id": keyID,
				"error":  err.Error(),
			})
		}
	}()
}

func generateKeyMaterial() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("apikey: generate material: %w", err)
	}
	return Prefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

func fingerprint(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
