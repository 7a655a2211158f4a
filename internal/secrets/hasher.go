// Package secrets provides one-way hashing for passwords and API-key
// material.
package secrets

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrCorruptHash reports a stored hash that cannot have been produced by
// this package. It signals storage corruption, not a failed verification.
var ErrCorruptHash = errors.New("secrets: corrupt stored hash")

const (
	// MinCost is the lowest work factor accepted at construction.
	// Anything below bcrypt's own minimum is rejected outright.
	MinCost = bcrypt.MinCost

	// DefaultCost is used when configuration does not specify one.
	DefaultCost = bcrypt.DefaultCost
)

// Hasher performs adaptive, self-salting hashing with a fixed work factor.
// The salt is embedded in the output, so verification needs only the
// secret and the stored hash. Safe for concurrent use.
type Hasher struct {
	cost int
}

// NewHasher constructs a Hasher with the given bcrypt cost factor.
func NewHasher(cost int) (*Hasher, error) {
	if cost < MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("secrets: cost %d out of range [%d,%d]", cost, MinCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

// Cost returns the configured work factor.
func (h *Hasher) Cost() int { return h.cost }

// Hash derives a one-way hash of secret. It never fails for non-empty
// well-formed input.
func (h *Hasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("secrets: secret is empty")
	}
	out, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("secrets: hash: %w", err)
	}
	return string(out), nil
}

// Verify reports whether secret matches the stored hash. A mismatch or a
// truncated hash yields (false, nil); a stored value that is structurally
// not a bcrypt hash yields ErrCorruptHash so callers can distinguish
// forgery attempts from damaged storage.
func (h *Hasher) Verify(secret, hash string) (bool, error) {
	if !looksLikeBcrypt(hash) {
		return false, ErrCorruptHash
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	case errors.Is(err, bcrypt.ErrHashTooShort):
		return false, nil
	default:
		return false, nil
	}
}

// DummyVerify burns one bcrypt comparison against a throwaway hash. Callers
// use it to equalize timing on paths where no candidate record exists.
func (h *Hasher) DummyVerify() {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte("bizlookup-timing-pad"))
}

// dummyHash is a valid bcrypt hash of an arbitrary string; only its cost
// matters.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

func looksLikeBcrypt(hash string) bool {
	if hash == "" {
		return false
	}
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}
