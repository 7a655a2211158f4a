// Package session mints and verifies the signed, time-bounded tokens that
// carry principal identity between requests.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"bizlookup.org/internal/account"
)

var (
	// ErrInvalid indicates a malformed or forged token.
	ErrInvalid = errors.New("session: invalid token")
	// ErrExpired indicates a well-formed token past its expiry. Kept
	// distinct from ErrInvalid so callers can tell "log in again" from
	// "forged".
	ErrExpired = errors.New("session: token expired")
)

const (
	defaultIssuer      = "bizlookup"
	defaultAdminTTL    = 30 * time.Minute
	defaultCustomerTTL = 12 * time.Hour
)

// Claims is the session token payload. Kind discriminates the two token
// schemas; verification checks it, not only the signature.
type Claims struct {
	Kind        account.Kind `json:"kind"`
	Role        string       `json:"role,omitempty"`
	Permissions []string     `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies session tokens with a process-wide secret.
// Rotating the secret invalidates all outstanding sessions; that is the
// documented operational cost of stateless tokens.
type Issuer struct {
	secret      []byte
	issuer      string
	adminTTL    time.Duration
	customerTTL time.Duration
	now         func() time.Time
}

// Option configures Issuer behavior.
type Option func(*Issuer)

// WithIssuerName overrides the iss claim.
func WithIssuerName(name string) Option {
	return func(i *Issuer) {
		if name = strings.TrimSpace(name); name != "" {
			i.issuer = name
		}
	}
}

// WithAdminTTL configures administrator session lifetime.
func WithAdminTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		if ttl > 0 {
			i.adminTTL = ttl
		}
	}
}

// WithCustomerTTL configures customer session lifetime.
func WithCustomerTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		if ttl > 0 {
			i.customerTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(i *Issuer) {
		if fn != nil {
			i.now = fn
		}
	}
}

// NewIssuer constructs an Issuer with the given signing secret.
func NewIssuer(secret string, opts ...Option) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session: signing secret is required")
	}
	iss := &Issuer{
		secret:      []byte(secret),
		issuer:      defaultIssuer,
		adminTTL:    defaultAdminTTL,
		customerTTL: defaultCustomerTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(iss)
	}
	return iss, nil
}

// IssueAdmin mints an administrator session token carrying the account's
// role and permission snapshot at issuance time.
func (i *Issuer) IssueAdmin(a *account.Admin) (string, time.Time, error) {
	if a == nil || a.ID == "" {
		return "", time.Time{}, errors.New("session: admin record is required")
	}
	return i.sign(account.KindAdmin, a.ID, string(a.Role), a.Permissions, i.adminTTL)
}

// IssueCustomer mints a customer session token carrying the account's full
// permission set at issuance time.
func (i *Issuer) IssueCustomer(c *account.Customer) (string, time.Time, error) {
	if c == nil || c.ID == "" {
		return "", time.Time{}, errors.New("session: customer record is required")
	}
	return i.sign(account.KindCustomer, c.ID, "", account.CustomerPermissions(c), i.customerTTL)
}

func (i *Issuer) sign(kind account.Kind, subject, role string, perms []string, ttl time.Duration) (string, time.Time, error) {
	now := i.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Kind:        kind,
		Role:        role,
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("session: sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature, issuer, expiry and the kind discriminator. An
// admin token never verifies where a customer token is expected, and vice
// versa.
func (i *Issuer) Verify(token string, expected account.Kind) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalid
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalid
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid
	}
	if claims.Issuer != i.issuer {
		return nil, ErrInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalid
	}
	if claims.Kind != expected {
		return nil, ErrInvalid
	}
	return claims, nil
}
