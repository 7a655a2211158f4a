package account

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"bizlookup.org/internal/obs"
	"bizlookup.org/internal/secrets"
)

// Service wraps a Store with validation, email normalization and secret
// hashing. All write paths for password material go through the hasher;
// generic updates cannot touch it.
type Service struct {
	store  Store
	hasher *secrets.Hasher
	now    func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the account service.
func NewService(store Store, hasher *secrets.Hasher, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("account: store is required")
	}
	if hasher == nil {
		return nil, errors.New("account: hasher is required")
	}
	svc := &Service{store: store, hasher: hasher, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Store exposes the underlying store to collaborators that need direct
// record access (the API-key issuer).
func (s *Service) Store() Store { return s.store }

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ().-]{5,19}$`)

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", fmt.Errorf("%w: email", ErrMissingFields)
	}
	if !strings.Contains(email, "@") {
		return "", fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	return email, nil
}

func validatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	if !phonePattern.MatchString(phone) {
		return fmt.Errorf("%w: phone number format", ErrInvalidInput)
	}
	return nil
}

// Administrators -------------------------------------------------------

// CreateAdmin provisions an administrator account. The permission set is
// derived from the role at creation time.
func (s *Service) CreateAdmin(ctx context.Context, email, password string, role Role) (*Admin, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("%w: password", ErrMissingFields)
	}
	if role != RoleAdmin && role != RoleSuperAdmin {
		return nil, fmt.Errorf("%w: unsupported role %s", ErrInvalidInput, role)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	a := &Admin{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Permissions:  RolePermissions(role),
		Status:       StatusActive,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Admins().Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// AuthenticateAdmin checks credentials and stamps last-login best-effort.
// Unknown email, wrong password and suspended status all collapse into
// ErrBadCredentials so callers cannot probe for account existence.
func (s *Service) AuthenticateAdmin(ctx context.Context, email, password string) (*Admin, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrBadCredentials
	}
	a, err := s.store.Admins().FindByEmail(ctx, email)
	if err != nil {
		return nil, credentialFailure(err)
	}
	if a.Status != StatusActive {
		return nil, ErrBadCredentials
	}
	ok, err := s.hasher.Verify(password, a.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBadCredentials
	}
	if err := s.store.Admins().UpdateLastLogin(ctx, email, s.now()); err != nil {
		obs.LogEvent("warn", "admin last-login stamp failed", map[string]any{"email": email, "error": err.Error()})
	}
	return a, nil
}

// ChangeAdminPassword verifies the current password before rehashing.
func (s *Service) ChangeAdminPassword(ctx context.Context, id, current, next string) error {
	a, err := s.store.Admins().FindByID(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.hasher.Verify(current, a.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrBadCredentials
	}
	return s.setPassword(ctx, next, func(hash string) error {
		return s.store.Admins().SetPassword(ctx, id, hash)
	})
}

func (s *Service) GetAdmin(ctx context.Context, id string) (*Admin, error) {
	return s.store.Admins().FindByID(ctx, id)
}

func (s *Service) ListAdmins(ctx context.Context) ([]*Admin, error) {
	return s.store.Admins().List(ctx)
}

func (s *Service) UpdateAdmin(ctx context.Context, id string, upd AdminUpdate) (*Admin, error) {
	if upd.Role != nil && *upd.Role != RoleAdmin && *upd.Role != RoleSuperAdmin {
		return nil, fmt.Errorf("%w: unsupported role %s", ErrInvalidInput, *upd.Role)
	}
	if upd.Status != nil && *upd.Status != StatusActive && *upd.Status != StatusSuspended {
		return nil, fmt.Errorf("%w: unsupported status %s", ErrInvalidInput, *upd.Status)
	}
	return s.store.Admins().Update(ctx, id, upd)
}

// Customers ------------------------------------------------------------

// NewCustomer carries the fields accepted at customer creation. Password
// is optional: accounts provisioned for key-only access have no
// self-service login.
type NewCustomer struct {
	Email    string
	Password string
	Company  string
	Phone    string
	Plan     Plan
}

// CreateCustomer provisions a customer account, by an administrator or via
// self-signup. Verification always starts inactive; the external
// verification workflow moves it forward.
func (s *Service) CreateCustomer(ctx context.Context, in NewCustomer) (*Customer, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePhone(in.Phone); err != nil {
		return nil, err
	}
	plan := in.Plan
	if plan == "" {
		plan = PlanFree
	}
	if plan != PlanFree && plan != PlanStandard && plan != PlanEnterprise {
		return nil, fmt.Errorf("%w: unsupported plan %s", ErrInvalidInput, plan)
	}
	var hash string
	if in.Password != "" {
		hash, err = s.hasher.Hash(in.Password)
		if err != nil {
			return nil, err
		}
	}
	c := &Customer{
		Email:        email,
		PasswordHash: hash,
		Company:      strings.TrimSpace(in.Company),
		Phone:        strings.TrimSpace(in.Phone),
		Plan:         plan,
		Status:       StatusActive,
		Verification: VerificationInactive,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Customers().Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// AuthenticateCustomer checks credentials for customer-portal login.
// Accounts provisioned without a password cannot log in.
func (s *Service) AuthenticateCustomer(ctx context.Context, email, password string) (*Customer, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrBadCredentials
	}
	c, err := s.store.Customers().FindByEmail(ctx, email)
	if err != nil {
		return nil, credentialFailure(err)
	}
	if c.Status != StatusActive || c.PasswordHash == "" {
		return nil, ErrBadCredentials
	}
	ok, err := s.hasher.Verify(password, c.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBadCredentials
	}
	if err := s.store.Customers().UpdateLastLogin(ctx, email, s.now()); err != nil {
		obs.LogEvent("warn", "customer last-login stamp failed", map[string]any{"email": email, "error": err.Error()})
	}
	return c, nil
}

// ChangeCustomerPassword verifies the current password before rehashing.
// An account without a password yet (admin-provisioned) sets one by
// presenting an empty current password.
func (s *Service) ChangeCustomerPassword(ctx context.Context, id, current, next string) error {
	c, err := s.store.Customers().FindByID(ctx, id)
	if err != nil {
		return err
	}
	if c.PasswordHash != "" {
		ok, err := s.hasher.Verify(current, c.PasswordHash)
		if err != nil {
			return err
		}
		if !ok {
			return ErrBadCredentials
		}
	}
	return s.setPassword(ctx, next, func(hash string) error {
		return s.store.Customers().SetPassword(ctx, id, hash)
	})
}

func (s *Service) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	return s.store.Customers().FindByID(ctx, id)
}

func (s *Service) FindCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	return s.store.Customers().FindByEmail(ctx, email)
}

func (s *Service) ListCustomers(ctx context.Context) ([]*Customer, error) {
	return s.store.Customers().List(ctx)
}

// UpdateCustomer applies a partial update. Callers gate which fields a
// principal may set (profile fields for the owner, plan/status for
// administrators); the store path cannot reach the password hash at all.
func (s *Service) UpdateCustomer(ctx context.Context, id string, upd CustomerUpdate) (*Customer, error) {
	if upd.Phone != nil {
		if err := validatePhone(*upd.Phone); err != nil {
			return nil, err
		}
	}
	if upd.Plan != nil && *upd.Plan != PlanFree && *upd.Plan != PlanStandard && *upd.Plan != PlanEnterprise {
		return nil, fmt.Errorf("%w: unsupported plan %s", ErrInvalidInput, *upd.Plan)
	}
	if upd.Status != nil && *upd.Status != StatusActive && *upd.Status != StatusSuspended {
		return nil, fmt.Errorf("%w: unsupported status %s", ErrInvalidInput, *upd.Status)
	}
	if upd.Verification != nil {
		switch *upd.Verification {
		case VerificationInactive, VerificationPending, VerificationVerified:
		default:
			return nil, fmt.Errorf("%w: unsupported verification state %s", ErrInvalidInput, *upd.Verification)
		}
	}
	return s.store.Customers().Update(ctx, id, upd)
}

// helpers --------------------------------------------------------------

func (s *Service) setPassword(ctx context.Context, next string, apply func(hash string) error) error {
	if strings.TrimSpace(next) == "" {
		return fmt.Errorf("%w: password", ErrMissingFields)
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	return apply(hash)
}

// credentialFailure maps a lookup miss to a generic credential error while
// letting storage faults through.
func credentialFailure(err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrBadCredentials
	}
	return err
}
