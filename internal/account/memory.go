package account

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"bizlookup.org/internal/ids"
)

// MemStore implements Store with in-process concurrency safety. All state
// is lost on restart; it must be selected explicitly via configuration and
// is intended for development and tests.
type MemStore struct {
	mu sync.RWMutex

	admins       map[string]*Admin
	adminEmails  map[string]string // lower(email) -> id
	customers    map[string]*Customer
	custEmails   map[string]string
	keys         map[string]*Key
	keyFingerIdx map[string]string // fingerprint -> key id
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		admins:       make(map[string]*Admin),
		adminEmails:  make(map[string]string),
		customers:    make(map[string]*Customer),
		custEmails:   make(map[string]string),
		keys:         make(map[string]*Key),
		keyFingerIdx: make(map[string]string),
	}
}

var _ Store = (*MemStore)(nil)

func (s *MemStore) Admins() AdminStore       { return (*memAdmins)(s) }
func (s *MemStore) Customers() CustomerStore { return (*memCustomers)(s) }
func (s *MemStore) Keys() KeyStore           { return (*memKeys)(s) }

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Admins ---------------------------------------------------------------

type memAdmins MemStore

func (s *memAdmins) Create(ctx context.Context, a *Admin) error {
	if emailKey(a.Email) == "" {
		return ErrMissingFields
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Create and the uniqueness check run under one lock so a same-email
	// race yields exactly one success.
	if _, exists := s.adminEmails[emailKey(a.Email)]; exists {
		return ErrAlreadyExists
	}
	if a.ID == "" {
		a.ID = ids.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	cp := *a
	s.admins[a.ID] = &cp
	s.adminEmails[emailKey(a.Email)] = a.ID
	return nil
}

func (s *memAdmins) FindByID(ctx context.Context, id string) (*Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.admins[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyAdmin(a), nil
}

func (s *memAdmins) FindByEmail(ctx context.Context, email string) (*Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.adminEmails[emailKey(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return copyAdmin(s.admins[id]), nil
}

func (s *memAdmins) Update(ctx context.Context, id string, upd AdminUpdate) (*Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Role != nil {
		a.Role = *upd.Role
		a.Permissions = RolePermissions(a.Role)
	}
	if upd.Status != nil {
		a.Status = *upd.Status
	}
	return copyAdmin(a), nil
}

func (s *memAdmins) SetPassword(ctx context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[id]
	if !ok {
		return ErrNotFound
	}
	a.PasswordHash = passwordHash
	return nil
}

func (s *memAdmins) UpdateLastLogin(ctx context.Context, email string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.adminEmails[emailKey(email)]
	if !ok {
		return ErrNotFound
	}
	t := at.UTC()
	s.admins[id].LastLoginAt = &t
	return nil
}

func (s *memAdmins) List(ctx context.Context) ([]*Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Admin, 0, len(s.admins))
	for _, a := range s.admins {
		out = append(out, copyAdmin(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Customers ------------------------------------------------------------

type memCustomers MemStore

func (s *memCustomers) Create(ctx context.Context, c *Customer) error {
	if emailKey(c.Email) == "" {
		return ErrMissingFields
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.custEmails[emailKey(c.Email)]; exists {
		return ErrAlreadyExists
	}
	if c.ID == "" {
		c.ID = ids.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	cp := *c
	s.customers[c.ID] = &cp
	s.custEmails[emailKey(c.Email)] = c.ID
	return nil
}

func (s *memCustomers) FindByID(ctx context.Context, id string) (*Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyCustomer(c), nil
}

func (s *memCustomers) FindByEmail(ctx context.Context, email string) (*Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.custEmails[emailKey(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return copyCustomer(s.customers[id]), nil
}

func (s *memCustomers) Update(ctx context.Context, id string, upd CustomerUpdate) (*Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Company != nil {
		c.Company = *upd.Company
	}
	if upd.Phone != nil {
		c.Phone = *upd.Phone
	}
	if upd.Plan != nil {
		c.Plan = *upd.Plan
	}
	if upd.Status != nil {
		c.Status = *upd.Status
	}
	if upd.Verification != nil {
		c.Verification = *upd.Verification
	}
	return copyCustomer(c), nil
}

func (s *memCustomers) SetPassword(ctx context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return ErrNotFound
	}
	c.PasswordHash = passwordHash
	return nil
}

func (s *memCustomers) UpdateLastLogin(ctx context.Context, email string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.custEmails[emailKey(email)]
	if !ok {
		return ErrNotFound
	}
	t := at.UTC()
	s.customers[id].LastLoginAt = &t
	return nil
}

func (s *memCustomers) List(ctx context.Context) ([]*Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, copyCustomer(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Keys -----------------------------------------------------------------

type memKeys MemStore

func (s *memKeys) Create(ctx context.Context, k *Key) error {
	if k.CustomerID == "" || k.SecretHash == "" || k.Fingerprint == "" {
		return ErrMissingFields
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if k.ID == "" {
		k.ID = ids.New()
	}
	if k.CreatedAt.IsZero() {
		k.CreatedAt = time.Now().UTC()
	}
	cp := *k
	cp.Scopes = append([]string(nil), k.Scopes...)
	s.keys[k.ID] = &cp
	s.keyFingerIdx[k.Fingerprint] = k.ID
	return nil
}

func (s *memKeys) FindByID(ctx context.Context, id string) (*Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.keys[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyKey(k), nil
}

func (s *memKeys) FindByFingerprint(ctx context.Context, fingerprint string) (*Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.keyFingerIdx[fingerprint]
	if !ok {
		return nil, ErrNotFound
	}
	return copyKey(s.keys[id]), nil
}

func (s *memKeys) ListByCustomer(ctx context.Context, customerID string) ([]*Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Key
	for _, k := range s.keys {
		if k.CustomerID == customerID {
			out = append(out, copyKey(k))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memKeys) Revoke(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[id]
	if !ok {
		return ErrNotFound
	}
	k.Revoked = true
	return nil
}

func (s *memKeys) Touch(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[id]
	if !ok {
		return ErrNotFound
	}
	t := at.UTC()
	k.LastUsedAt = &t
	return nil
}

// copies ---------------------------------------------------------------

func copyAdmin(a *Admin) *Admin {
	cp := *a
	cp.Permissions = append([]string(nil), a.Permissions...)
	if a.LastLoginAt != nil {
		t := *a.LastLoginAt
		cp.LastLoginAt = &t
	}
	return &cp
}

func copyCustomer(c *Customer) *Customer {
	cp := *c
	if c.LastLoginAt != nil {
		t := *c.LastLoginAt
		cp.LastLoginAt = &t
	}
	return &cp
}

func copyKey(k *Key) *Key {
	cp := *k
	cp.Scopes = append([]string(nil), k.Scopes...)
	if k.LastUsedAt != nil {
		t := *k.LastUsedAt
		cp.LastUsedAt = &t
	}
	return &cp
}
