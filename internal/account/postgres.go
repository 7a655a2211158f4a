package account

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"bizlookup.org/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL. Email uniqueness is delegated
// to unique indexes on lower(email); a 23505 violation maps to
// ErrAlreadyExists.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Admins() AdminStore       { return &pgAdmins{db: s.db} }
func (s *PGStore) Customers() CustomerStore { return &pgCustomers{db: s.db} }
func (s *PGStore) Keys() KeyStore           { return &pgKeys{db: s.db} }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Admin store ---------------------------------------------------------

type pgAdmins struct{ db *sql.DB }

func (s *pgAdmins) Create(ctx context.Context, a *Admin) error {
	if strings.TrimSpace(a.Email) == "" {
		return ErrMissingFields
	}
	if a.ID == "" {
		a.ID = ids.New()
	}
	perms, _ := json.Marshal(a.Permissions)
	_, err := s.db.ExecContext(ctx,
		`insert into admin_accounts(id, email, password_hash, role, permissions, status)
		 values($1,$2,$3,$4,$5,$6)`,
		a.ID, a.Email, a.PasswordHash, a.Role, perms, a.Status,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

const adminColumns = `id, email, password_hash, role, permissions, status, created_at, last_login_at`

func scanAdmin(row interface{ Scan(...any) error }) (*Admin, error) {
	var (
		a     Admin
		perms []byte
		last  sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Role, &perms, &a.Status, &a.CreatedAt, &last); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	_ = json.Unmarshal(perms, &a.Permissions)
	if last.Valid {
		t := last.Time
		a.LastLoginAt = &t
	}
	return &a, nil
}

func (s *pgAdmins) FindByID(ctx context.Context, id string) (*Admin, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+adminColumns+` from admin_accounts where id=$1`, id)
	return scanAdmin(row)
}

func (s *pgAdmins) FindByEmail(ctx context.Context, email string) (*Admin, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+adminColumns+` from admin_accounts where lower(email)=lower($1)`, email)
	return scanAdmin(row)
}

func (s *pgAdmins) Update(ctx context.Context, id string, upd AdminUpdate) (*Admin, error) {
	if upd.Role != nil {
		perms, _ := json.Marshal(RolePermissions(*upd.Role))
		if _, err := s.db.ExecContext(ctx,
			`update admin_accounts set role=$2, permissions=$3 where id=$1`, id, *upd.Role, perms); err != nil {
			return nil, err
		}
	}
	if upd.Status != nil {
		if _, err := s.db.ExecContext(ctx,
			`update admin_accounts set status=$2 where id=$1`, id, *upd.Status); err != nil {
			return nil, err
		}
	}
	return s.FindByID(ctx, id)
}

func (s *pgAdmins) SetPassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`update admin_accounts set password_hash=$2 where id=$1`, id, passwordHash)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgAdmins) UpdateLastLogin(ctx context.Context, email string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`update admin_accounts set last_login_at=$2 where lower(email)=lower($1)`, email, at.UTC())
	return err
}

func (s *pgAdmins) List(ctx context.Context) ([]*Admin, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+adminColumns+` from admin_accounts order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Admin
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Customer store ------------------------------------------------------

type pgCustomers struct{ db *sql.DB }

const customerColumns = `id, email, password_hash, company, phone, plan, status, verification, created_at, last_login_at`

func scanCustomer(row interface{ Scan(...any) error }) (*Customer, error) {
	var (
		c    Customer
		hash sql.NullString
		last sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.Email, &hash, &c.Company, &c.Phone, &c.Plan, &c.Status, &c.Verification, &c.CreatedAt, &last); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if hash.Valid {
		c.PasswordHash = hash.String
	}
	if last.Valid {
		t := last.Time
		c.LastLoginAt = &t
	}
	return &c, nil
}

func (s *pgCustomers) Create(ctx context.Context, c *Customer) error {
	if strings.TrimSpace(c.Email) == "" {
		return ErrMissingFields
	}
	if c.ID == "" {
		c.ID = ids.New()
	}
	var hash any
	if c.PasswordHash != "" {
		hash = c.PasswordHash
	}
	_, err := s.db.ExecContext(ctx,
		`insert into customer_accounts(id, email, password_hash, company, phone, plan, status, verification)
		 values($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.ID, c.Email, hash, c.Company, c.Phone, c.Plan, c.Status, c.Verification,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (s *pgCustomers) FindByID(ctx context.Context, id string) (*Customer, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+customerColumns+` from customer_accounts where id=$1`, id)
	return scanCustomer(row)
}

func (s *pgCustomers) FindByEmail(ctx context.Context, email string) (*Customer, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+customerColumns+` from customer_accounts where lower(email)=lower($1)`, email)
	return scanCustomer(row)
}

func (s *pgCustomers) Update(ctx context.Context, id string, upd CustomerUpdate) (*Customer, error) {
	set := make([]string, 0, 5)
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, col+"=$"+strconv.Itoa(len(args)))
	}
	if upd.Company != nil {
		add("company", *upd.Company)
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	if upd.Plan != nil {
		add("plan", *upd.Plan)
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.Verification != nil {
		add("verification", *upd.Verification)
	}
	if len(set) > 0 {
		res, err := s.db.ExecContext(ctx,
			`update customer_accounts set `+strings.Join(set, ", ")+` where id=$1`, args...)
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, ErrNotFound
		}
	}
	return s.FindByID(ctx, id)
}

func (s *pgCustomers) SetPassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`update customer_accounts set password_hash=$2 where id=$1`, id, passwordHash)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgCustomers) UpdateLastLogin(ctx context.Context, email string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`update customer_accounts set last_login_at=$2 where lower(email)=lower($1)`, email, at.UTC())
	return err
}

func (s *pgCustomers) List(ctx context.Context) ([]*Customer, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+customerColumns+` from customer_accounts order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Key store -----------------------------------------------------------

type pgKeys struct{ db *sql.DB }

const keyColumns = `id, customer_id, name, scopes, secret_hash, fingerprint, created_at, last_used_at, revoked`

func scanKey(row interface{ Scan(...any) error }) (*Key, error) {
	var (
		k      Key
		scopes []byte
		last   sql.NullTime
	)
	if err := row.Scan(&k.ID, &k.CustomerID, &k.Name, &scopes, &k.SecretHash, &k.Fingerprint, &k.CreatedAt, &last, &k.Revoked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	_ = json.Unmarshal(scopes, &k.Scopes)
	if last.Valid {
		t := last.Time
		k.LastUsedAt = &t
	}
	return &k, nil
}

func (s *pgKeys) Create(ctx context.Context, k *Key) error {
	if k.CustomerID == "" || k.SecretHash == "" || k.Fingerprint == "" {
		return ErrMissingFields
	}
	if k.ID == "" {
		k.ID = ids.New()
	}
	scopes, _ := json.Marshal(k.Scopes)
	_, err := s.db.ExecContext(ctx,
		`insert into api_keys(id, customer_id, name, scopes, secret_hash, fingerprint, revoked)
		 values($1,$2,$3,$4,$5,$6,false)`,
		k.ID, k.CustomerID, k.Name, scopes, k.SecretHash, k.Fingerprint,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (s *pgKeys) FindByID(ctx context.Context, id string) (*Key, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+keyColumns+` from api_keys where id=$1`, id)
	return scanKey(row)
}

func (s *pgKeys) FindByFingerprint(ctx context.Context, fingerprint string) (*Key, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+keyColumns+` from api_keys where fingerprint=$1`, fingerprint)
	return scanKey(row)
}

func (s *pgKeys) ListByCustomer(ctx context.Context, customerID string) ([]*Key, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+keyColumns+` from api_keys where customer_id=$1 order by created_at`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Key
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (s *pgKeys) Revoke(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`update api_keys set revoked=true where id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgKeys) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`update api_keys set last_used_at=$2 where id=$1`, id, at.UTC())
	return err
}
