// Package config loads process configuration from BIZLOOKUP_* environment
// variables and validates it before anything starts.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"bizlookup.org/internal/secrets"
)

// Store backends. The memory backend must be requested explicitly; an
// unset backend is a configuration error, never a silent in-memory default.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config is the full process configuration.
type Config struct {
	Addr string

	Store string
	PGDSN string

	SessionSecret string
	AdminTTL      time.Duration
	CustomerTTL   time.Duration

	BcryptCost int

	RedisAddr string
	CacheTTL  time.Duration

	ProviderURL   string
	ProviderToken string

	RateLimitRPS   float64
	RateLimitBurst int

	// Bootstrap super-admin, seeded at startup when the store has no
	// admin accounts yet. Both empty disables seeding.
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

// Load reads and validates configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:                   getenv("BIZLOOKUP_ADDR", ":8080"),
		Store:                  strings.ToLower(strings.TrimSpace(os.Getenv("BIZLOOKUP_STORE"))),
		PGDSN:                  os.Getenv("BIZLOOKUP_PG_DSN"),
		SessionSecret:          os.Getenv("BIZLOOKUP_SESSION_SECRET"),
		RedisAddr:              os.Getenv("BIZLOOKUP_REDIS_ADDR"),
		ProviderURL:            os.Getenv("BIZLOOKUP_PROVIDER_URL"),
		ProviderToken:          os.Getenv("BIZLOOKUP_PROVIDER_TOKEN"),
		BootstrapAdminEmail:    os.Getenv("BIZLOOKUP_BOOTSTRAP_ADMIN_EMAIL"),
		BootstrapAdminPassword: os.Getenv("BIZLOOKUP_BOOTSTRAP_ADMIN_PASSWORD"),
	}

	var err error
	if cfg.AdminTTL, err = getduration("BIZLOOKUP_ADMIN_SESSION_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CustomerTTL, err = getduration("BIZLOOKUP_CUSTOMER_SESSION_TTL", 12*time.Hour); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getduration("BIZLOOKUP_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = getint("BIZLOOKUP_BCRYPT_COST", secrets.DefaultCost); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = getfloat("BIZLOOKUP_RATE_LIMIT_RPS", 20); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getint("BIZLOOKUP_RATE_LIMIT_BURST", 40); err != nil {
		return nil, err
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.PGDSN == "" {
			return errors.New("config: BIZLOOKUP_PG_DSN is required for the postgres store")
		}
	case "":
		return errors.New("config: BIZLOOKUP_STORE must be set (memory or postgres)")
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store)
	}
	if len(c.SessionSecret) < 32 {
		return errors.New("config: BIZLOOKUP_SESSION_SECRET must be at least 32 bytes")
	}
	if c.ProviderURL == "" {
		return errors.New("config: BIZLOOKUP_PROVIDER_URL is required")
	}
	if (c.BootstrapAdminEmail == "") != (c.BootstrapAdminPassword == "") {
		return errors.New("config: bootstrap admin email and password must be set together")
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getduration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func getint(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getfloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}
