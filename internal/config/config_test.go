package config

import (
	"strings"
	"testing"
	"time"
)

func setBaseline(t *testing.T) {
	t.Helper()
	t.Setenv("BIZLOOKUP_STORE", "memory")
	t.Setenv("BIZLOOKUP_SESSION_SECRET", strings.Repeat("s", 32))
	t.Setenv("BIZLOOKUP_PROVIDER_URL", "https://lookup.example.com")
}

func TestLoadDefaults(t *testing.T) {
	setBaseline(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.Addr)
	}
	if cfg.AdminTTL != 30*time.Minute || cfg.CustomerTTL != 12*time.Hour {
		t.Fatalf("unexpected TTLs: %v %v", cfg.AdminTTL, cfg.CustomerTTL)
	}
	if cfg.RateLimitRPS != 20 || cfg.RateLimitBurst != 40 {
		t.Fatalf("unexpected rate limits: %v %d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadStoreMustBeExplicit(t *testing.T) {
	setBaseline(t)
	t.Setenv("BIZLOOKUP_STORE", "")

	if _, err := Load(); err == nil {
		t.Fatalf("unset store backend must be rejected")
	}
}

func TestLoadPostgresRequiresDSN(t *testing.T) {
	setBaseline(t)
	t.Setenv("BIZLOOKUP_STORE", "postgres")

	if _, err := Load(); err == nil {
		t.Fatalf("postgres store without DSN must be rejected")
	}
	t.Setenv("BIZLOOKUP_PG_DSN", "postgres://localhost/bizlookup")
	if _, err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoadRejectsShortSecret(t *testing.T) {
	setBaseline(t)
	t.Setenv("BIZLOOKUP_SESSION_SECRET", "short")

	if _, err := Load(); err == nil {
		t.Fatalf("short session secret must be rejected")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	setBaseline(t)
	t.Setenv("BIZLOOKUP_ADMIN_SESSION_TTL", "15m")
	t.Setenv("BIZLOOKUP_BCRYPT_COST", "12")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AdminTTL != 15*time.Minute || cfg.BcryptCost != 12 {
		t.Fatalf("overrides not applied: %v %d", cfg.AdminTTL, cfg.BcryptCost)
	}

	t.Setenv("BIZLOOKUP_ADMIN_SESSION_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("malformed duration must be rejected")
	}
}

func TestLoadBootstrapAdminPairing(t *testing.T) {
	setBaseline(t)
	t.Setenv("BIZLOOKUP_BOOTSTRAP_ADMIN_EMAIL", "root@example.com")

	if _, err := Load(); err == nil {
		t.Fatalf("bootstrap email without password must be rejected")
	}
	t.Setenv("BIZLOOKUP_BOOTSTRAP_ADMIN_PASSWORD", "bootstrap-pass")
	if _, err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
}
