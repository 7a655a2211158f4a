package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"bizlookup.org/internal/account"
	"bizlookup.org/internal/apikey"
	"bizlookup.org/internal/config"
	"bizlookup.org/internal/httpapi"
	"bizlookup.org/internal/lookup"
	"bizlookup.org/internal/obs"
	"bizlookup.org/internal/secrets"
	"bizlookup.org/internal/session"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	hasher, err := secrets.NewHasher(cfg.BcryptCost)
	if err != nil {
		log.Fatalf("hasher: %v", err)
	}

	var (
		store account.Store
		db    *sql.DB
	)
	switch cfg.Store {
	case config.StorePostgres:
		db, err = sql.Open("pgx", cfg.PGDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		store = account.NewPGStore(db)
	case config.StoreMemory:
		store = account.NewMemStore()
	}

	accounts, err := account.NewService(store, hasher)
	if err != nil {
		log.Fatalf("accounts: %v", err)
	}
	keys, err := apikey.NewService(store, hasher)
	if err != nil {
		log.Fatalf("api keys: %v", err)
	}
	sessions, err := session.NewIssuer(cfg.SessionSecret,
		session.WithAdminTTL(cfg.AdminTTL),
		session.WithCustomerTTL(cfg.CustomerTTL),
	)
	if err != nil {
		log.Fatalf("sessions: %v", err)
	}

	provider, err := lookup.NewProvider(cfg.ProviderURL, cfg.ProviderToken)
	if err != nil {
		log.Fatalf("lookup provider: %v", err)
	}
	var searcher lookup.Searcher = provider
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		searcher, err = lookup.NewCachedSearcher(provider, rdb, cfg.CacheTTL)
		if err != nil {
			log.Fatalf("lookup cache: %v", err)
		}
	}

	if err := seedBootstrapAdmin(cfg, accounts); err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	api, err := httpapi.New(httpapi.Options{
		Version:        version,
		Ready:          httpapi.ReadyProbe{DB: db},
		Accounts:       accounts,
		Keys:           keys,
		Sessions:       sessions,
		Search:         searcher,
		Submit:         provider,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})
	if err != nil {
		log.Fatalf("api: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting bizlookup-api %s on %s", version, srv.Addr)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}

// seedBootstrapAdmin provisions the configured super-admin on first start.
// An existing account with that email means a previous start already
// seeded it.
func seedBootstrapAdmin(cfg *config.Config, accounts *account.Service) error {
	if cfg.BootstrapAdminEmail == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := accounts.CreateAdmin(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword, account.RoleSuperAdmin)
	if errors.Is(err, account.ErrAlreadyExists) {
		return nil
	}
	if err == nil {
		log.Printf("Seeded bootstrap super-admin %s", cfg.BootstrapAdminEmail)
	}
	return err
}
