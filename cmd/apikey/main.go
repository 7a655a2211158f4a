// Command apikey is the operator CLI for API keys: create, list and
// revoke against the configured store. The plaintext is printed once at
// creation and is not recoverable afterwards.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"bizlookup.org/internal/account"
	"bizlookup.org/internal/apikey"
	"bizlookup.org/internal/secrets"
)

func main() {
	log.SetFlags(0)

	createCmd := flag.NewFlagSet("create", flag.ExitOnError)
	createEmail := createCmd.String("customer", "", "Customer email the key belongs to")
	createName := createCmd.String("name", "", "Key name")
	createScopes := createCmd.String("scopes", "business:read", "Comma-separated scopes")

	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	listEmail := listCmd.String("customer", "", "Customer email")

	revokeCmd := flag.NewFlagSet("revoke", flag.ExitOnError)
	revokeID := revokeCmd.String("id", "", "Key id to revoke")

	if len(os.Args) < 2 {
		log.Fatal("expected 'create', 'list' or 'revoke' subcommands")
	}

	dsn := os.Getenv("BIZLOOKUP_PG_DSN")
	if dsn == "" {
		log.Fatal("BIZLOOKUP_PG_DSN is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	hasher, err := secrets.NewHasher(secrets.DefaultCost)
	if err != nil {
		log.Fatalf("hasher: %v", err)
	}
	store := account.NewPGStore(db)
	accounts, err := account.NewService(store, hasher)
	if err != nil {
		log.Fatalf("accounts: %v", err)
	}
	keys, err := apikey.NewService(store, hasher)
	if err != nil {
		log.Fatalf("api keys: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "create":
		_ = createCmd.Parse(os.Args[2:])
		createKey(ctx, accounts, keys, *createEmail, *createName, *createScopes)
	case "list":
		_ = listCmd.Parse(os.Args[2:])
		listKeys(ctx, accounts, keys, *listEmail)
	case "revoke":
		_ = revokeCmd.Parse(os.Args[2:])
		if *revokeID == "" {
			log.Fatal("-id is required")
		}
		if err := keys.Revoke(ctx, *revokeID); err != nil {
			log.Fatalf("revoke: %v", err)
		}
		fmt.Printf("Key %s revoked.\n", *revokeID)
	default:
		log.Fatal("expected 'create', 'list' or 'revoke' subcommands")
	}
}

func createKey(ctx context.Context, accounts *account.Service, keys *apikey.Service, email, name, scopeList string) {
	customer := resolveCustomer(ctx, accounts, email)
	scopes := strings.Split(scopeList, ",")
	for i := range scopes {
		scopes[i] = strings.TrimSpace(scopes[i])
	}
	key, plaintext, err := keys.Issue(ctx, customer.ID, name, scopes)
	if err != nil {
		log.Fatalf("issue: %v", err)
	}
	fmt.Println("API Key Created")
	fmt.Println("---------------------------")
	fmt.Printf("ID:       %s\n", key.ID)
	fmt.Printf("Customer: %s\n", customer.Email)
	fmt.Printf("Scopes:   %s\n", strings.Join(key.Scopes, ", "))
	fmt.Printf("VALUE:    %s\n", plaintext)
	fmt.Println("---------------------------")
	fmt.Println("CAUTION: This is the only time the key will be shown.")
}

func listKeys(ctx context.Context, accounts *account.Service, keys *apikey.Service, email string) {
	customer := resolveCustomer(ctx, accounts, email)
	list, err := keys.ListForCustomer(ctx, customer.ID)
	if err != nil {
		log.Fatalf("list: %v", err)
	}
	if len(list) == 0 {
		fmt.Println("No keys.")
		return
	}
	for _, k := range list {
		state := "active"
		if k.Revoked {
			state = "revoked"
		}
		lastUsed := "never"
		if k.LastUsedAt != nil {
			lastUsed = k.LastUsedAt.UTC().Format(time.RFC3339)
		}
		fmt.Printf("%s  %-20s %-8s scopes=%s last_used=%s\n",
			k.ID, k.Name, state, strings.Join(k.Scopes, ","), lastUsed)
	}
}

func resolveCustomer(ctx context.Context, accounts *account.Service, email string) *account.Customer {
	if email == "" {
		log.Fatal("-customer is required")
	}
	customer, err := accounts.FindCustomerByEmail(ctx, email)
	if err != nil {
		log.Fatalf("resolve customer %s: %v", email, err)
	}
	return customer
}
