package db

import (
	"fmt"
	"log"
	"os"

	"github.com/tradepost-dev/tradepost/internal/ledger"
	"github.com/tradepost-dev/tradepost/internal/store"
)

var (
	// Store is the process-wide KV backend opened by Init.
	Store store.KV
	// Ledger is the marketplace ledger running on Store.
	Ledger *ledger.Ledger
)

// Init opens the store backend named by STORE_BACKEND and wires the
// ledger on top of it. Called once from main before any route is served.
func Init() {
	backend := os.Getenv("STORE_BACKEND")
	if backend == "" {
		backend = "memory"
	}

	var err error
	switch backend {
	case "memory":
		Store = store.NewMemory()
	case "leveldb":
		path := os.Getenv("STORE_PATH")
		if path == "" {
			path = "tradepost.db"
		}
		Store, err = store.OpenLevel(path)
	case "postgres":
		dsn := fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_HOST"),
			os.Getenv("DB_PORT"),
			os.Getenv("DB_NAME"),
		)
		Store, err = store.OpenPostgres(dsn)
	default:
		log.Fatalf("unknown STORE_BACKEND %q", backend)
	}
	if err != nil {
		log.Fatalf("unable to open %s store: %v", backend, err)
	}

	Ledger = ledger.New(Store)
	log.Printf("store backend %s ready", backend)
}

// Close releases the store. The server holds it for its whole lifetime;
// tests and utilities call this when done.
func Close() {
	if Store == nil {
		return
	}
	if err := Store.Close(); err != nil {
		log.Printf("store close failed: %v", err)
	}
}
