package main

import (
	"flag"
	"log"
	"os"

	"myfinance-backend/internal/config"
	"myfinance-backend/internal/ledger"
	"myfinance-backend/internal/scanner"
	"myfinance-backend/internal/server"
	"myfinance-backend/internal/store/postgres"
)

func main() {
	// Check for migrate command
	migrateCmd := flag.Bool("migrate", false, "Create the database schema and exit")
	seedDemoCmd := flag.Bool("seed-demo", false, "Seed demo budget, wallets and transactions (idempotent)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize the store; the process exits rather than serving with a
	// dead database handle.
	store, err := postgres.Open(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	if *migrateCmd {
		if err := store.Setup(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migration completed successfully")
		os.Exit(0)
	}
	if *seedDemoCmd {
		if err := store.SeedDemoData(); err != nil {
			log.Fatalf("Seeding demo data failed: %v", err)
		}
		log.Println("Demo data seeded")
		os.Exit(0)
	}

	// Initialize Redis
	cache, err := server.NewCache(cfg.Redis.URL)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis: %v", err)
		log.Println("Continuing without Redis cache...")
		cache = nil
	}

	var extractor scanner.Extractor
	if cfg.Scanner.Processor != "" {
		extractor = scanner.NewDocumentAI(scanner.DocumentAIConfig{
			Endpoint:  cfg.Scanner.Endpoint,
			Project:   cfg.Scanner.Project,
			Location:  cfg.Scanner.Location,
			Processor: cfg.Scanner.Processor,
			Token:     cfg.Scanner.Token,
		})
	} else {
		log.Println("Scanner processor not configured; /scan-receipt will report it as unavailable")
	}

	svc := ledger.NewService(store)
	srv := server.New(svc, cache, extractor, store)
	r := srv.Router()

	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
