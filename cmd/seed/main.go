package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"grievancedesk/internal/bootstrap"
	"grievancedesk/internal/config"
	"grievancedesk/internal/service"
)

func main() {
	log.Println("Starting seed script...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	stores, err := bootstrap.OpenStores(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer stores.Close(ctx)
	log.Printf("Connected to %s database", stores.Driver)

	op := service.NewOperatorService(stores.Users, stores.Departments)

	created, err := op.SeedDepartments(ctx, service.DefaultDepartments)
	if err != nil {
		log.Fatalf("Failed to seed departments: %v", err)
	}
	log.Printf("Seed completed successfully!")
	log.Printf("  - Departments created: %d", created)
	log.Printf("  - Already present: %d", len(service.DefaultDepartments)-created)
}
