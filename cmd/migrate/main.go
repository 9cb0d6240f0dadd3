package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"grade-platform/internal/config"
	"grade-platform/internal/repository"
	"grade-platform/pkg/database"
	"grade-platform/pkg/logging"
	"grade-platform/pkg/metrics"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("grade-migrate", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	metricsCollector := metrics.NewCollector("grade_migrate", prometheus.NewRegistry())

	db, err := database.Open(cfg.Database.Connection(), logger, metricsCollector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Printf("Connected to %s database successfully\n", db.Driver())
	fmt.Printf("Running migration: %s\n", *direction)

	repo := repository.NewSQLRepository(db, logger, metricsCollector)
	if err := repo.Migrate(context.Background(), *direction); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute migration: %v\n", err)
		db.Close()
		os.Exit(1)
	}

	fmt.Println("Migration completed successfully")
}
