package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"grade-platform/internal/config"
	"grade-platform/internal/repository"
	"grade-platform/internal/services"
	"grade-platform/pkg/database"
	"grade-platform/pkg/logging"
	"grade-platform/pkg/metrics"
)

func main() {
	// Parse command-line flags
	file := flag.String("file", "", "Crosswalk CSV or XLSX file (default: bundled crosswalk)")
	sheet := flag.String("sheet", "", "Worksheet to read from an XLSX file (default: first sheet)")
	migrate := flag.Bool("migrate", true, "Apply the schema before importing")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("grade-ingester", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[INGESTER_START] Starting crosswalk import", logging.Fields{
		"version": "1.0.0",
		"file":    *file,
		"sheet":   *sheet,
		"driver":  cfg.Database.Driver,
	})

	metricsCollector := metrics.NewCollector("grade_ingester", prometheus.NewRegistry())

	db, err := database.Open(cfg.Database.Connection(), logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	store := repository.NewSQLRepository(db, logger, metricsCollector)
	if *migrate {
		if err := store.Migrate(ctx, "up"); err != nil {
			logger.Fatal(ctx, "[INGESTER_ERROR] Failed to apply schema", logging.Fields{}, err)
		}
	}

	var src *repository.TableRepository
	if *file == "" {
		src = repository.NewEmbeddedRepository()
	} else if src, err = repository.Open(*file, *sheet); err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to open crosswalk", logging.Fields{"file": *file}, err)
	}

	defs, err := services.NewScaleLoader(src, logger, metricsCollector).Definitions(ctx)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to read crosswalk columns", logging.Fields{}, err)
	}

	importService := services.NewImportService(store, logger, metricsCollector)
	result, err := importService.Import(ctx, src.Source(), src, defs)
	if result == nil {
		logger.Fatal(ctx, "[INGESTION_ERROR] Import failed", logging.Fields{}, err)
	}

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("IMPORT COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Run ID:             %s\n", result.RunID)
	fmt.Printf("Source:             %s\n", result.Source)
	fmt.Printf("Imported Scales:    %d (%s)\n", len(result.Imported), strings.Join(result.Imported, ", "))
	fmt.Printf("Skipped Scales:     %d\n", len(result.Skipped))
	fmt.Printf("Total Cells:        %d\n", result.TotalCells)
	fmt.Printf("Duration:           %v\n", result.Duration)

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(result.Errors))
		for i, errMsg := range result.Errors {
			if i < 10 {
				fmt.Printf("  - %s\n", errMsg)
			}
		}
		if len(result.Errors) > 10 {
			fmt.Printf("  ... and %d more errors\n", len(result.Errors)-10)
		}
	}

	if err != nil {
		logger.Fatal(ctx, "[INGESTION_ERROR] Import failed", logging.Fields{
			"run_id": result.RunID,
		}, err)
	}

	logger.Info(ctx, "[INGESTER_COMPLETE] Import completed successfully", logging.Fields{
		"run_id":           result.RunID,
		"imported":         len(result.Imported),
		"total_cells":      result.TotalCells,
		"duration_seconds": result.Duration.Seconds(),
	})
}
