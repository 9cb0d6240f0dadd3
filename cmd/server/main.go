package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grade-platform/internal/config"
	"grade-platform/internal/handlers"
	"grade-platform/internal/reload"
	"grade-platform/internal/repository"
	"grade-platform/internal/services"
	"grade-platform/pkg/database"
	"grade-platform/pkg/logging"
	"grade-platform/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("grade-api", version, logging.ParseLevel(cfg.Logging.Level))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "[STARTUP] Starting grade platform API server", logging.Fields{
		"version":     version,
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"data_source": cfg.Data.Source,
	})

	metricsCollector := metrics.NewCollector("grade_platform", prometheus.DefaultRegisterer)

	var opts []handlers.HandlerOption

	repo, db, err := openRepository(ctx, cfg, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to open crosswalk source", logging.Fields{
			"data_source": cfg.Data.Source,
		}, err)
	}
	if db != nil {
		defer db.Close()
		opts = append(opts, handlers.WithHealthCheck("database", db))
	}

	cache := repository.NewCachedRepository(repo)
	loader := services.NewScaleLoader(cache, logger, metricsCollector)

	svc, err := loader.Build(ctx, nil)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to build scale registry", logging.Fields{}, err)
	}
	holder := services.NewServiceHolder(svc)

	if cfg.Data.Watch {
		watcher, err := reload.New(cfg.Data.Path, loader, holder, logger, metricsCollector, reload.WithCache(cache))
		if err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to watch crosswalk", logging.Fields{
				"path": cfg.Data.Path,
			}, err)
		}
		defer watcher.Close()
		go watcher.Run(ctx)
	}

	gradeHandler := handlers.NewGradeHandler(holder, logger, metricsCollector, opts...)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handlers.NewRouter(gradeHandler, promhttp.Handler(), cfg.Server.CORSOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
			"scales":  len(svc.Scales()),
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	<-ctx.Done()

	logger.Info(context.Background(), "[SHUTDOWN] Shutting down server...", logging.Fields{})

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(shutdownCtx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}

// openRepository returns the configured crosswalk source. The database is
// returned when one was opened so the caller can close and health check it.
func openRepository(
	ctx context.Context,
	cfg *config.Config,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) (repository.GradeScaleRepository, *database.DB, error) {
	switch cfg.Data.Source {
	case config.SourceFile:
		repo, err := repository.Open(cfg.Data.Path, cfg.Data.Sheet)
		return repo, nil, err

	case config.SourceS3:
		client := repository.NewS3Client(cfg.Data.S3.ClientConfig())
		return repository.NewS3Repository(client, cfg.Data.S3.Bucket, cfg.Data.S3.Key, cfg.Data.Sheet), nil, nil

	case config.SourceSQL:
		db, err := database.Open(cfg.Database.Connection(), logger, metricsCollector)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewSQLRepository(db, logger, metricsCollector)
		if err := repo.Migrate(ctx, "up"); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repo, db, nil

	default:
		return repository.NewEmbeddedRepository(), nil, nil
	}
}
