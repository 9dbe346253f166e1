/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the benefits reconciliation server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from the environment
  2. Initialize SQLite store
  3. Build the rule registry, engine and queue driver
  4. Start the in-process scan scheduler (if enabled)
  5. Start the HTTP server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scan scheduler
  4. Close the database connection
  5. Exit

ENVIRONMENT:
  HTTP_ADDR          Listen address (default :8080)
  DB_PATH            SQLite database path (default benefits.db)
  SCAN_BATCH_SIZE    Jobs per scheduler batch (default 10)
  SCAN_INTERVAL      Scheduler cadence (default 1h)
  STALE_CLAIM_AGE    Age before a processing claim is reclaimed (default 15m)
  SCAN_MAX_ATTEMPTS  Attempt cap for requeue-failed (default 3)
  SCHEDULER_ENABLED  Run the in-process scheduler (default true)

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/benefits-engine/api"
	"github.com/warp/benefits-engine/config"
	"github.com/warp/benefits-engine/eligibility"
	"github.com/warp/benefits-engine/factory"
	"github.com/warp/benefits-engine/scanqueue"
	"github.com/warp/benefits-engine/store/sqlite"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalw("failed to load configuration", "error", err)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err, "path", cfg.DBPath)
	}
	defer store.Close()

	registry := eligibility.DefaultRegistry()
	engine := eligibility.NewEngine(store, store, store, registry)
	driver := scanqueue.NewDriver(store, engine, logger)
	policyFactory := factory.NewPolicyFactory(registry)

	handler := api.NewHandler(store, store, engine, driver, policyFactory, cfg.ScanMaxAttempts, sugar)
	router := api.NewRouter(handler)

	scheduler := api.NewScanScheduler(store, driver, cfg.ScanInterval, cfg.StaleClaimAge, cfg.ScanBatchSize, logger)
	if cfg.SchedulerEnabled {
		scheduler.Start()
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sugar.Infow("server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sugar.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		sugar.Errorw("forced shutdown", "error", err)
	}
	if cfg.SchedulerEnabled {
		scheduler.Stop()
	}

	sugar.Info("server stopped")
}
