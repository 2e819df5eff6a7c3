/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the billing engine HTTP server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and environment configuration
  2. Initialize SQLite store (schema auto-migrates)
  3. Create API handler with engine components
  4. Optionally start the platform sync scheduler
  5. Start server with graceful shutdown

CONFIGURATION (environment, .env supported):
  PORT           HTTP server port (default: 8080)
  DB_PATH        SQLite database path (default: terminal.db)
  LOG_LEVEL      zerolog level (default: info)
  SYNC_URL       Platform API base URL; empty disables sync
  SYNC_TOKEN     Platform API token
  SYNC_INTERVAL  Scheduler interval (default: 1h)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sync scheduler, waiting for an in-flight run
  4. Close database connection

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"github.com/cssswagchs/billing-engine/api"
	"github.com/cssswagchs/billing-engine/printsync"
	"github.com/cssswagchs/billing-engine/store/sqlite"
)

type config struct {
	Port         int           `envconfig:"PORT" default:"8080"`
	DBPath       string        `envconfig:"DB_PATH" default:"terminal.db"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`
	SyncURL      string        `envconfig:"SYNC_URL"`
	SyncToken    string        `envconfig:"SYNC_TOKEN"`
	SyncInterval time.Duration `envconfig:"SYNC_INTERVAL" default:"1h"`
}

func main() {
	// .env is optional; absence is the normal production case.
	_ = godotenv.Load()

	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db", cfg.DBPath).Msg("failed to initialize database")
	}
	defer store.Close()

	handler := api.NewHandler(store, log)

	// Platform sync is optional; the engine reads whatever the last sync
	// wrote even when no sync is configured here.
	var scheduler *printsync.Scheduler
	if cfg.SyncURL != "" {
		client := printsync.NewClient(cfg.SyncURL, cfg.SyncToken)
		runner := printsync.NewRunner(client, store, log)
		handler.Sync = runner

		scheduler = printsync.NewScheduler(runner, log)
		scheduler.Interval = cfg.SyncInterval
		scheduler.Start()
	}

	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	if scheduler != nil {
		scheduler.Stop()
	}

	log.Info().Msg("server stopped")
}
