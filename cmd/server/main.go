/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the worklog planning server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, load optional YAML config
  2. Initialize SQLite store
  3. Create API handler with dependencies
  4. Configure HTTP router
  5. Start the background recalculation scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: from config, 8080)
  -db      SQLite database path (default: from config, plans.db)
           Use ":memory:" for in-memory database
  -config  Path to a YAML config file (optional)
  -demo    Seed demo period settings and team on startup

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/plans.db"

  # Run with config file and demo data
  ./server -config=config.yaml -demo

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/worklog-engine/api"
	"github.com/warp/worklog-engine/config"
	"github.com/warp/worklog-engine/store/sqlite"
	"github.com/warp/worklog-engine/tracker"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "path to YAML config file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	demo := flag.Bool("demo", false, "seed demo period settings and team")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	log := config.NewLogger(cfg)

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer store.Close()

	// Team roster lives in memory until a real tracker integration
	// replaces it.
	team := tracker.NewMemory()

	// Initialize handler
	handler := api.NewHandler(store, log)

	if *demo {
		if err := api.SeedDemo(context.Background(), store, team, log); err != nil {
			log.Fatal().Err(err).Msg("failed to seed demo data")
		}
	}

	// Background recalculation
	scheduler := api.NewPlanScheduler(store, team, log, cfg.RecalcCron)
	if cfg.RecalcCron != "" {
		if err := scheduler.Start(); err != nil {
			log.Fatal().Err(err).Str("spec", cfg.RecalcCron).Msg("failed to start scheduler")
		}
	}

	// Create router
	router := api.NewRouter(handler, cfg)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Int("port", cfg.Port).Msgf("server starting on http://localhost:%d", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
