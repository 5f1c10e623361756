/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the CPAP cost-share estimator server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (flags + CPAP_* environment)
  2. Initialize logging
  3. Open the SQLite fee schedule, seeding defaults when empty
  4. Create API handler and router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port       HTTP server port (default: 8080)
  -db         SQLite database path (default: cpap.db)
              Use ":memory:" for in-memory database
  -env        development (console logs) or production (JSON logs)
  -log-level  debug, info, warn, error
  -logo       PNG printed at the top of statements

ENVIRONMENT:
  CPAP_PORT, CPAP_DB, CPAP_ENV, CPAP_LOG_LEVEL, CPAP_LOGO,
  CPAP_ALLOWED_ORIGINS (comma-separated). Environment overrides flags.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/cpap.db"

  # Run with in-memory database and JSON logs
  CPAP_ENV=production ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration
  - store/sqlite/sqlite.go: Fee schedule storage
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/warp/cpap-estimator/api"
	"github.com/warp/cpap-estimator/catalog"
	"github.com/warp/cpap-estimator/config"
	"github.com/warp/cpap-estimator/logging"
	"github.com/warp/cpap-estimator/store/sqlite"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		reportConfigError(os.Stderr, err)
		os.Exit(2)
	}

	logging.Init("cpap-estimator", cfg.Env, cfg.LogLevel)

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db", cfg.DBPath).Msg("Failed to initialize database")
	}
	defer store.Close()

	if err := seedIfEmpty(context.Background(), store); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed fee schedule")
	}

	logo, err := cfg.LoadLogo()
	if err != nil {
		log.Warn().Err(err).Str("logo", cfg.LogoPath).Msg("Statements will print without a logo")
	}

	// Initialize handler and router
	handler := api.NewHandler(store, logo)
	router := api.NewRouter(handler, cfg.AllowedOrigins)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("address", server.Addr).Str("db", cfg.DBPath).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	log.Info().Msg("Server stopped")
}

// reportConfigError prints a configuration error unless the flag package
// already has.
func reportConfigError(w io.Writer, err error) {
	var usage *config.UsageError
	if errors.As(err, &usage) {
		return
	}
	fmt.Fprintln(w, err)
}

// seedIfEmpty loads the default fee schedule into a fresh database. An
// existing schedule, including operator edits, is left alone.
func seedIfEmpty(ctx context.Context, st catalog.Store) error {
	entries, err := st.ListItems(ctx)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return nil
	}
	log.Info().Msg("Empty fee schedule, loading defaults")
	return catalog.Seed(ctx, st)
}
