// Package cli provides common initialization utilities shared by
// cmd/findash, cmd/findash-worker, and cmd/findash-export.
package cli

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"findash/internal/backend"
	"findash/internal/config"
	applog "findash/internal/log"
	"findash/internal/store"
)

// SetupLogger initializes structured logging with default settings.
// Returns the configured logger and sets it as the default logger.
func SetupLogger() *applog.Logger {
	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenStore builds the configured persister and loads the store from it.
// Returns the store and its cleanup, or exits the process on failure.
func OpenStore(ctx context.Context, logger *applog.Logger, cfg *config.Config) (*store.Store, backend.CleanupFunc) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger.Logger).CreatePersister(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	st, err := store.Open(ctx, result.Persister)
	if err != nil {
		logger.Error("Failed to load store", "error", err)
		if result.Cleanup != nil {
			_ = result.Cleanup()
		}
		os.Exit(1)
	}
	return st, result.Cleanup
}
