// Package cli consolidates process startup shared by cmd/tally and
// cmd/tally-worker.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"tally/internal/config"
	applog "tally/internal/log"
)

// SetupLogger builds the process logger and installs it as the slog
// default so library code logging through slog carries the same handler.
func SetupLogger(component string) *applog.Logger {
	logger := applog.New(applog.DefaultConfig()).WithComponent(component)
	applog.SetDefault(logger)
	return logger
}

// LoadEnv loads the .env file for local development. Missing files are
// fine; production deployments configure through real environment.
func LoadEnv() {
	_ = godotenv.Load()
}

// MustConfig loads and validates configuration, exiting on failure.
func MustConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}
