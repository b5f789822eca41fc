// Package cli provides common initialization and terminal helpers shared by
// the floo commands.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"floo/internal/config"
	"floo/internal/log"
)

// SetupLogger initializes structured logging and sets it as the default.
// The CLI writes its data to stdout, so logs go to stderr.
func SetupLogger() *log.Logger {
	logger := log.New(log.Config{
		Component: log.ComponentApp,
		Handler: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel(),
		}),
	})
	log.SetDefault(logger)
	return logger
}

func logLevel() slog.Level {
	switch os.Getenv("FLOO_LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg
}
