package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/Kjdragan/universal-agent-sub000/config"
)

// InitLogger initializes the structured logger.
func InitLogger() *slog.Logger {
	return newLogger(slog.LevelInfo)
}

// InitDebugLogger rebuilds the logger at debug level. Called once
// configuration is loaded and dev mode is on; debug level surfaces the
// stream client's dropped-payload and relay diagnostics.
func InitDebugLogger() *slog.Logger {
	return newLogger(slog.LevelDebug)
}

func newLogger(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}
