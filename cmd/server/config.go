package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/folio-api/internal/config"
)

// loadAppConfig loads configuration from the environment, .env and config.yaml.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"rate_limit_backend", cfg.RateLimit.Backend,
		"storage_backend", cfg.Storage.Backend,
		"mail_backend", cfg.Mail.Backend)

	if cfg.Server.Debug {
		slog.Warn("debug mode enabled: internal error details are exposed in responses")
	}

	return cfg, nil
}
