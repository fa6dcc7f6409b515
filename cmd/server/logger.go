package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/folio-api/internal/config"
	"github.com/phrazzld/folio-api/internal/platform/logger"
)

// setupAppLogger installs the JSON logger as the slog default. On an invalid
// level it still returns a usable logger alongside the error.
func setupAppLogger(cfg *config.Config) (*slog.Logger, error) {
	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return l, fmt.Errorf("failed to set up logger: %w", err)
	}
	return l, nil
}
