package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/folio-api/internal/platform/postgres"
)

// migrationCommands are the goose commands that work against the embedded
// migration set. "create" is absent because it needs a writable directory.
var migrationCommands = map[string]bool{
	"up":        true,
	"up-by-one": true,
	"down":      true,
	"redo":      true,
	"reset":     true,
	"status":    true,
	"version":   true,
}

// handleMigrations runs one goose command and exits without serving.
func handleMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger, command string, verbose bool) error {
	if !migrationCommands[command] {
		return fmt.Errorf("unknown migration command %q", command)
	}

	logger.Info("Executing migrations", "command", command, "verbose", verbose)
	if err := postgres.Migrate(ctx, db, command, logger); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Migrations completed", "command", command)
	return nil
}
