// Package main implements the entry point for the Folio API server, which
// serves accounts, posts, comments, moderation and webhook integrations.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
)

func main() {
	migrateCmd := flag.String("migrate", "", "Run a migration command: up|down|status|reset|version|redo")
	verbose := flag.Bool("verbose", false, "Log migration details")
	flag.Parse()

	if err := run(context.Background(), *migrateCmd, *verbose); err != nil {
		log.Printf("folio-api: %v", err)
		os.Exit(1)
	}
}

// run loads configuration, then either applies migrations or serves HTTP.
func run(ctx context.Context, migrateCmd string, verbose bool) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		// Setup already fell back to info; keep going.
		slog.Warn("continuing with default log level", "error", err)
	}

	db, err := setupAppDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		defer func() { _ = db.Close() }()
		return handleMigrations(ctx, db, logger, migrateCmd, verbose)
	}

	app, err := newApplication(ctx, cfg, logger, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
