package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationDir = "migrations"

var gooseOnce sync.Once
var gooseErr error

func setupGoose() error {
	gooseOnce.Do(func() {
		goose.SetBaseFS(migrationFiles)
		gooseErr = goose.SetDialect("postgres")
	})
	return gooseErr
}

// RunMigrations applies every pending embedded migration. A nil database is
// a no-op so memory-backed runs can call it unconditionally.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	return Migrate(ctx, database, "up")
}

// Migrate runs one goose command against the embedded migrations. Supported
// commands are up, down, status and version.
func Migrate(ctx context.Context, database *sql.DB, command string) error {
	if database == nil {
		return nil
	}
	if err := setupGoose(); err != nil {
		return fmt.Errorf("configure goose: %w", err)
	}

	switch command {
	case "up":
		return goose.UpContext(ctx, database, migrationDir)
	case "down":
		return goose.DownContext(ctx, database, migrationDir)
	case "status":
		return goose.StatusContext(ctx, database, migrationDir)
	case "version":
		return goose.VersionContext(ctx, database, migrationDir)
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}
