package ledger

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// MigrationCommands are the goose commands accepted by RunMigrations.
var MigrationCommands = []string{"up", "down", "status", "redo"}

// RunMigrations applies a goose command to the PostgreSQL ledger schema.
// The embedded migrations create the default user_credits table.
func RunMigrations(ctx context.Context, db *sql.DB, command string) error {
	if !validMigrationCommand(command) {
		return fmt.Errorf("unknown migration command %q", command)
	}

	migrationCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	slog.Info("running ledger migrations", "command", command)
	if err := goose.RunContext(migrationCtx, command, db, "migrations"); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

func validMigrationCommand(command string) bool {
	for _, c := range MigrationCommands {
		if c == command {
			return true
		}
	}
	return false
}
