package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/skillnavigator/roadmap-service/config"
	"github.com/skillnavigator/roadmap-service/internal/bootstrap"
	"github.com/skillnavigator/roadmap-service/internal/logging"
	"github.com/skillnavigator/roadmap-service/internal/roadmap/ledger"
)

func main() {
	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		fmt.Println("Error: migration command is required")
		fmt.Println("Usage: go run ./cmd/migrate [command]")
		fmt.Println("Commands: " + strings.Join(ledger.MigrationCommands, ", "))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(os.Stdout, cfg.SlogLevel())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.Ledger.DSN})
	if err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
	db := bootstrap.SQLDB(pool)
	defer pool.Close()
	defer db.Close()

	if err := ledger.RunMigrations(ctx, db, args[0]); err != nil {
		slog.Error("migration failed", "command", args[0], "error", err)
		os.Exit(1)
	}

	fmt.Println("Migration finished successfully")
}
