// Package main is the entrypoint for mapperd, the type-pair mapping service.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"

	"github.com/morezero/type-mapper/internal/config"
	"github.com/morezero/type-mapper/internal/server"
	"github.com/morezero/type-mapper/pkg/db"
)

const usage = `Usage: mapperd [command]
       mapperd serve              Start the mapping service (COMMS, HTTP health).
       mapperd migrate up         Run database migrations.
       mapperd migrate down       Roll back one migration (migrations are forward-only).
       mapperd migrate status     Show migration status.
       mapperd ensure-db [name]   Create database if missing (default name: mapper_test). Uses DATABASE_URL host/user.
       mapperd clear              Truncate the resolution catalog; schema is preserved.

Commands:
  serve            (default) Start the mapping service.
  migrate up       Run database migrations only.
  migrate down     Roll back last migration (not supported; prints a notice).
  migrate status   Show applied and pending migrations.
  ensure-db [name] Create database (e.g. mapper_test) on same host as DATABASE_URL.
  clear            Truncate resolution catalog tables.
  help             Show this message.

Environment: COMMS_URL, DATABASE_URL (optional for serve), MIGRATION_PATH, MAPPER_HTTP_ADDR,
MAPPER_BOOTSTRAP_FILE, LOG_LEVEL. See README.
`

const defaultEnsureDBName = "mapper_test"

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("mapperd migrate: require subcommand (up, down, status)")
		}
		if err := runMigrate(args[1]); err != nil {
			log.Fatalf("mapperd migrate %s: %v", args[1], err)
		}
		return
	case "clear":
		if err := runClear(); err != nil {
			log.Fatalf("mapperd clear: %v", err)
		}
		return
	case "ensure-db":
		dbName := defaultEnsureDBName
		if len(args) > 1 && args[1] != "" {
			dbName = args[1]
		}
		if err := runEnsureDB(dbName); err != nil {
			log.Fatalf("mapperd ensure-db: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
		// serve (explicit or default)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("mapperd: %v", err)
	}
}

// loadDBConfig loads config, applies LOG_LEVEL and requires DATABASE_URL.
func loadDBConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	if err := cfg.ValidateForDB(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runMigrate(sub string) error {
	switch sub {
	case "up", "down", "status":
	default:
		return fmt.Errorf("unknown subcommand %q (use up, down, status)", sub)
	}

	cfg, err := loadDBConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	switch sub {
	case "down":
		return db.MigrationDown(ctx, pool, cfg.MigrationPath)
	case "status":
		report, err := db.MigrationStatus(ctx, pool, cfg.MigrationPath)
		if err != nil {
			return err
		}
		printMigrationReport(report)
		return nil
	}

	migrations, err := db.LoadMigrationFiles(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	applied, err := db.RunMigrations(ctx, pool, migrations)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	fmt.Printf("Applied %d migration(s).\n", len(applied))
	for _, name := range applied {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

func printMigrationReport(report *db.MigrationReport) {
	fmt.Printf("Applied: %d\n", len(report.Applied))
	for _, name := range report.Applied {
		fmt.Printf("  [x] %s\n", name)
	}
	fmt.Printf("Pending: %d\n", len(report.Pending))
	for _, name := range report.Pending {
		fmt.Printf("  [ ] %s\n", name)
	}
}

func runClear() error {
	cfg, err := loadDBConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := db.ClearCatalog(ctx, pool); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}
	return nil
}

func runEnsureDB(dbName string) error {
	cfg, err := loadDBConfig()
	if err != nil {
		return err
	}
	targetURL, err := databaseURLFor(cfg.DatabaseURL, dbName)
	if err != nil {
		return err
	}
	if err := db.EnsureDatabase(context.Background(), targetURL); err != nil {
		return err
	}
	fmt.Printf("Database %q is ready.\n", dbName)
	return nil
}

// databaseURLFor replaces the database name in databaseURL; the query (e.g. sslmode) is kept.
func databaseURLFor(databaseURL, dbName string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	u.Path = "/" + dbName
	return u.String(), nil
}
