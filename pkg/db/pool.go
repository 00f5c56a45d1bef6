// Package db persists the mapping service's resolution catalog in Postgres via pgx.
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const logPrefix = "db:pool"

// NewPool creates a new pgx connection pool from the given database URL.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	slog.Info(fmt.Sprintf("%s - Connecting to database", logPrefix))

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to parse database URL: %w", logPrefix, err)
	}

	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to create pool: %w", logPrefix, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s - failed to ping database: %w", logPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Database connection established", logPrefix))
	return pool, nil
}

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	name    TEXT PRIMARY KEY,
	applied TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// RunMigrations applies the migrations not yet recorded in schema_migrations,
// each in its own transaction. It returns the names it applied.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, migrations []Migration) ([]string, error) {
	if _, err := pool.Exec(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("%s - create schema_migrations: %w", logPrefix, err)
	}

	applied, err := appliedMigrations(ctx, pool)
	if err != nil {
		return nil, err
	}
	pending := pendingMigrations(migrations, applied)
	slog.Info(fmt.Sprintf("%s - Running %d of %d migrations", logPrefix, len(pending), len(migrations)))

	var done []string
	for _, m := range pending {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return done, fmt.Errorf("%s - begin %s: %w", logPrefix, m.Name, err)
		}
		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			_ = tx.Rollback(ctx)
			return done, fmt.Errorf("%s - migration %s failed: %w", logPrefix, m.Name, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, m.Name); err != nil {
			_ = tx.Rollback(ctx)
			return done, fmt.Errorf("%s - record %s: %w", logPrefix, m.Name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return done, fmt.Errorf("%s - commit %s: %w", logPrefix, m.Name, err)
		}
		done = append(done, m.Name)
	}

	slog.Info(fmt.Sprintf("%s - Migrations complete", logPrefix))
	return done, nil
}

// MigrationReport lists applied and pending migrations.
type MigrationReport struct {
	Applied []string
	Pending []string
}

// MigrationStatus compares the migration files in migrationPath with those
// recorded in the database.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool, migrationPath string) (*MigrationReport, error) {
	const statusLogPrefix = "db:MigrationStatus"

	files, err := LoadMigrationFiles(migrationPath)
	if err != nil {
		return nil, fmt.Errorf("%s - load migration list: %w", statusLogPrefix, err)
	}

	var exists bool
	err = pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = 'schema_migrations')`).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to check schema: %w", statusLogPrefix, err)
	}

	applied := map[string]bool{}
	if exists {
		if applied, err = appliedMigrations(ctx, pool); err != nil {
			return nil, err
		}
	}

	report := &MigrationReport{}
	for _, m := range files {
		if applied[m.Name] {
			report.Applied = append(report.Applied, m.Name)
		} else {
			report.Pending = append(report.Pending, m.Name)
		}
	}
	return report, nil
}

// MigrationDown rolls back the last migration. Migrations are forward-only,
// so this only prints a message.
func MigrationDown(_ context.Context, _ *pgxpool.Pool, _ string) error {
	fmt.Println("Migration down: not supported (migrations are forward-only). Use a database backup to roll back.")
	return nil
}

func appliedMigrations(ctx context.Context, pool *pgxpool.Pool) (map[string]bool, error) {
	rows, err := pool.Query(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("%s - list applied migrations: %w", logPrefix, err)
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%s - scan migration: %w", logPrefix, err)
		}
		applied[name] = true
	}
	return applied, rows.Err()
}
