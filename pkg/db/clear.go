package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const clearLogPrefix = "db:clear"

// ClearCatalog truncates the resolution catalog tables. Schema and the
// migration history are preserved.
func ClearCatalog(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info(fmt.Sprintf("%s - Clearing resolution catalog", clearLogPrefix))

	_, err := pool.Exec(ctx, `TRUNCATE TABLE mapper_resolutions, mapper_capabilities`)
	if err != nil {
		return fmt.Errorf("%s - truncate failed: %w", clearLogPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Resolution catalog cleared", clearLogPrefix))
	return nil
}
