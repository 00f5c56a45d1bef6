package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoLogPrefix = "db:repository"

// Repository provides database access for the resolution catalog.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// RecordResolutionParams holds parameters for RecordResolution.
type RecordResolutionParams struct {
	Service         string
	SourceType      string
	DestinationType string
	Capability      string
	Operation       string
}

// RecordResolution inserts the pair or, when the service already resolved it
// (e.g. before a restart), bumps its count and last_resolved.
func (r *Repository) RecordResolution(ctx context.Context, params RecordResolutionParams) (*Resolution, error) {
	slog.Debug(fmt.Sprintf("%s - RecordResolution %s -> %s", repoLogPrefix, params.SourceType, params.DestinationType))

	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO mapper_resolutions (service, source_type, destination_type, capability, operation, first_resolved, last_resolved)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (service, source_type, destination_type) DO UPDATE SET
		   capability = EXCLUDED.capability,
		   operation = EXCLUDED.operation,
		   resolve_count = mapper_resolutions.resolve_count + 1,
		   last_resolved = EXCLUDED.last_resolved
		 RETURNING id, service, source_type, destination_type, capability, operation,
		           resolve_count, first_resolved, last_resolved`,
		params.Service, params.SourceType, params.DestinationType, params.Capability, params.Operation, now)

	res, err := scanResolution(row)
	if err != nil {
		return nil, fmt.Errorf("%s - RecordResolution failed: %w", repoLogPrefix, err)
	}
	return res, nil
}

// ListResolutionsParams holds parameters for ListResolutions.
type ListResolutionsParams struct {
	Service string
	// Limit defaults to 100.
	Limit int
}

// ListResolutions lists a service's resolutions, most recent first.
func (r *Repository) ListResolutions(ctx context.Context, params ListResolutionsParams) ([]Resolution, error) {
	limit := params.Limit
	if limit < 1 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, service, source_type, destination_type, capability, operation,
		        resolve_count, first_resolved, last_resolved
		 FROM mapper_resolutions
		 WHERE service = $1
		 ORDER BY last_resolved DESC, source_type, destination_type
		 LIMIT $2`, params.Service, limit)
	if err != nil {
		return nil, fmt.Errorf("%s - ListResolutions failed: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	var out []Resolution
	for rows.Next() {
		res, err := scanResolution(rows)
		if err != nil {
			return nil, fmt.Errorf("%s - ListResolutions scan: %w", repoLogPrefix, err)
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// RecordCapabilityParams holds parameters for RecordCapability.
type RecordCapabilityParams struct {
	Service         string
	Capability      string
	SourceType      string
	DestinationType string
	Lifetime        string
}

// RecordCapability upserts a registered capability. Re-registering bumps its
// revision.
func (r *Repository) RecordCapability(ctx context.Context, params RecordCapabilityParams) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO mapper_capabilities (service, capability, source_type, destination_type, lifetime, created, modified)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (service, capability) DO UPDATE SET
		   lifetime = EXCLUDED.lifetime,
		   revision = mapper_capabilities.revision + 1,
		   modified = EXCLUDED.modified`,
		params.Service, params.Capability, params.SourceType, params.DestinationType, params.Lifetime, now)
	if err != nil {
		return fmt.Errorf("%s - RecordCapability failed: %w", repoLogPrefix, err)
	}
	return nil
}

// ListCapabilities lists a service's recorded capabilities ordered by name.
func (r *Repository) ListCapabilities(ctx context.Context, service string) ([]CapabilityRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT service, capability, source_type, destination_type, lifetime, revision, created, modified
		 FROM mapper_capabilities
		 WHERE service = $1
		 ORDER BY capability`, service)
	if err != nil {
		return nil, fmt.Errorf("%s - ListCapabilities failed: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	var out []CapabilityRecord
	for rows.Next() {
		var c CapabilityRecord
		if err := rows.Scan(&c.Service, &c.Capability, &c.SourceType, &c.DestinationType,
			&c.Lifetime, &c.Revision, &c.Created, &c.Modified); err != nil {
			return nil, fmt.Errorf("%s - ListCapabilities scan: %w", repoLogPrefix, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanResolution(row pgx.Row) (*Resolution, error) {
	var res Resolution
	err := row.Scan(&res.ID, &res.Service, &res.SourceType, &res.DestinationType,
		&res.Capability, &res.Operation, &res.ResolveCount, &res.FirstResolved, &res.LastResolved)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
