package audit

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// PostgresRecorder writes RunRecords to a Postgres table through a
// connection pool, applying an embedded schema on connect.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder connects to dsn, applies schemaSQL, and returns a
// ready recorder.
func NewPostgresRecorder(ctx context.Context, dsn string) (*PostgresRecorder, error) {
	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: parse DSN: %w", err)
	}
	poolCfg.MaxConns = 5
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(connCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("audit: create pool: %w", err)
	}
	if err := pool.Ping(connCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("audit: ping database: %w", err)
	}
	if _, err := pool.Exec(connCtx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("audit: apply schema: %w", err)
	}

	return &PostgresRecorder{pool: pool}, nil
}

// RecordRun upserts rec by run ID, so a retried record overwrites
// rather than duplicates.
func (r *PostgresRecorder) RecordRun(ctx context.Context, rec RunRecord) error {
	const query = `
		INSERT INTO split_run_history (
			run_id, src_dir, root_dir, started_at, finished_at,
			logs_processed, logs_corrupted, regions_written, edits_applied,
			final_state, error
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (run_id) DO UPDATE SET
			finished_at     = EXCLUDED.finished_at,
			logs_processed  = EXCLUDED.logs_processed,
			logs_corrupted  = EXCLUDED.logs_corrupted,
			regions_written = EXCLUDED.regions_written,
			edits_applied   = EXCLUDED.edits_applied,
			final_state     = EXCLUDED.final_state,
			error           = EXCLUDED.error
	`
	var errText *string
	if rec.Err != "" {
		errText = &rec.Err
	}
	_, err := r.pool.Exec(ctx, query,
		rec.RunID, rec.SrcDir, rec.RootDir, rec.StartedAt, rec.FinishedAt,
		rec.LogsProcessed, rec.LogsCorrupted, rec.RegionsWritten, rec.EditsApplied,
		rec.FinalState, errText,
	)
	if err != nil {
		return fmt.Errorf("audit: record run %s: %w", rec.RunID, err)
	}
	return nil
}

// Close releases the connection pool.
func (r *PostgresRecorder) Close() error {
	r.pool.Close()
	return nil
}
