// Package audit records one durable row per split run: what was
// processed, how many regions were written, and how the run ended. It
// deliberately stops at the split step itself and leaves broader
// region-reassignment bookkeeping to other systems.
package audit

import (
	"context"
	"time"
)

// RunRecord is one row of the audit trail.
type RunRecord struct {
	RunID           string
	SrcDir          string
	RootDir         string
	StartedAt       time.Time
	FinishedAt      time.Time
	LogsProcessed   int
	LogsCorrupted   int
	RegionsWritten  int
	EditsApplied    int64
	FinalState      string // mirrors splitlog.runState's terminal value
	Err             string // empty on success
}

// Recorder persists RunRecords. NoopRecorder is used when no audit
// sink is configured, so callers never need to nil-check before
// recording.
type Recorder interface {
	RecordRun(ctx context.Context, rec RunRecord) error
	Close() error
}

// NoopRecorder discards every record.
type NoopRecorder struct{}

func (NoopRecorder) RecordRun(ctx context.Context, rec RunRecord) error { return nil }
func (NoopRecorder) Close() error                                      { return nil }

// NewRecorder returns a PostgresRecorder if dsn is non-empty, otherwise
// a NoopRecorder — the audit trail is optional and off by default.
func NewRecorder(ctx context.Context, dsn string) (Recorder, error) {
	if dsn == "" {
		return NoopRecorder{}, nil
	}
	return NewPostgresRecorder(ctx, dsn)
}
