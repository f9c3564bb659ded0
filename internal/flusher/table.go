package flusher

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/regiondb/walsplit/internal/logging"
	"github.com/regiondb/walsplit/internal/regionfile"
	"github.com/regiondb/walsplit/internal/wal"
	"github.com/regiondb/walsplit/internal/walfs"
)

// WriterTable is the run-wide set of region writers, guarded by a
// single mutex the way a shared in-flight map is guarded elsewhere in
// this codebase. At most one regionfile.Writer is ever created per
// region for the life of a run, enforced by getOrCreate being the only
// way in.
type WriterTable struct {
	mu      sync.Mutex
	fs      walfs.Filesystem
	rootDir string
	logger  *slog.Logger
	writers map[wal.RegionKey]*regionfile.Writer
}

// NewWriterTable returns an empty table rooted at rootDir.
func NewWriterTable(fs walfs.Filesystem, rootDir string, logger *slog.Logger) *WriterTable {
	return &WriterTable{
		fs:      fs,
		rootDir: rootDir,
		logger:  logger,
		writers: make(map[wal.RegionKey]*regionfile.Writer),
	}
}

// getOrCreate returns the writer for key, creating it under a single
// locked critical section if this is the first time key is seen.
func (t *WriterTable) getOrCreate(ctx context.Context, key wal.RegionKey) (*regionfile.Writer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if w, ok := t.writers[key]; ok {
		return w, nil
	}
	regionLogger := logging.RegionLogger(logging.CorrelationID(ctx), key.Table, key.Region)
	w, err := regionfile.Create(ctx, t.fs, t.rootDir, key, regionLogger)
	if err != nil {
		return nil, err
	}
	t.writers[key] = w
	regionLogger.Info("created region writer", "path", regionfile.Path(t.rootDir, key))
	return w, nil
}

// Len reports how many region writers have been opened so far.
func (t *WriterTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.writers)
}

// Paths returns the recovered-edits path of every writer opened during
// the run, sorted by region key for deterministic reporting.
func (t *WriterTable) Paths() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys := make([]wal.RegionKey, 0, len(t.writers))
	for k := range t.writers {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	paths := make([]string, 0, len(keys))
	for _, k := range keys {
		paths = append(paths, regionfile.Path(t.rootDir, k))
	}
	return paths
}

// CloseAll closes every writer opened during the run, collecting
// errors rather than stopping at the first one — every recovered-edits
// file that can be safely closed should be, regardless of whether a
// sibling region's writer failed.
func (t *WriterTable) CloseAll() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	for key, w := range t.writers {
		if err := w.Close(); err != nil {
			t.logger.Error("closing region writer", "table", key.Table, "region", key.Region, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
