// Package regionfile creates and writes the per-region recovered-edits
// file a split run produces for each region touched by a dead server's
// logs.
package regionfile

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/regiondb/walsplit/internal/wal"
	"github.com/regiondb/walsplit/internal/walfs"
)

// recoveredEditsName is the fixed filename every region's split output
// is written under, mirroring recovered.edits from the original
// implementation.
const recoveredEditsName = "recovered.edits"

// Path returns the recovered-edits path for region under rootDir:
// rootDir/table/region/recovered.edits. Region names are raw bytes, so
// they're hex-encoded into a filesystem-safe directory component.
func Path(rootDir string, key wal.RegionKey) string {
	return filepath.Join(rootDir, key.Table, hex.EncodeToString([]byte(key.Region)), recoveredEditsName)
}

// Writer wraps a wal.Writer bound to one region's recovered-edits file.
// Close is idempotent: closing an already-closed Writer is a no-op,
// matching walfs's own close-is-a-no-op shape.
type Writer struct {
	path   string
	handle io.WriteCloser
	wal    *wal.Writer
	closed bool
}

// Append writes e through to the underlying recovered-edits file.
func (w *Writer) Append(e wal.Entry) error {
	if err := w.wal.Append(e); err != nil {
		return fmt.Errorf("regionfile: append to %s: %w", w.path, err)
	}
	return nil
}

// Close flushes and closes the underlying file handle. Safe to call
// more than once.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.handle.Close()
}

// Create opens a fresh recovered-edits writer for key under rootDir. If
// a file already exists at that path — most commonly a stale artifact
// of a previous, incomplete split attempt — it's deleted and its prior
// size logged, then recreated empty, giving every split run the same
// idempotence guarantee regardless of what an earlier attempt left
// behind.
func Create(ctx context.Context, fs walfs.Filesystem, rootDir string, key wal.RegionKey, logger *slog.Logger) (*Writer, error) {
	path := Path(rootDir, key)

	if existed, err := fs.Exists(ctx, path); err != nil {
		return nil, fmt.Errorf("regionfile: check existing %s: %w", path, err)
	} else if existed {
		size := int64(-1)
		if entries, err := fs.List(ctx, filepath.Dir(path)); err == nil {
			for _, e := range entries {
				if e.Path == path {
					size = e.Size
				}
			}
		}
		logger.Warn("overwriting stale recovered-edits file", "path", path, "prior_size_bytes", size)
		if err := fs.Delete(ctx, path); err != nil {
			return nil, fmt.Errorf("regionfile: remove stale %s: %w", path, err)
		}
	}

	handle, err := fs.OpenAppendWriter(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("regionfile: create %s: %w", path, err)
	}

	return &Writer{
		path:   path,
		handle: handle,
		wal:    wal.NewWriter(handle),
	}, nil
}
