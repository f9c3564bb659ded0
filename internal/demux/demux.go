// Package demux groups WAL entries by the region they belong to and
// slices a directory listing into fixed-size batches for the split
// orchestrator to work through.
package demux

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/regiondb/walsplit/internal/wal"
	"github.com/regiondb/walsplit/internal/walfs"
)

// Map holds every entry seen so far, grouped by region, in first-seen
// key order. Go has no ordered map type; a plain map plus a key slice
// is the whole of what's needed here; see DESIGN.md for why no
// third-party ordered container was pulled in for this.
type Map struct {
	entries map[wal.RegionKey][]wal.Entry
	keys    []wal.RegionKey
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{entries: make(map[wal.RegionKey][]wal.Entry)}
}

// Add appends e to its region's slice, recording the key the first
// time it's seen.
func (m *Map) Add(e wal.Entry) {
	key := e.Key()
	if _, ok := m.entries[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.entries[key] = append(m.entries[key], e)
}

// Keys returns every region key present, in first-seen order.
func (m *Map) Keys() []wal.RegionKey {
	return m.keys
}

// Entries returns the entries collected for key, in append order.
func (m *Map) Entries(key wal.RegionKey) []wal.Entry {
	return m.entries[key]
}

// Len reports how many distinct regions are present.
func (m *Map) Len() int {
	return len(m.keys)
}

// TotalEntries reports how many entries are held across all regions.
func (m *Map) TotalEntries() int {
	var n int
	for _, key := range m.keys {
		n += len(m.entries[key])
	}
	return n
}

// Merge appends every entry in other into m, in other's per-region
// append order, extending m's key-order list with any region keys
// other introduces that m hasn't seen yet. Callers fold one file's
// parsed entries into a batch-wide map this way, only after the file
// has parsed in full, so a file that fails partway through never
// contributes a partial region history to the batch.
func (m *Map) Merge(other *Map) {
	for _, key := range other.keys {
		for _, e := range other.entries[key] {
			m.Add(e)
		}
	}
}

// Parse drains r into into, one entry at a time, stopping at io.EOF. A
// non-EOF error (most commonly wal.ErrCorrupt) is returned to the
// caller, which decides — per its own parse-skip-errors setting —
// whether to abort the split or discard the whole log, including
// whatever was parsed into into before the failure.
func Parse(ctx context.Context, r *wal.Reader, into *Map) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("demux: parse: %w", err)
		}
		into.Add(e)
	}
}

// NewBatches splits files into groups of at most size, preserving
// their input order. size must be at least 1.
func NewBatches(files []walfs.FileInfo, size int) [][]walfs.FileInfo {
	if size < 1 {
		size = 1
	}
	if len(files) == 0 {
		return nil
	}
	var batches [][]walfs.FileInfo
	for start := 0; start < len(files); start += size {
		end := start + size
		if end > len(files) {
			end = len(files)
		}
		batches = append(batches, files[start:end])
	}
	return batches
}
