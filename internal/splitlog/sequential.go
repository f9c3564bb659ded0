package splitlog

import (
	"github.com/regiondb/walsplit/internal/audit"
	"github.com/regiondb/walsplit/internal/config"
	"github.com/regiondb/walsplit/internal/metrics"
	"github.com/regiondb/walsplit/internal/walfs"
)

// SequentialSplitter is the pluggable variant that runs alongside the
// streaming one: one file parsed and flushed at a time, no concurrency
// within or across regions. It's a StreamingSplitter pinned to batch
// size 1 and a single writer thread rather than a second copy of the
// algorithm — the batching and worker-pool bound are the only axes on
// which the two variants differ.
type SequentialSplitter struct {
	*StreamingSplitter
}

// NewSequentialSplitter returns a Splitter that processes one log at a
// time.
func NewSequentialSplitter(fs walfs.Filesystem, cfg config.SplitterConfig, m *metrics.Metrics, rec audit.Recorder) *SequentialSplitter {
	cfg.BatchSize = 1
	cfg.WriterThreads = 1
	return &SequentialSplitter{StreamingSplitter: NewStreamingSplitter(fs, cfg, m, rec)}
}
