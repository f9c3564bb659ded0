// Package flusher drains a demultiplexed batch of WAL entries into
// per-region recovered-edits writers, bounded to a configured number
// of concurrent writer threads.
package flusher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/regiondb/walsplit/internal/demux"
	"github.com/regiondb/walsplit/internal/logging"
	"github.com/regiondb/walsplit/internal/metrics"
)

// progressInterval is the quiescence-polling cadence, repurposed here
// as a periodic progress log line while the worker group is
// outstanding.
const progressInterval = 5 * time.Second

// Flush submits one task per region present in batch, bounded to
// writerThreads concurrent writers via a weighted semaphore. It
// returns the first task error verbatim: a writer failure is never
// skippable, matching errgroup's first-error-wins semantics exactly.
// m may be nil when the caller doesn't want the ambient metrics
// recorded.
func Flush(ctx context.Context, batch *demux.Map, table *WriterTable, writerThreads int, logger *slog.Logger, m *metrics.Metrics) error {
	if writerThreads < 1 {
		writerThreads = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(writerThreads))

	slots := make(chan int, writerThreads)
	for i := 0; i < writerThreads; i++ {
		slots <- i
	}

	total := batch.Len()
	if m != nil {
		m.WriterQueueDepth.Set(float64(total))
	}
	done := make(chan struct{})
	defer close(done)
	go reportProgress(done, logger, total)

	for _, key := range batch.Keys() {
		key := key
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return fmt.Errorf("flusher: acquire writer slot: %w", err)
			}
			defer sem.Release(1)
			if m != nil {
				defer m.WriterQueueDepth.Dec()
			}
			workerID := <-slots
			defer func() { slots <- workerID }()
			wlog := logging.WorkerLogger(workerID).With("run_id", logging.CorrelationID(gctx))

			start := time.Now()
			w, err := table.getOrCreate(gctx, key)
			if err != nil {
				return fmt.Errorf("flusher: open writer for %s: %w", key, err)
			}
			wlog.Debug("flushing region", "region", key.String(), "entries", len(batch.Entries(key)))
			for _, e := range batch.Entries(key) {
				if err := w.Append(e); err != nil {
					return fmt.Errorf("flusher: write to %s: %w", key, err)
				}
			}
			wlog.Debug("region flushed", "region", key.String(), "edits", len(batch.Entries(key)),
				"elapsed_ms", time.Since(start).Milliseconds())
			if m != nil {
				m.RegionFlushLatency.WithLabelValues(key.Table).Observe(time.Since(start).Seconds())
			}
			return nil
		})
	}

	return g.Wait()
}

func reportProgress(done <-chan struct{}, logger *slog.Logger, regionCount int) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			logger.Info("flush in progress", "regions_in_batch", regionCount)
		}
	}
}
