package splitlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/regiondb/walsplit/internal/audit"
	"github.com/regiondb/walsplit/internal/config"
	"github.com/regiondb/walsplit/internal/demux"
	"github.com/regiondb/walsplit/internal/flusher"
	"github.com/regiondb/walsplit/internal/logging"
	"github.com/regiondb/walsplit/internal/metrics"
	"github.com/regiondb/walsplit/internal/wal"
	"github.com/regiondb/walsplit/internal/walfs"
)

// StreamingSplitter is the batch-pipelined orchestrator: it lists the
// source directory once, slices it into fixed-size batches, and for
// each batch parses every log before handing the demultiplexed batch
// to the parallel region flusher.
type StreamingSplitter struct {
	fs      walfs.Filesystem
	cfg     config.SplitterConfig
	metrics *metrics.Metrics
	audit   audit.Recorder
}

// NewStreamingSplitter wires the collaborators one split run needs.
// metrics and rec may be nil/NoopRecorder respectively when a caller
// doesn't want that ambient concern.
func NewStreamingSplitter(fs walfs.Filesystem, cfg config.SplitterConfig, m *metrics.Metrics, rec audit.Recorder) *StreamingSplitter {
	if rec == nil {
		rec = audit.NoopRecorder{}
	}
	return &StreamingSplitter{fs: fs, cfg: cfg, metrics: m, audit: rec}
}

// SplitLog runs the full orchestrator algorithm against req, returning
// once every batch has been parsed and flushed and the source
// directory has been archived, quarantined, and removed.
func (s *StreamingSplitter) SplitLog(ctx context.Context, req Request) (Result, error) {
	runID := logging.GenerateCorrelationID()
	ctx = logging.WithCorrelationID(ctx, runID)
	logger := logging.RunLogger(runID, req.SrcDir)
	start := time.Now()
	state := stateIdle

	table := flusher.NewWriterTable(s.fs, req.RootDir, logger)

	var processed, corrupted []string
	var editsApplied int64

	finish := func(final runState, runErr error) (Result, error) {
		state = final
		if s.metrics != nil {
			s.metrics.BatchesInFlight.Set(0)
		}
		if closeErr := table.CloseAll(); closeErr != nil {
			logger.Error("closing region writers", "error", closeErr)
			runErr = errors.Join(runErr, closeErr)
		}

		result := Result{
			RunID:         runID,
			ProcessedLogs: processed,
			CorruptedLogs: corrupted,
			WrittenPaths:  table.Paths(),
			EditsApplied:  editsApplied,
		}

		rec := audit.RunRecord{
			RunID:          runID,
			SrcDir:         req.SrcDir,
			RootDir:        req.RootDir,
			StartedAt:      start,
			FinishedAt:     time.Now(),
			LogsProcessed:  len(processed),
			LogsCorrupted:  len(corrupted),
			RegionsWritten: table.Len(),
			EditsApplied:   editsApplied,
			FinalState:     string(final),
		}
		if runErr != nil {
			rec.Err = runErr.Error()
		}
		if err := s.audit.RecordRun(ctx, rec); err != nil {
			logger.Error("recording audit run", "error", err)
		}

		if s.metrics != nil {
			s.metrics.SplitDuration.WithLabelValues(s.cfg.Impl).Observe(time.Since(start).Seconds())
			s.metrics.LogsProcessed.WithLabelValues(runID).Add(float64(len(processed)))
			s.metrics.LogsCorrupted.WithLabelValues(runID).Add(float64(len(corrupted)))
			s.metrics.RegionsWritten.WithLabelValues(runID).Add(float64(table.Len()))
		}

		elapsed := time.Since(start)
		if final == stateFailed {
			logger.Error("split run failed", "state", state, "elapsed_ms", elapsed.Milliseconds(), "error", runErr)
		} else {
			logger.Info("split run complete", "state", state, "elapsed_ms", elapsed.Milliseconds(),
				"logs_processed", len(processed), "logs_corrupted", len(corrupted),
				"regions_written", table.Len(), "edits_applied", editsApplied)
		}

		return result, runErr
	}

	initial, err := s.fs.List(ctx, req.SrcDir)
	if err != nil {
		s.countFilesystemError("list")
		return finish(stateFailed, fmt.Errorf("splitlog: list %s: %w", req.SrcDir, err))
	}
	if len(initial) == 0 {
		logger.Info("source directory empty, nothing to split")
		if err := s.fs.DeleteRecursive(ctx, req.SrcDir); err != nil {
			return finish(stateFailed, fmt.Errorf("splitlog: clean up empty %s: %w", req.SrcDir, err))
		}
		return finish(stateDone, nil)
	}

	batches := demux.NewBatches(initial, s.cfg.BatchSize)
	logger.Info("starting split", "logs", len(initial), "batches", len(batches))

	for i, batch := range batches {
		state = stateParsing
		if s.metrics != nil {
			s.metrics.BatchesInFlight.Set(1)
		}
		batchLogger := logger.With("batch", i)
		batchMap := demux.NewMap()

		for _, f := range batch {
			if err := s.fs.RecoverLease(ctx, f.Path); err != nil {
				s.countFilesystemError("recoverlease")
				return finish(stateFailed, fmt.Errorf("splitlog: recover lease on %s: %w", f.Path, err))
			}

			fileMap := demux.NewMap()
			if err := s.parseFile(ctx, f, fileMap, batchLogger); err != nil {
				if !s.cfg.ParseSkipErrors {
					return finish(stateFailed, fmt.Errorf("splitlog: %w", err))
				}
				batchLogger.Warn("quarantining corrupt log, discarding its partial edits", "path", f.Path, "size", f.Size, "error", err)
				corrupted = append(corrupted, f.Path)
				continue
			}
			batchMap.Merge(fileMap)
			batchLogger.Info("parsed log", "path", f.Path, "size", f.Size)
			processed = append(processed, f.Path)
		}

		state = stateFlushing
		flushStart := time.Now()
		if err := flusher.Flush(ctx, batchMap, table, s.cfg.WriterThreads, batchLogger, s.metrics); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if s.metrics != nil {
					s.metrics.PossibleDataLossEvents.WithLabelValues(runID).Inc()
				}
				batchLogger.Warn("quiescence interrupted, possible data loss", "error", err)
				if !s.cfg.WriterSkipErrors {
					return finish(stateFailed, fmt.Errorf("splitlog: batch %d interrupted: %w", i, err))
				}
			} else {
				return finish(stateFailed, fmt.Errorf("splitlog: flush batch %d: %w", i, err))
			}
		}
		editsApplied += int64(batchMap.TotalEntries())
		batchLogger.Info("batch flushed", "regions", batchMap.Len(), "edits", batchMap.TotalEntries(),
			"elapsed_ms", time.Since(flushStart).Milliseconds())
	}

	finalListing, err := s.fs.List(ctx, req.SrcDir)
	if err != nil {
		return finish(stateFailed, fmt.Errorf("splitlog: re-list %s: %w", req.SrcDir, err))
	}
	if len(finalListing) != len(processed)+len(corrupted) {
		if s.metrics != nil {
			s.metrics.OrphanLogsDetected.WithLabelValues(runID).Inc()
		}
		return finish(stateFailed, fmt.Errorf("splitlog: discovered orphan hlog in %s: expected %d files, found %d",
			req.SrcDir, len(processed)+len(corrupted), len(finalListing)))
	}

	state = stateArchiving
	if err := s.fs.MkdirAll(ctx, filepath.Join(req.OldLogDir, filepath.Base(req.SrcDir))); err != nil {
		return finish(stateFailed, fmt.Errorf("splitlog: create archive dir: %w", err))
	}
	quarantineDir := filepath.Join(req.RootDir, s.cfg.QuarantineDirName, filepath.Base(req.SrcDir))
	if len(corrupted) > 0 {
		if err := s.fs.MkdirAll(ctx, quarantineDir); err != nil {
			return finish(stateFailed, fmt.Errorf("splitlog: create quarantine dir: %w", err))
		}
	}

	for _, path := range processed {
		dst := archivePath(req.OldLogDir, req.SrcDir, filepath.Base(path))
		if err := s.fs.Rename(ctx, path, dst); err != nil {
			return finish(stateFailed, fmt.Errorf("splitlog: archive %s: %w", path, err))
		}
		logger.Info("archived log", "src", path, "dst", dst)
	}
	for _, path := range corrupted {
		dst := quarantinePath(req.RootDir, s.cfg.QuarantineDirName, req.SrcDir, filepath.Base(path))
		if err := s.fs.Rename(ctx, path, dst); err != nil {
			return finish(stateFailed, fmt.Errorf("splitlog: quarantine %s: %w", path, err))
		}
		logger.Info("quarantined log", "src", path, "dst", dst)
	}

	state = stateCleaning
	if err := s.fs.DeleteRecursive(ctx, req.SrcDir); err != nil {
		return finish(stateFailed, fmt.Errorf("splitlog: clean up %s: %w", req.SrcDir, err))
	}

	return finish(stateDone, nil)
}

// parseFile opens f, wraps it in a wal.Reader, and drains it into into.
// A zero-length file is logged and treated as an empty, non-error
// stream, per the reader's own empty-stream contract.
func (s *StreamingSplitter) parseFile(ctx context.Context, f walfs.FileInfo, into *demux.Map, logger *slog.Logger) error {
	rc, err := s.fs.OpenReader(ctx, f.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Path, err)
	}
	defer rc.Close()

	if f.Size == 0 {
		logger.Warn("zero-length log, treating as empty", "path", f.Path)
	}

	r, err := wal.NewReader(rc)
	if err != nil {
		return fmt.Errorf("read %s: %w", f.Path, err)
	}
	if err := demux.Parse(ctx, r, into); err != nil {
		return fmt.Errorf("parse %s: %w", f.Path, err)
	}
	return nil
}

func (s *StreamingSplitter) countFilesystemError(op string) {
	if s.metrics != nil {
		s.metrics.FilesystemErrors.WithLabelValues(op).Inc()
	}
}

// archivePath is the archive location for a processed log: the archive
// root, a subdirectory named for the dead server's log directory, and
// the original filename.
func archivePath(oldLogDir, srcDir, filename string) string {
	return filepath.Join(oldLogDir, filepath.Base(srcDir), filename)
}

// quarantinePath is the quarantine location for a corrupt log, mirrored
// from the same source-directory-name convention as archivePath.
func quarantinePath(rootDir, quarantineDirName, srcDir, filename string) string {
	return filepath.Join(rootDir, quarantineDirName, filepath.Base(srcDir), filename)
}
