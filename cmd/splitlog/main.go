// Command splitlog runs one write-ahead-log split against a dead
// table-store server's log directory: load config, wire collaborators,
// run, exit non-zero on failure.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/regiondb/walsplit/internal/audit"
	"github.com/regiondb/walsplit/internal/config"
	"github.com/regiondb/walsplit/internal/logging"
	"github.com/regiondb/walsplit/internal/metrics"
	"github.com/regiondb/walsplit/internal/splitlog"
	"github.com/regiondb/walsplit/internal/walfs"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults to environment variables only)")
	flag.Parse()

	var cfg config.Config
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			slog.Error("loading config file", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = config.Load()
	}

	logging.Setup(logging.Config{Format: cfg.Logging.Format, Level: cfg.Logging.Level})
	log := logging.Component("main")

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		sig := <-ch
		log.Warn("received shutdown signal", "signal", sig.String())
		cancel()
	}()

	m := metrics.Init("walsplit")
	if cfg.Metrics.Enabled {
		go func() {
			log.Info("serving metrics", "address", cfg.Metrics.Address)
			if err := metrics.StartServer(cfg.Metrics.Address); err != nil {
				log.Error("metrics server exited", "error", err)
			}
		}()
	}

	fs, err := walfs.New(ctx, walfs.Config{
		Backend:    cfg.FS.Backend,
		GCSBucket:  cfg.FS.GCSBucket,
		S3Bucket:   cfg.FS.S3Bucket,
		S3Endpoint: cfg.FS.S3Endpoint,
		S3Region:   cfg.FS.S3Region,
	})
	if err != nil {
		log.Error("creating filesystem adapter", "error", err)
		os.Exit(1)
	}
	defer fs.Close()

	rec, err := audit.NewRecorder(ctx, cfg.Audit.PostgresDSN)
	if err != nil {
		log.Error("creating audit recorder", "error", err)
		os.Exit(1)
	}
	defer rec.Close()

	splitter, err := splitlog.New(cfg, fs, m, rec)
	if err != nil {
		log.Error("selecting splitter implementation", "error", err)
		os.Exit(1)
	}

	res, err := splitter.SplitLog(ctx, splitlog.Request{
		RootDir:   cfg.Paths.RootDir,
		SrcDir:    cfg.Paths.SrcDir,
		OldLogDir: cfg.Paths.OldLogDir,
	})
	if err != nil {
		if ctx.Err() != nil {
			log.Warn("split interrupted by shutdown", "run_id", res.RunID)
			os.Exit(1)
		}
		log.Error("split failed", "run_id", res.RunID, "error", err)
		os.Exit(1)
	}

	log.Info("split complete",
		"run_id", res.RunID,
		"logs_processed", len(res.ProcessedLogs),
		"logs_corrupted", len(res.CorruptedLogs),
		"regions_written", len(res.WrittenPaths),
		"edits_applied", res.EditsApplied,
	)
}
