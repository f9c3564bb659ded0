package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Splitter.Impl != "streaming" {
		t.Errorf("Impl = %q, want streaming", cfg.Splitter.Impl)
	}
	if cfg.Splitter.BatchSize != 3 {
		t.Errorf("BatchSize = %d, want 3", cfg.Splitter.BatchSize)
	}
	if cfg.Splitter.WriterThreads != 3 {
		t.Errorf("WriterThreads = %d, want 3", cfg.Splitter.WriterThreads)
	}
	if cfg.Splitter.QuarantineDirName != ".corrupt" {
		t.Errorf("QuarantineDirName = %q, want .corrupt", cfg.Splitter.QuarantineDirName)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SPLITTER_BATCH_SIZE", "7")
	t.Setenv("SPLITTER_PARSE_SKIP_ERRORS", "true")

	cfg := Load()
	if cfg.Splitter.BatchSize != 7 {
		t.Errorf("BatchSize = %d, want 7", cfg.Splitter.BatchSize)
	}
	if !cfg.Splitter.ParseSkipErrors {
		t.Errorf("ParseSkipErrors = false, want true")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
splitter:
  batch_size: 5
  writer_skip_errors: true
paths:
  root_dir: /hbase
  src_dir: /hbase/log_host1_60020_12345
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Splitter.BatchSize != 5 {
		t.Errorf("BatchSize = %d, want 5", cfg.Splitter.BatchSize)
	}
	if !cfg.Splitter.WriterSkipErrors {
		t.Errorf("WriterSkipErrors = false, want true")
	}
	if cfg.Paths.SrcDir != "/hbase/log_host1_60020_12345" {
		t.Errorf("SrcDir = %q", cfg.Paths.SrcDir)
	}
	if cfg.Splitter.WriterThreads != 3 {
		t.Errorf("WriterThreads = %d, want default 3", cfg.Splitter.WriterThreads)
	}
}

func TestValidateRequiresPaths(t *testing.T) {
	cfg := Load()
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() with no paths set = nil, want error")
	}
	cfg.Paths.RootDir = "/hbase"
	cfg.Paths.SrcDir = "/hbase/log_x"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() with paths set: %v", err)
	}
}
