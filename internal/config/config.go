// Package config loads the splitter's configuration from environment
// variables or, optionally, an overlaying YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/regiondb/walsplit/internal/util"
)

// Config is the full set of knobs a split run is parameterized by.
type Config struct {
	Splitter SplitterConfig `yaml:"splitter"`
	Paths    PathsConfig    `yaml:"paths"`
	FS       FSConfig       `yaml:"filesystem"`
	Audit    AuditConfig    `yaml:"audit"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SplitterConfig holds the tunables that govern one split run: which
// implementation to use, batch size, writer concurrency, the two
// skip-errors switches, and the quarantine directory name.
type SplitterConfig struct {
	Impl              string `yaml:"impl"`                 // "streaming" | "sequential"
	BatchSize         int    `yaml:"batch_size"`           // default 3
	WriterThreads     int    `yaml:"writer_threads"`       // default 3
	ParseSkipErrors   bool   `yaml:"parse_skip_errors"`
	WriterSkipErrors  bool   `yaml:"writer_skip_errors"`
	QuarantineDirName string `yaml:"quarantine_dir_name"`  // default ".corrupt"
}

// PathsConfig holds the directories a split run operates over.
type PathsConfig struct {
	RootDir   string `yaml:"root_dir"`
	SrcDir    string `yaml:"src_dir"`
	OldLogDir string `yaml:"old_log_dir"`
}

// FSConfig selects and configures the walfs.Filesystem backend.
type FSConfig struct {
	Backend    string `yaml:"backend"` // "local" | "gcs" | "s3"
	GCSBucket  string `yaml:"gcs_bucket"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Endpoint string `yaml:"s3_endpoint"`
	S3Region   string `yaml:"s3_region"`
}

// AuditConfig configures the optional durable audit trail.
type AuditConfig struct {
	PostgresDSN string `yaml:"postgres_dsn"`
}

// MetricsConfig configures the Prometheus HTTP exporter.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Format string `yaml:"format"` // "json" | "text"
	Level  string `yaml:"level"`
}

// Load reads configuration from environment variables, applying
// documented defaults for every field.
func Load() Config {
	return Config{
		Splitter: SplitterConfig{
			Impl:              getenvDefault("SPLITTER_IMPL", "streaming"),
			BatchSize:         parseIntDefault("SPLITTER_BATCH_SIZE", 3),
			WriterThreads:     parseIntDefault("SPLITTER_WRITER_THREADS", 3),
			ParseSkipErrors:   os.Getenv("SPLITTER_PARSE_SKIP_ERRORS") == "true",
			WriterSkipErrors:  os.Getenv("SPLITTER_WRITER_SKIP_ERRORS") == "true",
			QuarantineDirName: getenvDefault("SPLITTER_QUARANTINE_DIR", ".corrupt"),
		},
		Paths: PathsConfig{
			RootDir:   os.Getenv("SPLITTER_ROOT_DIR"),
			SrcDir:    os.Getenv("SPLITTER_SRC_DIR"),
			OldLogDir: getenvDefault("SPLITTER_OLD_LOG_DIR", ".oldlogs"),
		},
		FS: FSConfig{
			Backend:    getenvDefault("SPLITTER_FS_BACKEND", "local"),
			GCSBucket:  os.Getenv("SPLITTER_GCS_BUCKET"),
			S3Bucket:   os.Getenv("SPLITTER_S3_BUCKET"),
			S3Endpoint: os.Getenv("SPLITTER_S3_ENDPOINT"),
			S3Region:   os.Getenv("SPLITTER_S3_REGION"),
		},
		Audit: AuditConfig{
			PostgresDSN: os.Getenv("SPLITTER_AUDIT_DSN"),
		},
		Metrics: MetricsConfig{
			Enabled: os.Getenv("SPLITTER_METRICS_ENABLED") != "false",
			Address: getenvDefault("SPLITTER_METRICS_ADDRESS", ":9090"),
		},
		Logging: LoggingConfig{
			Format: getenvDefault("SPLITTER_LOG_FORMAT", "json"),
			Level:  getenvDefault("SPLITTER_LOG_LEVEL", "info"),
		},
	}
}

// LoadFile reads and parses a YAML configuration file, applying the
// same defaults as Load for any field left unset.
func LoadFile(path string) (Config, error) {
	cfg := Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the fields required to actually run a split are
// present, independent of where the config came from.
func (c Config) Validate() error {
	if c.Paths.SrcDir == "" {
		return fmt.Errorf("config: paths.src_dir is required")
	}
	if c.Paths.RootDir == "" {
		return fmt.Errorf("config: paths.root_dir is required")
	}
	switch c.Splitter.Impl {
	case "streaming", "sequential":
	default:
		return fmt.Errorf("config: unknown splitter impl %q", c.Splitter.Impl)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func parseIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := util.Atoi(v)
	if err != nil {
		return def
	}
	return int(parsed)
}
