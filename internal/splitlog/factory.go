package splitlog

import (
	"fmt"

	"github.com/regiondb/walsplit/internal/audit"
	"github.com/regiondb/walsplit/internal/config"
	"github.com/regiondb/walsplit/internal/metrics"
	"github.com/regiondb/walsplit/internal/walfs"
)

// New selects a Splitter implementation by cfg.Splitter.Impl.
func New(cfg config.Config, fs walfs.Filesystem, m *metrics.Metrics, rec audit.Recorder) (Splitter, error) {
	switch cfg.Splitter.Impl {
	case "", "streaming":
		return NewStreamingSplitter(fs, cfg.Splitter, m, rec), nil
	case "sequential":
		return NewSequentialSplitter(fs, cfg.Splitter, m, rec), nil
	default:
		return nil, fmt.Errorf("splitlog: unknown splitter impl %q", cfg.Splitter.Impl)
	}
}
