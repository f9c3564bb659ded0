// Package metrics provides Prometheus metrics for the log splitter.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus metric a split run reports.
type Metrics struct {
	// Log processing
	LogsProcessed *prometheus.CounterVec
	LogsCorrupted *prometheus.CounterVec

	// Region output
	RegionsWritten *prometheus.CounterVec
	EditsApplied   *prometheus.CounterVec

	// Timing
	SplitDuration     *prometheus.HistogramVec
	RegionFlushLatency *prometheus.HistogramVec

	// Pipeline
	WriterQueueDepth prometheus.Gauge
	BatchesInFlight  prometheus.Gauge

	// Failure modes
	OrphanLogsDetected     *prometheus.CounterVec
	PossibleDataLossEvents *prometheus.CounterVec
	FilesystemErrors       *prometheus.CounterVec
}

// Config holds metrics server configuration.
type Config struct {
	Enabled bool
	Address string
}

var defaultMetrics *Metrics

// Init registers every metric under namespace and stores the result as
// the process-wide default. Call once at startup.
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "walsplit"
	}

	m := &Metrics{
		LogsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logs_processed_total",
				Help:      "Total number of WAL files parsed and archived",
			},
			[]string{"run_id"},
		),
		LogsCorrupted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logs_corrupted_total",
				Help:      "Total number of WAL files quarantined as corrupt",
			},
			[]string{"run_id"},
		),
		RegionsWritten: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "regions_written_total",
				Help:      "Total number of distinct regions written to across all runs",
			},
			[]string{"run_id"},
		),
		EditsApplied: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "edits_applied_total",
				Help:      "Total number of WAL entries appended to recovered-edits files",
			},
			[]string{"run_id", "table"},
		),
		SplitDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "split_duration_seconds",
				Help:      "Wall-clock time for one splitLog invocation",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to 2048s (~34m)
			},
			[]string{"impl"},
		),
		RegionFlushLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "region_flush_latency_seconds",
				Help:      "Time to drain one region's queue into its writer",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
			},
			[]string{"table"},
		),
		WriterQueueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "writer_queue_depth",
				Help:      "Number of region flush tasks currently outstanding",
			},
		),
		BatchesInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "batches_in_flight",
				Help:      "Number of batches currently being parsed or flushed (0 or 1)",
			},
		),
		OrphanLogsDetected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orphan_logs_detected_total",
				Help:      "Total number of runs that found a log added to srcDir mid-split",
			},
			[]string{"run_id"},
		),
		PossibleDataLossEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "possible_data_loss_events_total",
				Help:      "Total number of pool-quiescence interruptions reported as possible data loss",
			},
			[]string{"run_id"},
		),
		FilesystemErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "filesystem_errors_total",
				Help:      "Total number of filesystem operation failures, after retry exhaustion",
			},
			[]string{"op"},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the process-wide metrics instance, or nil if Init hasn't
// run yet.
func Get() *Metrics {
	return defaultMetrics
}

// StartServer serves /metrics and /health on address. Blocks until the
// server exits.
func StartServer(address string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return http.ListenAndServe(address, mux)
}
