package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInitRegistersAndCountersWork(t *testing.T) {
	m := Init("walsplit_test")
	if Get() != m {
		t.Fatal("Get() did not return the instance from Init")
	}

	m.LogsProcessed.WithLabelValues("run-1").Inc()
	m.LogsCorrupted.WithLabelValues("run-1").Inc()
	m.EditsApplied.WithLabelValues("run-1", "t1").Add(3)
	m.WriterQueueDepth.Set(2)

	if got := testutil.ToFloat64(m.LogsProcessed.WithLabelValues("run-1")); got != 1 {
		t.Errorf("LogsProcessed = %v, want 1", got)
	}
}
