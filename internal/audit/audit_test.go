package audit

import (
	"context"
	"testing"
)

func TestNewRecorderDefaultsToNoop(t *testing.T) {
	r, err := NewRecorder(context.Background(), "")
	if err != nil {
		t.Fatalf("NewRecorder with empty DSN: %v", err)
	}
	if _, ok := r.(NoopRecorder); !ok {
		t.Fatalf("NewRecorder with empty DSN returned %T, want NoopRecorder", r)
	}
	if err := r.RecordRun(context.Background(), RunRecord{RunID: "r1"}); err != nil {
		t.Fatalf("NoopRecorder.RecordRun: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("NoopRecorder.Close: %v", err)
	}
}
