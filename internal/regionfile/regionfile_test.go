package regionfile

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/regiondb/walsplit/internal/wal"
	"github.com/regiondb/walsplit/internal/walfs"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateWritesAndReadsBack(t *testing.T) {
	root := t.TempDir()
	fs := walfs.NewLocalFilesystem()
	ctx := context.Background()

	key := wal.RegionKey{Table: "t1", Region: "regionA"}
	w, err := Create(ctx, fs, root, key, discardLogger())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	entries := []wal.Entry{
		{Table: "t1", Region: []byte("regionA"), Seq: 1, Payload: []byte("edit-1")},
		{Table: "t1", Region: []byte("regionA"), Seq: 2, Payload: []byte("edit-2")},
	}
	for _, e := range entries {
		if err := w.Append(e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got: %v", err)
	}

	path := Path(root, key)
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("recovered-edits file missing at %s: %v", path, err)
	}
	defer f.Close()

	r, err := wal.NewReader(f)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	var got []wal.Entry
	for {
		e, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, e)
	}
	if len(got) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(got), len(entries))
	}
}

func TestCreateTruncatesStaleFile(t *testing.T) {
	root := t.TempDir()
	fs := walfs.NewLocalFilesystem()
	ctx := context.Background()
	key := wal.RegionKey{Table: "t1", Region: "regionA"}

	w1, err := Create(ctx, fs, root, key, discardLogger())
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if err := w1.Append(wal.Entry{Table: "t1", Region: []byte("regionA"), Seq: 1, Payload: []byte("stale")}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	w2, err := Create(ctx, fs, root, key, discardLogger())
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if err := w2.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	path := Path(root, key)
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	r, err := wal.NewReader(f)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("Next on recreated file = %v, want io.EOF (recreated empty)", err)
	}
}
