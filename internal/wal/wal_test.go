package wal

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	want := []Entry{
		{Table: "t1", Region: []byte("regionA"), Seq: 1, Payload: []byte("edit-1")},
		{Table: "t1", Region: []byte("regionB"), Seq: 1, Payload: []byte("edit-2")},
		{Table: "t1", Region: []byte("regionA"), Seq: 2, Payload: []byte("edit-3")},
	}
	for _, e := range want {
		if err := w.Append(e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	var got []Entry
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, e)
	}

	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Table != want[i].Table ||
			!bytes.Equal(got[i].Region, want[i].Region) ||
			got[i].Seq != want[i].Seq ||
			!bytes.Equal(got[i].Payload, want[i].Payload) {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestReaderEmptyStreamIsNotAnError(t *testing.T) {
	r, err := NewReader(bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("NewReader on empty stream: %v", err)
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("Next on empty stream = %v, want io.EOF", err)
	}
}

func TestReaderBadMagicIsCorrupt(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("nope")))
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("NewReader with bad magic = %v, want ErrCorrupt", err)
	}
}

func TestReaderTruncatedMidStreamIsCorrupt(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Append(Entry{Table: "t1", Region: []byte("r1"), Seq: 1, Payload: []byte("hello")}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	truncated := buf.Bytes()[:buf.Len()-3]
	r, err := NewReader(bytes.NewReader(truncated))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := r.Next(); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Next on truncated stream = %v, want ErrCorrupt", err)
	}
}
