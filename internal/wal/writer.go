package wal

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/snappy"
)

// Writer appends framed entries to an underlying stream. It is not
// safe for concurrent use — preserving append order within a region
// depends on a single writer serializing its own Append calls.
type Writer struct {
	w          io.Writer
	wroteMagic bool
}

// NewWriter wraps w. The file magic is written lazily, on the first
// Append, so creating a Writer for a file that never receives an entry
// produces the same zero-length file the reader's "empty log" case
// expects.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Append writes e to the stream, compressing its payload with snappy.
func (w *Writer) Append(e Entry) error {
	if !w.wroteMagic {
		if _, err := w.w.Write(fileMagic[:]); err != nil {
			return fmt.Errorf("wal: write magic: %w", err)
		}
		w.wroteMagic = true
	}

	if len(e.Table) > 0xFF {
		return fmt.Errorf("wal: table name too long (%d bytes)", len(e.Table))
	}
	if len(e.Region) > 0xFFFF {
		return fmt.Errorf("wal: region key too long (%d bytes)", len(e.Region))
	}

	compressed := snappy.Encode(nil, e.Payload)

	header := make([]byte, 19)
	header[0] = byte(len(e.Table))
	binary.BigEndian.PutUint16(header[1:3], uint16(len(e.Region)))
	binary.BigEndian.PutUint64(header[3:11], e.Seq)
	binary.BigEndian.PutUint32(header[11:15], uint32(len(compressed)))
	binary.BigEndian.PutUint32(header[15:19], uint32(len(e.Payload)))

	if _, err := w.w.Write(header); err != nil {
		return fmt.Errorf("wal: write record header: %w", err)
	}
	if _, err := io.WriteString(w.w, e.Table); err != nil {
		return fmt.Errorf("wal: write table name: %w", err)
	}
	if _, err := w.w.Write(e.Region); err != nil {
		return fmt.Errorf("wal: write region key: %w", err)
	}
	if _, err := w.w.Write(compressed); err != nil {
		return fmt.Errorf("wal: write payload: %w", err)
	}
	return nil
}
