package wal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/snappy"
)

// Reader produces a finite lazy sequence of entries from a WAL stream.
// Next must be called until it returns io.EOF; callers are responsible
// for closing the underlying stream.
type Reader struct {
	r     io.Reader
	empty bool
}

// NewReader wraps r, validating the file magic.
//
// A zero-length stream is not an error: it is the "not yet flushed
// append" case, where a dead server's log was created but never
// received an entry before the server died. Reader models this by
// returning io.EOF from Next without ever having seen a magic
// mismatch, so callers get an empty sequence rather than an error.
func NewReader(r io.Reader) (*Reader, error) {
	var magic [4]byte
	n, err := io.ReadFull(r, magic[:])
	if err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			return &Reader{empty: true}, nil
		}
		return nil, fmt.Errorf("wal: read magic: %w", errors.Join(ErrCorrupt, err))
	}
	if magic != fileMagic {
		return nil, fmt.Errorf("wal: bad magic: %w", ErrCorrupt)
	}
	return &Reader{r: r}, nil
}

// Next returns the next entry, or io.EOF once the stream is exhausted.
// Any other error indicates corrupt framing partway through the
// stream and wraps ErrCorrupt.
func (r *Reader) Next() (Entry, error) {
	if r.empty {
		return Entry{}, io.EOF
	}

	header := make([]byte, 19)
	n, err := io.ReadFull(r.r, header)
	if err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			return Entry{}, io.EOF
		}
		return Entry{}, fmt.Errorf("wal: read record header: %w", errors.Join(ErrCorrupt, err))
	}

	tableLen := int(header[0])
	regionLen := int(binary.BigEndian.Uint16(header[1:3]))
	seq := binary.BigEndian.Uint64(header[3:11])
	compressedLen := binary.BigEndian.Uint32(header[11:15])
	rawLen := binary.BigEndian.Uint32(header[15:19])

	if compressedLen > maxPayload || rawLen > maxPayload {
		return Entry{}, fmt.Errorf("wal: record too large (compressed=%d raw=%d): %w", compressedLen, rawLen, ErrCorrupt)
	}

	rest := make([]byte, tableLen+regionLen+int(compressedLen))
	if _, err := io.ReadFull(r.r, rest); err != nil {
		return Entry{}, fmt.Errorf("wal: read record body: %w", errors.Join(ErrCorrupt, err))
	}

	table := string(rest[:tableLen])
	region := append([]byte(nil), rest[tableLen:tableLen+regionLen]...)
	compressed := rest[tableLen+regionLen:]

	payload, err := snappy.Decode(nil, compressed)
	if err != nil {
		return Entry{}, fmt.Errorf("wal: decompress payload: %w", errors.Join(ErrCorrupt, err))
	}
	if uint32(len(payload)) != rawLen {
		return Entry{}, fmt.Errorf("wal: payload length mismatch (got %d, want %d): %w", len(payload), rawLen, ErrCorrupt)
	}

	return Entry{Table: table, Region: region, Seq: seq, Payload: payload}, nil
}
