package wal

import "errors"

// fileMagic identifies a WAL file produced by this package. It is
// written once at the start of the stream by Writer and checked once by
// Reader.
var fileMagic = [4]byte{'W', 'L', 'G', '1'}

// ErrCorrupt is returned when a record's framing is inconsistent —
// a short header, a length that doesn't fit the remaining bytes, or a
// snappy payload that fails to decompress. Callers treat it as the
// "unreadable/corrupt log" error kind.
var ErrCorrupt = errors.New("wal: corrupt record")

// maxPayload bounds a single record's declared length so a corrupt
// length field can't cause an attempted multi-gigabyte allocation.
const maxPayload = 256 << 20 // 256 MiB
