// Package wal implements the on-disk framing for write-ahead-log
// entries: an opaque payload keyed by (table, region, sequence id).
//
// The wire format is a private implementation detail of this splitter —
// the upstream write path that produces the dead server's logs is out
// of scope — but a working splitter needs a concrete format
// it can both read and, for tests and fixtures, write.
package wal

// Entry is one WAL record. Payload is opaque to everything except the
// eventual replay path; the splitter never inspects it.
type Entry struct {
	Table   string
	Region  []byte
	Seq     uint64
	Payload []byte
}

// RegionKey uniquely identifies a region within a WAL stream. Region
// names are raw byte sequences; we hold them as a string so
// RegionKey is comparable and usable as a map key without giving up
// the underlying byte-for-byte identity.
type RegionKey struct {
	Table  string
	Region string
}

// Key returns e's RegionKey.
func (e Entry) Key() RegionKey {
	return RegionKey{Table: e.Table, Region: string(e.Region)}
}

// Less reports whether k sorts lexicographically before other, table
// first then region. Iteration order for demultiplexed batches follows
// discovery order, not this ordering (internal/demux) — Less is used to
// sort a WriterTable's keys so its reported paths come out in a
// deterministic order.
func (k RegionKey) Less(other RegionKey) bool {
	if k.Table != other.Table {
		return k.Table < other.Table
	}
	return k.Region < other.Region
}

func (k RegionKey) String() string {
	return k.Table + "/" + k.Region
}
