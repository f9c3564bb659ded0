// Package walfs abstracts the distributed filesystem a dead server's
// write-ahead logs live on, narrowed to what a WAL splitter needs:
// list a directory of logs, read them, write recovered-edits files,
// and move things around between the source, archive, and quarantine
// trees.
package walfs

import (
	"context"
	"fmt"
	"io"
)

// FileInfo describes one entry returned by List.
type FileInfo struct {
	Path string
	Size int64
}

// Filesystem is the capability set a split run requires of the storage
// layer underneath it. Both implementations in this package satisfy
// it; callers never type-switch on the concrete type.
type Filesystem interface {
	// Exists reports whether path names an existing file.
	Exists(ctx context.Context, path string) (bool, error)

	// List returns the files directly under dir, sorted by path. It
	// does not recurse.
	List(ctx context.Context, dir string) ([]FileInfo, error)

	// Rename moves src to dst, creating dst's parent directory first
	// if the backend has a notion of directories.
	Rename(ctx context.Context, src, dst string) error

	// Delete removes a single file. Deleting a path that doesn't
	// exist is not an error.
	Delete(ctx context.Context, path string) error

	// DeleteRecursive removes dir and everything under it.
	DeleteRecursive(ctx context.Context, dir string) error

	// MkdirAll ensures dir and its parents exist. On backends with no
	// directory concept this is a no-op.
	MkdirAll(ctx context.Context, dir string) error

	// RecoverLease clears any writer lease a crashed process may still
	// hold on path, so the file can be safely reopened for reading.
	RecoverLease(ctx context.Context, path string) error

	// OpenReader opens path for reading from the start.
	OpenReader(ctx context.Context, path string) (io.ReadCloser, error)

	// OpenAppendWriter opens path for appending. If path doesn't
	// exist, it is created.
	OpenAppendWriter(ctx context.Context, path string) (io.WriteCloser, error)

	// Close releases any resources held by the filesystem handle
	// itself (bucket connections, and so on).
	Close() error
}

// IOError wraps a filesystem operation failure with the path that
// caused it, so callers and log lines can report which file a
// transient or permanent I/O failure came from without string-parsing
// the wrapped error.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("walfs: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Config selects and configures a Filesystem backend.
type Config struct {
	Backend string // "local" | "gcs" | "s3"

	// GCS
	GCSBucket string

	// S3 (also works for B2, R2, MinIO)
	S3Bucket   string
	S3Endpoint string
	S3Region   string
}

// New constructs a Filesystem from cfg, choosing the concrete backend
// by a tagged-variant switch rather than reflection.
func New(ctx context.Context, cfg Config) (Filesystem, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalFilesystem(), nil
	case "gcs":
		if cfg.GCSBucket == "" {
			return nil, fmt.Errorf("walfs: GCSBucket required for gcs backend")
		}
		return NewBlobFilesystem(ctx, fmt.Sprintf("gs://%s", cfg.GCSBucket))
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("walfs: S3Bucket required for s3 backend")
		}
		return newS3Filesystem(ctx, cfg.S3Bucket, cfg.S3Endpoint, cfg.S3Region)
	default:
		return nil, fmt.Errorf("walfs: unknown backend %q", cfg.Backend)
	}
}
