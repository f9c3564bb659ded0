package walfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/regiondb/walsplit/internal/util"
)

// LocalFilesystem implements Filesystem over the local (or an
// NFS-mounted) filesystem using os directly, rather than going through
// gocloud.dev/blob's file driver.
type LocalFilesystem struct{}

// NewLocalFilesystem returns a Filesystem backed by os.
func NewLocalFilesystem() *LocalFilesystem {
	return &LocalFilesystem{}
}

func (fs *LocalFilesystem) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, &IOError{Op: "stat", Path: path, Err: err}
}

func (fs *LocalFilesystem) List(ctx context.Context, dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &IOError{Op: "readdir", Path: dir, Err: err}
	}

	var out []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, &IOError{Op: "stat", Path: filepath.Join(dir, entry.Name()), Err: err}
		}
		out = append(out, FileInfo{
			Path: filepath.Join(dir, entry.Name()),
			Size: info.Size(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (fs *LocalFilesystem) Rename(ctx context.Context, src, dst string) error {
	if err := util.EnsureDir(filepath.Dir(dst)); err != nil {
		return &IOError{Op: "mkdir", Path: filepath.Dir(dst), Err: err}
	}
	return withRetry(ctx, "rename", src, func() error {
		return os.Rename(src, dst)
	})
}

func (fs *LocalFilesystem) Delete(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &IOError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

func (fs *LocalFilesystem) DeleteRecursive(ctx context.Context, dir string) error {
	return withRetry(ctx, "removeall", dir, func() error {
		return os.RemoveAll(dir)
	})
}

func (fs *LocalFilesystem) MkdirAll(ctx context.Context, dir string) error {
	return withRetry(ctx, "mkdirall", dir, func() error {
		return util.EnsureDir(dir)
	})
}

// RecoverLease reopens path for append and immediately closes it,
// which is enough to break a stale writer lease a crashed process may
// still hold on some local/POSIX filesystems. A path that doesn't
// exist yet has nothing to recover.
func (fs *LocalFilesystem) RecoverLease(ctx context.Context, path string) error {
	return withRetry(ctx, "recoverlease", path, func() error {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		return f.Close()
	})
}

func (fs *LocalFilesystem) OpenReader(ctx context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	return f, nil
}

func (fs *LocalFilesystem) OpenAppendWriter(ctx context.Context, path string) (io.WriteCloser, error) {
	if err := util.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, &IOError{Op: "mkdir", Path: filepath.Dir(path), Err: err}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	return f, nil
}

func (fs *LocalFilesystem) Close() error { return nil }
