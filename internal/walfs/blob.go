package walfs

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/gcsblob" // GCS driver
	_ "gocloud.dev/blob/s3blob"  // S3 driver
	"gocloud.dev/gcerrors"
)

// BlobFilesystem implements Filesystem over a gocloud.dev/blob bucket.
// Object stores have no directories, no rename, and no append — this
// type fakes the three operations the splitter still needs them for.
type BlobFilesystem struct {
	bucket *blob.Bucket
}

// NewBlobFilesystem opens bucketURL (e.g. "gs://my-bucket" or
// "s3://my-bucket?region=us-east-1").
func NewBlobFilesystem(ctx context.Context, bucketURL string) (*BlobFilesystem, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("walfs: open bucket %s: %w", bucketURL, err)
	}
	return &BlobFilesystem{bucket: bucket}, nil
}

func newS3Filesystem(ctx context.Context, bucketName, endpoint, region string) (*BlobFilesystem, error) {
	bucketURL := fmt.Sprintf("s3://%s", bucketName)
	params := make([]string, 0, 2)
	if region != "" {
		params = append(params, "region="+region)
	}
	if endpoint != "" {
		params = append(params, "endpoint="+endpoint, "s3ForcePathStyle=true")
	}
	if len(params) > 0 {
		bucketURL += "?"
		for i, p := range params {
			if i > 0 {
				bucketURL += "&"
			}
			bucketURL += p
		}
	}
	return NewBlobFilesystem(ctx, bucketURL)
}

func (fs *BlobFilesystem) Exists(ctx context.Context, path string) (bool, error) {
	ok, err := fs.bucket.Exists(ctx, path)
	if err != nil {
		return false, &IOError{Op: "exists", Path: path, Err: err}
	}
	return ok, nil
}

func (fs *BlobFilesystem) List(ctx context.Context, dir string) ([]FileInfo, error) {
	prefix := dir
	if prefix != "" && prefix[len(prefix)-1] != '/' {
		prefix += "/"
	}

	var out []FileInfo
	iter := fs.bucket.List(&blob.ListOptions{Prefix: prefix, Delimiter: "/"})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &IOError{Op: "list", Path: dir, Err: err}
		}
		if obj.IsDir {
			continue
		}
		out = append(out, FileInfo{Path: obj.Key, Size: obj.Size})
	}
	return out, nil
}

func (fs *BlobFilesystem) Rename(ctx context.Context, src, dst string) error {
	return withRetry(ctx, "rename", src, func() error {
		if err := fs.bucket.Copy(ctx, dst, src, nil); err != nil {
			return err
		}
		return fs.bucket.Delete(ctx, src)
	})
}

func (fs *BlobFilesystem) Delete(ctx context.Context, path string) error {
	err := fs.bucket.Delete(ctx, path)
	if err != nil && !isNotExist(err) {
		return &IOError{Op: "delete", Path: path, Err: err}
	}
	return nil
}

func (fs *BlobFilesystem) DeleteRecursive(ctx context.Context, dir string) error {
	prefix := dir
	if prefix != "" && prefix[len(prefix)-1] != '/' {
		prefix += "/"
	}
	iter := fs.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return &IOError{Op: "list", Path: dir, Err: err}
		}
		if err := fs.Delete(ctx, obj.Key); err != nil {
			return err
		}
	}
	return nil
}

// MkdirAll is a no-op: blob storage has no directory concept.
func (fs *BlobFilesystem) MkdirAll(ctx context.Context, dir string) error { return nil }

// RecoverLease is a no-op: a PUT to an object store is atomic, so there
// is no writer lease to break. It still confirms the object is
// reachable, surfacing a broken bucket connection early rather than at
// the first real read.
func (fs *BlobFilesystem) RecoverLease(ctx context.Context, path string) error {
	_, err := fs.Exists(ctx, path)
	return err
}

func (fs *BlobFilesystem) OpenReader(ctx context.Context, path string) (io.ReadCloser, error) {
	r, err := fs.bucket.NewReader(ctx, path, nil)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	return r, nil
}

// OpenAppendWriter fakes append by reading the existing object (if
// any) into memory, buffering subsequent writes, and uploading the
// concatenation as a single object on Close. Recovered-edits files are
// small per region relative to the source WAL, so holding the whole
// object in memory is acceptable.
func (fs *BlobFilesystem) OpenAppendWriter(ctx context.Context, path string) (io.WriteCloser, error) {
	buf := &bytes.Buffer{}
	exists, err := fs.Exists(ctx, path)
	if err != nil {
		return nil, err
	}
	if exists {
		r, err := fs.bucket.NewReader(ctx, path, nil)
		if err != nil {
			return nil, &IOError{Op: "open", Path: path, Err: err}
		}
		_, err = io.Copy(buf, r)
		r.Close()
		if err != nil {
			return nil, &IOError{Op: "read", Path: path, Err: err}
		}
	}
	return &blobAppendWriter{fs: fs, path: path, buf: buf}, nil
}

func (fs *BlobFilesystem) Close() error {
	if fs.bucket == nil {
		return nil
	}
	return fs.bucket.Close()
}

type blobAppendWriter struct {
	fs   *BlobFilesystem
	path string
	buf  *bytes.Buffer
}

func (w *blobAppendWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *blobAppendWriter) Close() error {
	ctx := context.Background()
	bw, err := w.fs.bucket.NewWriter(ctx, w.path, nil)
	if err != nil {
		return &IOError{Op: "open", Path: w.path, Err: err}
	}
	if _, err := bw.Write(w.buf.Bytes()); err != nil {
		bw.Close()
		return &IOError{Op: "write", Path: w.path, Err: err}
	}
	if err := bw.Close(); err != nil {
		return &IOError{Op: "close", Path: w.path, Err: err}
	}
	return nil
}

func isNotExist(err error) bool {
	return gcerrors.Code(err) == gcerrors.NotFound
}
