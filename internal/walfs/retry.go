package walfs

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// withRetry runs fn, retrying transient failures with exponential
// backoff before giving up and wrapping the final error as an
// *IOError. A missing-file error is never transient, so it's
// classified as permanent and returned immediately.
func withRetry(ctx context.Context, op, path string, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second

	err := backoff.Retry(func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if os.IsNotExist(err) || os.IsPermission(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx))

	if err == nil {
		return nil
	}
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return &IOError{Op: op, Path: path, Err: perm.Err}
	}
	return &IOError{Op: op, Path: path, Err: err}
}
