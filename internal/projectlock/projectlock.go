// Package projectlock implements the advisory lock guarding concurrent rnp
// invocations against the same node_modules/ tree (spec.md §5's "two
// concurrent installs in the same project" hazard). Grounded on
// github.com/nightlyone/lockfile, a PID-checking lockfile already in the
// example pack's dependency surface; retried with
// github.com/cenkalti/backoff/v4 since nightlyone/lockfile's TryLock never
// blocks on its own.
package projectlock

import (
	"context"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nightlyone/lockfile"

	"github.com/a-khushal/rnp/internal/rnperrors"
)

// FileName is the advisory lock's name within node_modules/, per spec.md §6.
const FileName = ".rnp-lock"

// Lock wraps one advisory lock file.
type Lock struct {
	lf   lockfile.Lockfile
	path string
}

// New returns a Lock for the given node_modules/ directory. The directory
// must already exist.
func New(nodeModulesDir string) (*Lock, error) {
	path := filepath.Join(nodeModulesDir, FileName)
	lf, err := lockfile.New(path)
	if err != nil {
		return nil, &rnperrors.FSError{Path: path, Cause: err}
	}
	return &Lock{lf: lf, path: path}, nil
}

// Acquire retries TryLock with exponential backoff until ctx is done or the
// lock is obtained, so a second rnp invocation waits for the first to
// finish instead of failing outright.
func (l *Lock) Acquire(ctx context.Context) error {
	policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	err := backoff.Retry(func() error {
		err := l.lf.TryLock()
		if err == nil {
			return nil
		}
		if err == lockfile.ErrBusy || err == lockfile.ErrNotExist {
			return err // retryable
		}
		return backoff.Permanent(err)
	}, policy)
	if err != nil {
		return &rnperrors.FSError{Path: l.path, Cause: err}
	}
	return nil
}

// Release unlocks the project. Safe to call even if Acquire failed.
func (l *Lock) Release() error {
	return l.lf.Unlock()
}

// DefaultMaxWait bounds how long Acquire will retry before the caller
// should give up (wired into the backoff context's timeout by the command
// layer).
const DefaultMaxWait = 2 * time.Minute
