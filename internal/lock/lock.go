// Package lock marks an install directory as busy across processes.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// FileName is the lock file created in the install directory.
const FileName = ".modsync.lock"

// DefaultTimeout bounds how long WithInstallLock waits for another install.
const DefaultTimeout = 5 * time.Second

// ErrLocked is returned when another process holds the install lock.
var ErrLocked = errors.New("another install is in progress")

var retryDelay = 250 * time.Millisecond

// PathFor returns the lock file path for installDir.
func PathFor(installDir string) string {
	return filepath.Join(installDir, FileName)
}

// WithInstallLock acquires the lock at path, runs fn, and releases the lock
// whether fn succeeds or not. It waits until ctx is done for a held lock.
func WithInstallLock(ctx context.Context, path string, fn func() error) error {
	fileLock, err := acquire(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = fileLock.Unlock() }()

	return fn()
}

// Acquire takes the lock at path, waiting at most timeout for another
// holder. The caller must call release exactly once.
func Acquire(ctx context.Context, path string, timeout time.Duration) (release func(), err error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fileLock, err := acquire(lockCtx, path)
	if err != nil {
		return nil, err
	}
	return func() { _ = fileLock.Unlock() }, nil
}

// WithTimeout is WithInstallLock with a bounded wait for acquisition.
// The timeout does not apply to fn.
func WithTimeout(ctx context.Context, path string, timeout time.Duration, fn func() error) error {
	release, err := Acquire(ctx, path, timeout)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func acquire(ctx context.Context, path string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fileLock := flock.New(path)
	locked, err := fileLock.TryLockContext(ctx, retryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
	}
	return fileLock, nil
}
