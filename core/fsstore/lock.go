package fsstore

import (
	"context"
	"path/filepath"
	"time"
)

const lockRetryWait = 25 * time.Millisecond

// LockPath returns the sidecar lock file used for the document at path.
func LockPath(path string) string {
	return filepath.Clean(path) + ".lock"
}

// WithLock runs fn while holding an exclusive lock on lockPath.
// It waits until the lock is free or ctx is done.
func WithLock(ctx context.Context, lockPath string, fn func() error) error {
	lockPath, err := cleanPath(lockPath)
	if err != nil {
		return err
	}
	if fn == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := EnsureDir(filepath.Dir(lockPath), defaultDirPerm); err != nil {
		return err
	}
	return withLockFile(ctx, lockPath, fn)
}

func waitRetry(ctx context.Context) error {
	timer := time.NewTimer(lockRetryWait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
