//go:build !windows

package fsstore

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func withLockFile(ctx context.Context, lockPath string, fn func() error) error {
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, defaultFilePerm)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrLock, lockPath, err)
	}
	defer f.Close()

	fd := int(f.Fd())
	for {
		err = unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			break
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN) {
			if werr := waitRetry(ctx); werr != nil {
				return fmt.Errorf("%w: %s: %v", ErrLock, lockPath, werr)
			}
			continue
		}
		return fmt.Errorf("%w: flock %s: %v", ErrLock, lockPath, err)
	}
	defer func() { _ = unix.Flock(fd, unix.LOCK_UN) }()

	return fn()
}
