// Package fsstore persists small documents on the local filesystem.
// Writes go through a temp file and rename so readers never observe a
// partially written document.
package fsstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidPath is returned for empty or unusable paths.
	ErrInvalidPath = errors.New("fsstore: invalid path")
	// ErrDecode reports a document that exists but cannot be parsed.
	ErrDecode = errors.New("fsstore: decode failed")
	// ErrWrite reports a failed atomic replacement of a document.
	ErrWrite = errors.New("fsstore: write failed")
	// ErrLock reports a lock that could not be acquired.
	ErrLock = errors.New("fsstore: lock unavailable")
)

const (
	defaultDirPerm  os.FileMode = 0o755
	defaultFilePerm os.FileMode = 0o644
)

// FileOptions controls permissions of created files and directories.
type FileOptions struct {
	DirPerm  os.FileMode
	FilePerm os.FileMode
}

func (o FileOptions) normalize() FileOptions {
	if o.DirPerm == 0 {
		o.DirPerm = defaultDirPerm
	}
	if o.FilePerm == 0 {
		o.FilePerm = defaultFilePerm
	}
	return o
}

func cleanPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	return filepath.Clean(path), nil
}

// EnsureDir creates dir and its parents when missing.
func EnsureDir(dir string, perm os.FileMode) error {
	dir, err := cleanPath(dir)
	if err != nil {
		return err
	}
	if perm == 0 {
		perm = defaultDirPerm
	}
	if err := os.MkdirAll(dir, perm); err != nil {
		return fmt.Errorf("fsstore: mkdir %s: %w", dir, err)
	}
	return nil
}

// WriteAtomic replaces path with content via a temp file in the same directory.
func WriteAtomic(path string, content []byte, opts FileOptions) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	opts = opts.normalize()

	dir := filepath.Dir(path)
	if err := EnsureDir(dir, opts.DirPerm); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("%w: create temp for %s: %v", ErrWrite, path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrWrite, tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: sync %s: %v", ErrWrite, tmpPath, err)
	}
	if err := tmp.Chmod(opts.FilePerm); err != nil {
		return fmt.Errorf("%w: chmod %s: %v", ErrWrite, tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrWrite, tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: rename to %s: %v", ErrWrite, path, err)
	}

	// directory fsync is best effort
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
