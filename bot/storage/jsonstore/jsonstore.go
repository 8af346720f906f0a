// Package jsonstore keeps roles and resources in two JSON documents on disk.
//
// Each store loads its document once at open and serves reads from memory.
// Every mutation writes a full snapshot atomically under a sidecar file lock,
// and only then updates the in-memory view.
package jsonstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/m3rciful/catalogbot/core/fsstore"
	"github.com/m3rciful/catalogbot/core/logger"
)

const (
	// RolesFile is the role document name inside the storage directory.
	RolesFile = "admins.json"
	// ResourcesFile is the resource document name inside the storage directory.
	ResourcesFile = "films.json"
)

var fileOpts = fsstore.FileOptions{DirPerm: 0o755, FilePerm: 0o644}

// Open loads both documents from dir, creating empty ones when absent.
func Open(ctx context.Context, dir string) (*Roles, *Resources, error) {
	if err := fsstore.EnsureDir(dir, fileOpts.DirPerm); err != nil {
		return nil, nil, err
	}
	rs, err := OpenRoles(ctx, filepath.Join(dir, RolesFile))
	if err != nil {
		return nil, nil, err
	}
	res, err := OpenResources(ctx, filepath.Join(dir, ResourcesFile))
	if err != nil {
		return nil, nil, err
	}
	return rs, res, nil
}

// load decodes path into out. A missing file is created as an empty object,
// a malformed one is reported and treated as empty.
func load(ctx context.Context, path string, out any) error {
	found, err := fsstore.ReadJSON(path, out)
	switch {
	case errors.Is(err, fsstore.ErrDecode):
		logger.LogEvent(ctx, logger.Store, slog.LevelWarn, "store.malformed",
			slog.String("driver", "json"),
			slog.String("path", path),
			slog.String("err", err.Error()),
		)
		return nil
	case err != nil:
		return fmt.Errorf("jsonstore: load %s: %w", path, err)
	}
	if found {
		return nil
	}
	if err := persist(ctx, path, map[string]any{}); err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.Store, slog.LevelInfo, "store.created",
		slog.String("driver", "json"),
		slog.String("path", path),
	)
	return nil
}

func persist(ctx context.Context, path string, doc any) error {
	err := fsstore.WithLock(ctx, fsstore.LockPath(path), func() error {
		return fsstore.WriteJSON(path, doc, fileOpts)
	})
	if err != nil {
		return fmt.Errorf("jsonstore: save %s: %w", path, err)
	}
	return nil
}
