// Package boltstore implements the role store and resource directory on a
// single bbolt database file.
package boltstore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/m3rciful/catalogbot/bot/directory"
	"github.com/m3rciful/catalogbot/bot/roles"
	"github.com/m3rciful/catalogbot/core/fsstore"
	"github.com/m3rciful/catalogbot/core/logger"
)

const (
	rolesBucket     = "roles"
	resourcesBucket = "resources"
)

// Store is backed by one bbolt file. bbolt serializes write transactions,
// so a single Store is safe for concurrent use.
type Store struct {
	db *bbolt.DB
}

var (
	_ roles.Store     = (*Store)(nil)
	_ directory.Store = (*Resources)(nil)
)

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("boltstore: path is required")
	}
	clean := filepath.Clean(path)
	if err := fsstore.EnsureDir(filepath.Dir(clean), 0o755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(clean, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", clean, err)
	}
	s := &Store{db: db}
	if err := s.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.LogEvent(context.Background(), logger.Store, slog.LevelInfo, "store.open",
		slog.String("driver", "bolt"),
		slog.String("path", clean),
	)
	return s, nil
}

// Close closes the database file.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Resources exposes the resource bucket as a directory.Store.
func (s *Store) Resources() *Resources {
	return &Resources{db: s.db}
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{rolesBucket, resourcesBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("boltstore: create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

func bucket(tx *bbolt.Tx, name string) (*bbolt.Bucket, error) {
	b := tx.Bucket([]byte(name))
	if b == nil {
		return nil, fmt.Errorf("boltstore: %s bucket is missing", name)
	}
	return b, nil
}

func (s *Store) Role(ctx context.Context, id roles.Identifier) (roles.Role, error) {
	if err := ctx.Err(); err != nil {
		return roles.RoleNone, err
	}
	role := roles.RoleNone
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, rolesBucket)
		if err != nil {
			return err
		}
		raw := b.Get([]byte(id))
		if raw == nil {
			return nil
		}
		role, err = roles.ParseRole(string(raw))
		return err
	})
	return role, err
}

func (s *Store) SetRole(ctx context.Context, id roles.Identifier, role roles.Role) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if role == roles.RoleNone {
		return s.DeleteRole(ctx, id)
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, rolesBucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), []byte(role.String()))
	})
	if err != nil {
		return fmt.Errorf("boltstore: set role: %w", err)
	}
	logger.LogEvent(ctx, logger.SVCRoles, slog.LevelInfo, "role.set",
		slog.String("identifier", string(id)),
		slog.String("role", role.String()),
	)
	return nil
}

func (s *Store) DeleteRole(ctx context.Context, id roles.Identifier) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, rolesBucket)
		if err != nil {
			return err
		}
		return b.Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("boltstore: delete role: %w", err)
	}
	logger.LogEvent(ctx, logger.SVCRoles, slog.LevelInfo, "role.deleted",
		slog.String("identifier", string(id)),
	)
	return nil
}

func (s *Store) ListByRole(ctx context.Context, role roles.Role) ([]roles.Identifier, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := role.String()
	var out []roles.Identifier
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, rolesBucket)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			if string(v) == want {
				out = append(out, roles.Identifier(k))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Resources is the resource bucket of a Store.
type Resources struct {
	db *bbolt.DB
}

func (r *Resources) Put(ctx context.Context, name, link string) error {
	return r.PutMany(ctx, []string{name}, link)
}

// PutMany writes every name in one transaction.
func (r *Resources) PutMany(ctx context.Context, names []string, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(names) == 0 {
		return nil
	}
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, resourcesBucket)
		if err != nil {
			return err
		}
		for _, name := range names {
			if name == "" {
				continue
			}
			if err := b.Put([]byte(name), []byte(link)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("boltstore: put resources: %w", err)
	}
	logger.LogEvent(ctx, logger.SVCDirectory, slog.LevelInfo, "resource.saved",
		slog.Int("count", len(names)),
		logger.List("names", names, 10),
	)
	return nil
}

func (r *Resources) Get(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	var (
		link string
		ok   bool
	)
	err := r.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, resourcesBucket)
		if err != nil {
			return err
		}
		if v := b.Get([]byte(name)); v != nil {
			link, ok = string(v), true
		}
		return nil
	})
	return link, ok, err
}
