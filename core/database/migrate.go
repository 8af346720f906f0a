package database

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m3rciful/catalogbot/core/logger"
)

const migrateComponent = "db.migrate"

// DefaultMigrationsDir is resolved against the working directory when no
// directory is configured.
const DefaultMigrationsDir = "migrations"

// RunMigrations waits for the server and applies every pending up migration
// in dir.
func RunMigrations(ctx context.Context, cfg Config, dir string) error {
	fail := func(event string, err error) error {
		logger.Error(ctx, migrateComponent, event, slog.String("err", err.Error()))
		return err
	}

	dsn := cfg.URL()
	if err := WaitForPostgres(ctx, dsn, 30*time.Second); err != nil {
		return fail("db.not_ready", fmt.Errorf("database not ready: %w", err))
	}

	path, err := resolveMigrationsDir(dir)
	if err != nil {
		return fail("resolve", err)
	}
	set := scanMigrations(path)
	logger.Debug(ctx, migrateComponent, "resolve",
		slog.String("path", path),
		slog.Int("count", len(set)),
		logger.List("names", set.names(0, ^uint64(0)), 6),
	)

	m, err := migrate.New("file://"+filepath.ToSlash(path), dsn)
	if err != nil {
		return fail("init", fmt.Errorf("initialize migrations: %w", err))
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn(ctx, migrateComponent, "close", slog.String("err", errors.Join(srcErr, dbErr).Error()))
		}
	}()

	from, _, _ := m.Version()
	start := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error(ctx, migrateComponent, "apply",
			slog.Uint64("from_ver", uint64(from)),
			slog.Duration("duration", time.Since(start)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("apply migrations: %w", err)
	}
	to, _, _ := m.Version()

	applied := set.names(uint64(from), uint64(to))
	logger.Info(ctx, migrateComponent, "summary",
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("count", len(applied)),
		logger.List("names", applied, 6),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func resolveMigrationsDir(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = DefaultMigrationsDir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve migrations dir: %w", err)
	}
	return abs, nil
}

type migrationFile struct {
	version uint64
	name    string
}

// migrationSet is the up migrations of a directory ordered by version.
type migrationSet []migrationFile

func scanMigrations(dir string) migrationSet {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var set migrationSet
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		prefix, _, _ := strings.Cut(name, "_")
		v, _ := strconv.ParseUint(prefix, 10, 64)
		set = append(set, migrationFile{version: v, name: name})
	}
	slices.SortFunc(set, func(a, b migrationFile) int {
		return cmp.Or(cmp.Compare(a.version, b.version), strings.Compare(a.name, b.name))
	})
	return set
}

// names lists files with from < version <= to.
func (s migrationSet) names(from, to uint64) []string {
	var out []string
	for _, f := range s {
		if f.version > from && f.version <= to {
			out = append(out, f.name)
		}
	}
	return out
}
