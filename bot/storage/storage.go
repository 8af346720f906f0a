// Package storage selects and opens a persistence backend.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/m3rciful/catalogbot/bot/directory"
	"github.com/m3rciful/catalogbot/bot/roles"
	"github.com/m3rciful/catalogbot/bot/storage/boltstore"
	"github.com/m3rciful/catalogbot/bot/storage/jsonstore"
	"github.com/m3rciful/catalogbot/bot/storage/pgstore"
	"github.com/m3rciful/catalogbot/core/database"
	"github.com/m3rciful/catalogbot/core/logger"
)

// Supported drivers.
const (
	DriverJSON     = "json"
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
)

// Config selects the backend.
type Config struct {
	Driver        string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	Dir           string `yaml:"dir" envconfig:"STORAGE_DIR"`
	BoltPath      string `yaml:"bolt_path" envconfig:"STORAGE_BOLT_PATH"`
	MigrationsDir string `yaml:"migrations_dir" envconfig:"STORAGE_MIGRATIONS_DIR"`
}

// Normalize lower-cases the driver and fills defaults.
func (c *Config) Normalize() error {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	if c.Driver == "" {
		c.Driver = DriverJSON
	}
	if strings.TrimSpace(c.Dir) == "" {
		c.Dir = "."
	}
	switch c.Driver {
	case DriverJSON, DriverPostgres:
	case DriverBolt:
		if strings.TrimSpace(c.BoltPath) == "" {
			c.BoltPath = filepath.Join(c.Dir, "catalog.db")
		}
	default:
		return fmt.Errorf("storage: unknown driver %q", c.Driver)
	}
	if strings.TrimSpace(c.MigrationsDir) == "" {
		c.MigrationsDir = database.DefaultMigrationsDir
	}
	return nil
}

// Backend bundles the two stores of one driver.
type Backend struct {
	Driver    string
	Roles     roles.Store
	Resources directory.Store

	close func() error
}

// Close releases the backend's resources.
func (b *Backend) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}

// Open builds the backend named by cfg.Driver. db is used only by the
// postgres driver.
func Open(ctx context.Context, cfg Config, db database.Config) (*Backend, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}

	var (
		b   *Backend
		err error
	)
	switch cfg.Driver {
	case DriverJSON:
		b, err = openJSON(ctx, cfg)
	case DriverBolt:
		b, err = openBolt(cfg)
	case DriverPostgres:
		b, err = openPostgres(ctx, cfg, db)
	}
	if err != nil {
		logger.LogEvent(ctx, logger.Store, slog.LevelError, "store.open",
			slog.String("driver", cfg.Driver),
			slog.String("err", err.Error()),
		)
		return nil, err
	}
	b.Driver = cfg.Driver
	logger.LogEvent(ctx, logger.Store, slog.LevelInfo, "store.ready",
		slog.String("driver", cfg.Driver),
	)
	return b, nil
}

func openJSON(ctx context.Context, cfg Config) (*Backend, error) {
	rs, res, err := jsonstore.Open(ctx, cfg.Dir)
	if err != nil {
		return nil, err
	}
	return &Backend{Roles: rs, Resources: res}, nil
}

func openBolt(cfg Config) (*Backend, error) {
	s, err := boltstore.Open(cfg.BoltPath)
	if err != nil {
		return nil, err
	}
	return &Backend{Roles: s, Resources: s.Resources(), close: s.Close}, nil
}

func openPostgres(ctx context.Context, cfg Config, dbCfg database.Config) (*Backend, error) {
	if err := dbCfg.Normalize(); err != nil {
		return nil, err
	}
	if err := database.RunMigrations(ctx, dbCfg, cfg.MigrationsDir); err != nil {
		return nil, err
	}
	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		return nil, err
	}
	s := pgstore.New(db)
	return &Backend{Roles: s, Resources: s.Resources(), close: s.Close}, nil
}
