// Package config loads the catalog bot configuration: the shared core
// settings plus the primary owner and the storage backend.
package config

import (
	"fmt"

	"github.com/m3rciful/catalogbot/bot/roles"
	"github.com/m3rciful/catalogbot/bot/storage"
	coreconfig "github.com/m3rciful/catalogbot/core/config"
	coredatabase "github.com/m3rciful/catalogbot/core/database"
)

// BotConfig holds settings specific to this bot.
type BotConfig struct {
	// OwnerUsername is the primary owner. It is never stored and cannot be revoked.
	OwnerUsername string `yaml:"owner_username" envconfig:"OWNER_USERNAME"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Bot      BotConfig           `yaml:"bot"`
	Storage  storage.Config      `yaml:"storage"`
	Database coredatabase.Config `yaml:"database"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// PrimaryOwner returns the normalized primary owner identifier.
func (c *Config) PrimaryOwner() roles.Identifier {
	return roles.Identifier(c.Bot.OwnerUsername)
}

// Load reads path, overlays the environment and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates cfg and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	cfg.Bot.OwnerUsername = string(roles.NormalizeIdentifier(cfg.Bot.OwnerUsername))
	if cfg.Bot.OwnerUsername == "" {
		return fmt.Errorf("bot.owner_username (OWNER_USERNAME) is required")
	}

	if err := cfg.Storage.Normalize(); err != nil {
		return err
	}
	if cfg.Storage.Driver == storage.DriverPostgres {
		if err := cfg.Database.Normalize(); err != nil {
			return err
		}
	}
	return nil
}
