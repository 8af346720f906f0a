// Package config holds the settings every bot shares: the Bot API token,
// the update delivery mode and logging. Values come from a YAML file with
// environment variables layered on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	RunModeWebhook  = "webhook"
	RunModeLongpoll = "longpoll"
)

type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds of 0 selects the poller default.
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig is required only in webhook mode.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
	// Secret is echoed by Telegram in X-Telegram-Bot-Api-Secret-Token.
	Secret string `yaml:"secret" envconfig:"WEBHOOK_SECRET"`
}

type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample" envconfig:"LOG_DEBUG_SAMPLE"`
	// Stacks adds a goroutine stack to ERROR lines when truthy.
	Stacks     string `yaml:"stacks" envconfig:"LOG_STACKS"`
	Dir        string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile    string `yaml:"bot_file"`
	ErrorsFile string `yaml:"errors_file"`
	// Profile such as "debug" or "prod" picks format defaults.
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// Config is the part of the configuration that belongs to the reusable core.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Load decodes path and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Decode fills out from the YAML file at path, then from the environment.
// A missing file is not an error. out may be any struct embedding Config
// inline.
func Decode(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := envconfig.Process("", out); err != nil {
		return fmt.Errorf("config from env: %w", err)
	}
	return nil
}

// Normalize resolves run mode aliases and reports every invalid field at once.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	var errs []error
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		errs = append(errs, errors.New("telegram.token (BOT_TOKEN) is required"))
	}

	switch mode := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode)); mode {
	case "", "polling", RunModeLongpoll:
		cfg.Telegram.RunMode = RunModeLongpoll
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			errs = append(errs, errors.New("telegram.longpoll_timeout_seconds must be >= 0"))
		}
	case RunModeWebhook:
		cfg.Telegram.RunMode = RunModeWebhook
		errs = append(errs, cfg.Webhook.validate()...)
	default:
		errs = append(errs, fmt.Errorf("telegram.run_mode %q: want %s or %s", cfg.Telegram.RunMode, RunModeWebhook, RunModeLongpoll))
	}
	return errors.Join(errs...)
}

func (w WebhookConfig) validate() []error {
	var errs []error
	if strings.TrimSpace(w.URL) == "" {
		errs = append(errs, errors.New("webhook.url is required in webhook mode"))
	}
	if strings.TrimSpace(w.Listen) == "" {
		errs = append(errs, errors.New("webhook.listen is required in webhook mode"))
	}
	if w.Port <= 0 || w.Port > 65535 {
		errs = append(errs, fmt.Errorf("webhook.port %d out of range", w.Port))
	}
	return errs
}
