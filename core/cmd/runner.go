// Package cmd is the process entry point shared by bots: it parses flags,
// loads config, bootstraps the app and runs it until SIGINT or SIGTERM.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/m3rciful/catalogbot/core/buildinfo"
	coreconfig "github.com/m3rciful/catalogbot/core/config"
	"github.com/m3rciful/catalogbot/core/logger"
	coretelegram "github.com/m3rciful/catalogbot/core/telegram"
)

// ConfigCarrier exposes the embedded core configuration.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp is what Bootstrap hands back to be run.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Options wire a bot into Run. LoadConfig and Bootstrap are required.
type Options struct {
	Name              string
	ConfigEnvVar      string
	DefaultConfigPath string
	// Args defaults to os.Args[1:].
	Args []string
	// Stdout receives --version and --help output.
	Stdout io.Writer

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(ctx context.Context, cfg ConfigCarrier) (TelegramApp, error)

	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

func (o *Options) defaults() {
	if o.Name == "" {
		o.Name = "bot"
	}
	if o.ConfigEnvVar == "" {
		o.ConfigEnvVar = "CONFIG_PATH"
	}
	if o.Args == nil {
		o.Args = os.Args[1:]
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.ShutdownLogger == nil {
		o.ShutdownLogger = logger.Shutdown
	}
	if o.RunTelegram == nil {
		o.RunTelegram = coretelegram.RunTelegram
	}
}

// configPath picks --config, then the env var, then the default.
func (o *Options) configPath() (string, bool, error) {
	flags := pflag.NewFlagSet(o.Name, pflag.ContinueOnError)
	flags.SetOutput(o.Stdout)
	path := flags.StringP("config", "c", "", "path to the YAML config (env "+o.ConfigEnvVar+")")
	version := flags.Bool("version", false, "print build information and exit")
	if err := flags.Parse(o.Args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return "", true, nil
		}
		return "", false, fmt.Errorf("cmd: %w", err)
	}
	if *version {
		fmt.Fprintf(o.Stdout, "%s %s (commit %s, built %s)\n", o.Name, buildinfo.Version, buildinfo.Commit, buildinfo.Date)
		return "", true, nil
	}
	for _, candidate := range []string{*path, os.Getenv(o.ConfigEnvVar), o.DefaultConfigPath} {
		if candidate != "" {
			return candidate, false, nil
		}
	}
	return "", false, fmt.Errorf("cmd: no config path: pass --config or set %s", o.ConfigEnvVar)
}

// Run blocks until the bot stops. A signal-triggered stop returns nil.
func Run(opts Options) error {
	if opts.LoadConfig == nil || opts.Bootstrap == nil {
		return errors.New("cmd: LoadConfig and Bootstrap are required")
	}
	opts.defaults()

	cfgPath, exit, err := opts.configPath()
	if err != nil || exit {
		return err
	}

	log.Printf("loading config: %s", cfgPath)
	cfg, err := opts.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("cmd: load config: %w", err)
	}
	if cfg == nil || cfg.CoreConfig() == nil {
		return errors.New("cmd: loaded config is missing core configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startedAt := time.Now()
	application, err := opts.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap: %w", err)
	}
	defer func() {
		if err := opts.ShutdownLogger(); err != nil {
			log.Printf("logger shutdown: %v", err)
		}
	}()

	runOpts, err := application.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options: %w", err)
	}
	return opts.RunTelegram(ctx, withLifecycleLogs(runOpts, startedAt))
}

// withLifecycleLogs adds "ready" after OnStart and "shutdown" before OnStop.
func withLifecycleLogs(ro coretelegram.RunOptions, startedAt time.Time) coretelegram.RunOptions {
	onStart, onStop := ro.OnStart, ro.OnStop
	ro.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if onStart != nil {
			if err := onStart(ctx, rt); err != nil {
				return err
			}
		}
		logger.Info(ctx, "app", "ready", slog.Duration("startup", time.Since(startedAt)))
		return nil
	}
	ro.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.Info(ctx, "app", "shutdown", slog.Duration("uptime", time.Since(startedAt)))
		if onStop != nil {
			return onStop(ctx, rt)
		}
		return nil
	}
	return ro
}
