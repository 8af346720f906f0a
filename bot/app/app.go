// Package app wires configuration, storage, the domain components and the
// Telegram runtime together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/catalogbot/bot/access"
	"github.com/m3rciful/catalogbot/bot/config"
	"github.com/m3rciful/catalogbot/bot/dispatch"
	"github.com/m3rciful/catalogbot/bot/flow"
	"github.com/m3rciful/catalogbot/bot/handlers"
	"github.com/m3rciful/catalogbot/bot/storage"
	"github.com/m3rciful/catalogbot/core/bootstrap"
	"github.com/m3rciful/catalogbot/core/logger"
	coretelegram "github.com/m3rciful/catalogbot/core/telegram"
	"github.com/m3rciful/catalogbot/core/telegram/router"
)

// App is a fully wired bot ready to hand to the Telegram runtime.
type App struct {
	cfg     *config.Config
	backend *storage.Backend

	Policy     *access.Policy
	Machine    *flow.Machine
	Dispatcher *dispatch.Dispatcher
	Handlers   *handlers.Handlers
}

// Bootstrap initializes logging, opens storage and wires the app.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	res, err := bootstrap.Run(ctx, bootstrap.Options[*storage.Backend]{
		Config: cfg.CoreConfig(),
		Open: func(ctx context.Context) (*storage.Backend, error) {
			return storage.Open(ctx, cfg.Storage, cfg.Database)
		},
	})
	if err != nil {
		return nil, err
	}
	a := New(cfg, res.Storage)
	logger.Info(ctx, "app", "wired",
		slog.String("driver", res.Storage.Driver),
		slog.String("identifier", string(cfg.PrimaryOwner())),
	)
	return a, nil
}

// New wires the domain components on top of an opened backend.
func New(cfg *config.Config, backend *storage.Backend) *App {
	policy := access.NewPolicy(cfg.PrimaryOwner(), backend.Roles)
	machine := flow.NewMachine(nil, policy, backend.Roles, backend.Resources)
	d := dispatch.New(policy, backend.Roles, backend.Resources, machine)
	return &App{
		cfg:        cfg,
		backend:    backend,
		Policy:     policy,
		Machine:    machine,
		Dispatcher: d,
		Handlers:   handlers.New(d, machine),
	}
}

// TelegramRunOptions builds the runtime configuration for this bot.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	if err := a.Handlers.Register(reg); err != nil {
		return coretelegram.RunOptions{}, fmt.Errorf("app: register handlers: %w", err)
	}

	var routes []coretelegram.Route
	routes = append(routes, router.CommandRoutes(reg, router.CommandRouteOptions{})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a.Handlers, reg, router.TextOptions{PrivateOnly: true})...)

	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(),
		Routes:      routes,
		OnStop: func(ctx context.Context, _ coretelegram.Runtime) error {
			return a.Close(ctx)
		},
	}, nil
}

// Close releases storage. Active flows are dropped.
func (a *App) Close(ctx context.Context) error {
	if n := a.Machine.Active(); n > 0 {
		logger.Info(ctx, "app", "flows.dropped", slog.Int("count", n))
	}
	return a.backend.Close()
}
