package router

import (
	"context"
	"log/slog"

	"github.com/m3rciful/catalogbot/core/logger"
	tg "github.com/m3rciful/catalogbot/core/telegram"
	"github.com/m3rciful/catalogbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	// OnChatReject handles PrivateOnly commands sent from groups.
	OnChatReject tele.HandlerFunc
}

// CommandRoutes turns every registered command into a route wrapped with
// recovery, update logging and the handler summary.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	private := middleware.PrivateOnlyMiddleware(middleware.ChatOptions{OnReject: opts.OnChatReject})

	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for name, def := range cmds {
		inner := def.Handler
		if def.PrivateOnly {
			inner = private(inner)
		}
		h := func(c tele.Context) error {
			return begin(name).run(c, func() error { return inner(c) })
		}
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(h)),
		})
	}

	logger.Info(context.Background(), "tg.wire", "complete",
		slog.Int("commands", len(cmds)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}
