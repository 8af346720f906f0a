package router

import (
	"strings"

	tg "github.com/m3rciful/catalogbot/core/telegram"
	"github.com/m3rciful/catalogbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FSM is the part of a conversation manager the text route needs.
type FSM interface {
	InProgress(c tele.Context) bool
	Handle(c tele.Context) error
}

// TextOptions controls routing of plain text updates.
type TextOptions struct {
	// PrivateOnly drops text from groups and channels before any routing.
	PrivateOnly bool
	UnknownText tele.HandlerFunc
}

// TextRoutes builds the handler for plain text. A conversation in progress
// takes the message first, then command aliases, then the registry fallback
// and finally opts.UnknownText.
func TextRoutes(fsm FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		if opts.PrivateOnly && !middleware.IsPrivate(c) {
			begin("text_non_private").skip(c)
			return nil
		}
		name, h := resolveText(c, fsm, reg, opts)
		if h == nil {
			begin(name).skip(c)
			return nil
		}
		return begin(name).run(c, func() error { return h(c) })
	}
	return []tg.Route{{
		Endpoint: tele.OnText,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}}
}

func resolveText(c tele.Context, fsm FSM, reg *tg.Registry, opts TextOptions) (string, tele.HandlerFunc) {
	if fsm != nil && fsm.InProgress(c) {
		return "fsm", fsm.Handle
	}
	if reg != nil {
		if text := c.Text(); strings.HasPrefix(text, "/") {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				return key, cmd.Handler
			}
		}
		if fb := reg.TextFallback(); fb != nil {
			return "fallback", fb
		}
	}
	return "unknown_text", opts.UnknownText
}
