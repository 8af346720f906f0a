package router

import (
	"log/slog"

	tg "github.com/m3rciful/catalogbot/core/telegram"
	"github.com/m3rciful/catalogbot/core/telegram/callbacks"
	"github.com/m3rciful/catalogbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	// NotFound is used when the registry has no not-found handler.
	NotFound tele.HandlerFunc
}

// CallbackRoute dispatches every inline button press through reg. Known keys
// are acknowledged before their handler runs.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key, _ := callbacks.ParseCallbackData(c.Callback())
		s := begin("callback."+handlerName(key), slog.String("cb_key", key))

		if h, ok := reg.GetCallback(key); ok && h != nil {
			_ = c.Respond()
			return s.run(c, func() error { return h(c) })
		}

		s.attrs = append(s.attrs, slog.String("reason", "not_found"))
		fallback := reg.CallbackNotFound()
		if fallback == nil {
			fallback = opts.NotFound
		}
		if fallback == nil {
			s.skip(c)
			return nil
		}
		return s.run(c, func() error { return fallback(c) })
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
