package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/catalogbot/core/logger"
	"github.com/m3rciful/catalogbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/catalogbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// seenUpdates remembers update ids for a short while so an update routed
// through several wrapped handlers is logged once.
type seenUpdates struct {
	mu    sync.Mutex
	ttl   time.Duration
	ids   map[int]time.Time
	sweep time.Time
}

var received = &seenUpdates{ttl: 10 * time.Second, ids: make(map[int]time.Time)}

// first reports whether id was not seen within ttl and records it.
func (s *seenUpdates) first(id int, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.sweep) > s.ttl {
		for k, at := range s.ids {
			if now.Sub(at) > s.ttl {
				delete(s.ids, k)
			}
		}
		s.sweep = now
	}
	if at, ok := s.ids[id]; ok && now.Sub(at) <= s.ttl {
		return false
	}
	s.ids[id] = now
	return true
}

// LoggerMiddleware assigns the update its rid and writes a sampled
// "update.received" debug line.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		tghelpers.RID(c)
		ctx := tghelpers.BuildContext(c)
		if logger.ShouldSampleDebug() && received.first(c.Update().ID, time.Now()) {
			logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", updateAttrs(c)...)
		}
		return next(c)
	}
}

func updateAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	upd := c.Update()
	switch {
	case upd.Callback != nil:
		key, payload := callbacks.ParseCallbackData(upd.Callback)
		attrs = append(attrs,
			slog.String("cb_key", logger.SanitizeLimit(key, 128)),
			slog.String("payload", logger.SanitizeLimit(payload, 256)),
		)
	case upd.Message != nil:
		attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(c.Text(), 256)))
	}
	return attrs
}
