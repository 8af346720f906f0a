package helpers

import (
	"context"

	"github.com/m3rciful/catalogbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const (
	ctxKey = "logger_ctx"
	ridKey = "rid"
)

// IDs returns the update, chat and sender ids of c. Missing parts are zero.
func IDs(c tele.Context) (updateID int, chatID, userID int64) {
	updateID = c.Update().ID
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	return updateID, chatID, userID
}

// RID returns the request id of the update in c, assigning one on first use.
func RID(c tele.Context) string {
	if rid, ok := c.Get(ridKey).(string); ok && rid != "" {
		return rid
	}
	rid := logger.BuildRID(IDs(c))
	c.Set(ridKey, rid)
	return rid
}

// BuildContext returns the logging context of the update in c. It is built
// once per update and carries the rid, the ids and the sender's handle.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := c.Get(ctxKey).(context.Context); ok && ctx != nil {
		return ctx
	}
	updateID, chatID, userID := IDs(c)
	ctx := logger.WithRID(context.Background(), RID(c))
	ctx = logger.WithUpdateMeta(ctx, updateID, userID, chatID)
	ctx = logger.WithIdentifier(ctx, Username(c))
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	c.Set(ctxKey, ctx)
	return ctx
}

// WithHandler tags the update context with the handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	c.Set(ctxKey, ctx)
	return ctx
}
