package middleware

import (
	"log/slog"

	"github.com/m3rciful/catalogbot/core/logger"
	tghelpers "github.com/m3rciful/catalogbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// ChatOptions defines how chat-type checks should behave.
type ChatOptions struct {
	// OnReject runs instead of the handler; nil drops the update silently.
	OnReject tele.HandlerFunc
}

// IsPrivate reports whether the update came from a one-to-one chat.
func IsPrivate(c tele.Context) bool {
	chat := c.Chat()
	return chat != nil && chat.Type == tele.ChatPrivate
}

// PrivateOnlyMiddleware lets only private-chat updates through.
func PrivateOnlyMiddleware(opts ChatOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if IsPrivate(c) {
				return next(c)
			}
			ctx := tghelpers.BuildContext(c)
			chatType := ""
			if chat := c.Chat(); chat != nil {
				chatType = string(chat.Type)
			}
			logger.Debug(ctx, "tg", "chat.rejected",
				slog.String("chat_type", chatType),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
