package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/catalogbot/core/logger"
	"github.com/m3rciful/catalogbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var outbound atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes Send through d. A nil d makes Send synchronous.
func SetDispatcher(d *sender.Dispatcher) {
	outbound.Store(d)
}

// Reply is one outgoing message.
type Reply struct {
	Text     string
	Markdown bool
	// Edit replaces the message a callback button was pressed on. Outside
	// callbacks it is ignored.
	Edit   bool
	Markup *tele.ReplyMarkup
}

// Send delivers r to the chat of c. New messages go through the dispatcher
// when one is set; edits are done inline so the pressed button updates at once.
func Send(c tele.Context, r Reply) error {
	opts := &tele.SendOptions{ReplyMarkup: r.Markup}
	if r.Markdown {
		opts.ParseMode = tele.ModeMarkdown
	}
	if r.Edit && c.Callback() != nil {
		return c.EditOrSend(r.Text, opts)
	}
	return enqueue(c, "send.text", "sendMessage", func() error {
		return c.Send(r.Text, opts)
	})
}

func enqueue(c tele.Context, action, endpoint string, run func() error) error {
	d := outbound.Load()
	if d == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, action, endpoint, run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}
