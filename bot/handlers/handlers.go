// Package handlers adapts Telegram updates to dispatch triggers and renders
// the dispatcher's responses back through the telegram helpers.
package handlers

import (
	"errors"
	"log/slog"

	"github.com/m3rciful/catalogbot/bot/dispatch"
	"github.com/m3rciful/catalogbot/bot/flow"
	"github.com/m3rciful/catalogbot/bot/roles"
	"github.com/m3rciful/catalogbot/core/logger"
	tg "github.com/m3rciful/catalogbot/core/telegram"
	"github.com/m3rciful/catalogbot/core/telegram/callbacks"
	"github.com/m3rciful/catalogbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/catalogbot/core/telegram/helpers"
	"github.com/m3rciful/catalogbot/core/telegram/keyboard"
	"github.com/m3rciful/catalogbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

const component = "handlers"

// Handlers owns the Telegram-facing side of the bot.
type Handlers struct {
	dispatcher *dispatch.Dispatcher
	machine    *flow.Machine
}

// New returns Handlers backed by d. m answers InProgress for text routing.
func New(d *dispatch.Dispatcher, m *flow.Machine) *Handlers {
	return &Handlers{dispatcher: d, machine: m}
}

// Register adds every command and callback to reg.
func (h *Handlers) Register(reg *tg.Registry) error {
	for name, cmd := range map[string]commands.Command{
		dispatch.CmdStart: {
			Description: "Open the menu",
			PrivateOnly: true,
		},
		dispatch.CmdSearch: {Description: "Look up a resource by name"},
		dispatch.CmdCancel: {Description: "Cancel the current action"},
	} {
		cmd.Handler = h.command(name)
		if err := reg.RegisterCommand("/"+name, cmd); err != nil {
			return err
		}
	}

	for _, key := range []string{
		dispatch.CbAddResource,
		dispatch.CbAdminPanel,
		dispatch.CbOwnerPanel,
		dispatch.CbAddAdmin,
		dispatch.CbAddOwner,
		dispatch.CbDelOwner,
		dispatch.CbBack,
		dispatch.CbCancel,
	} {
		if err := reg.RegisterCallback(key, h.callback(key)); err != nil {
			return err
		}
	}
	reg.SetTextFallback(h.Handle)
	return nil
}

// InProgress reports whether the sender has an active flow.
func (h *Handlers) InProgress(c tele.Context) bool {
	id := identifier(c)
	return id != "" && h.machine.InProgress(id)
}

// Handle feeds a plain text message to the dispatcher.
func (h *Handlers) Handle(c tele.Context) error {
	return h.dispatch(c, dispatch.Trigger{
		Kind:       dispatch.KindText,
		Identifier: identifier(c),
		Private:    middleware.IsPrivate(c),
		Text:       c.Text(),
	})
}

func (h *Handlers) command(name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		args := ""
		if msg := c.Message(); msg != nil {
			args = msg.Payload
		}
		return h.dispatch(c, dispatch.Trigger{
			Kind:       dispatch.KindCommand,
			Identifier: identifier(c),
			Private:    middleware.IsPrivate(c),
			Action:     name,
			Text:       args,
		})
	}
}

func (h *Handlers) callback(key string) tele.HandlerFunc {
	return func(c tele.Context) error {
		action := callbacks.CallbackKey(c)
		if action == "" {
			action = key
		}
		return h.dispatch(c, dispatch.Trigger{
			Kind:       dispatch.KindCallback,
			Identifier: identifier(c),
			Private:    middleware.IsPrivate(c),
			Action:     action,
		})
	}
}

func (h *Handlers) dispatch(c tele.Context, t dispatch.Trigger) error {
	ctx := tghelpers.BuildContext(c)
	resp, err := h.dispatcher.Dispatch(ctx, t)
	switch {
	case errors.Is(err, dispatch.ErrMissingIdentifier):
		logger.Warn(ctx, component, "dispatch.no_identifier",
			slog.String("kind", t.Kind.String()),
			slog.String("action", t.Action),
		)
	case err != nil:
		logger.Error(ctx, component, "dispatch.failed",
			slog.String("kind", t.Kind.String()),
			slog.String("action", t.Action),
			slog.String("identifier", string(t.Identifier)),
			slog.String("err", err.Error()),
		)
	}
	if resp == nil {
		return nil
	}
	return render(c, resp)
}

func render(c tele.Context, resp *dispatch.Response) error {
	return tghelpers.Send(c, tghelpers.Reply{
		Text:     resp.Text,
		Markdown: resp.Markdown,
		Edit:     resp.Edit,
		Markup:   menuMarkup(resp.Menu),
	})
}

func menuMarkup(menu [][]dispatch.Button) *tele.ReplyMarkup {
	rows := make([][]keyboard.Button, len(menu))
	for i, row := range menu {
		for _, b := range row {
			rows[i] = append(rows[i], keyboard.Button{Text: b.Text, Unique: b.Action})
		}
	}
	return keyboard.Inline(rows...)
}

func identifier(c tele.Context) roles.Identifier {
	return roles.NormalizeIdentifier(tghelpers.Username(c))
}
