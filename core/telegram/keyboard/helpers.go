// Package keyboard builds inline keyboards from plain button descriptions.
package keyboard

import tele "gopkg.in/telebot.v4"

// Button is one inline button. Unique selects the callback handler and Data
// travels with the press as its payload.
type Button struct {
	Text   string
	Unique string
	Data   string
}

// Inline lays rows out top to bottom. Empty rows are dropped; with no
// buttons at all it returns nil, which send options accept as "no keyboard".
func Inline(rows ...[]Button) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		line := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			line = append(line, *markup.Data(b.Text, b.Unique, b.Data).Inline())
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, line)
	}
	if len(markup.InlineKeyboard) == 0 {
		return nil
	}
	return markup
}
