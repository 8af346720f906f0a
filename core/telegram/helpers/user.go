package helpers

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Username returns the sender's public handle without the leading "@",
// or "" when the sender has none.
func Username(c tele.Context) string {
	if c == nil {
		return ""
	}
	u := c.Sender()
	if u == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(u.Username, "@"))
}
