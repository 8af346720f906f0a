package middleware

import (
	tele "gopkg.in/telebot.v4"
)

const countersKey = "tg.counters"

// Counters describe what a handler sent back for one update.
type Counters struct {
	// Messages counts successful sends and edits.
	Messages int
	// Keyboard is set once any of them carried reply markup.
	Keyboard bool
}

// countingContext wraps tele.Context and records outgoing messages in Counters.
type countingContext struct {
	tele.Context
	counters *Counters
}

func (m countingContext) record(err error, opts []any) error {
	if err != nil {
		return err
	}
	m.counters.Messages++
	if hasKeyboard(opts) {
		m.counters.Keyboard = true
	}
	return nil
}

func hasKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (m countingContext) Send(what any, opts ...any) error {
	return m.record(m.Context.Send(what, opts...), opts)
}

func (m countingContext) Reply(what any, opts ...any) error {
	return m.record(m.Context.Reply(what, opts...), opts)
}

func (m countingContext) Edit(what any, opts ...any) error {
	return m.record(m.Context.Edit(what, opts...), opts)
}

func (m countingContext) EditOrSend(what any, opts ...any) error {
	return m.record(m.Context.EditOrSend(what, opts...), opts)
}

func (m countingContext) EditOrReply(what any, opts ...any) error {
	return m.record(m.Context.EditOrReply(what, opts...), opts)
}

// MessageMetricsMiddleware hands the next handler a context that counts
// outgoing messages; read them back with GetCounters.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		counters := &Counters{}
		c.Set(countersKey, counters)
		return next(countingContext{Context: c, counters: counters})
	}
}

// GetCounters returns the message count and keyboard flag recorded for c.
func GetCounters(c tele.Context) (int, bool) {
	if v, ok := c.Get(countersKey).(*Counters); ok && v != nil {
		return v.Messages, v.Keyboard
	}
	return 0, false
}
