package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
)

type contextKey string

const (
	ctxRID        contextKey = "rid"
	ctxUpdateID   contextKey = "update_id"
	ctxUserID     contextKey = "user_id"
	ctxChatID     contextKey = "chat_id"
	ctxLogger     contextKey = "logger"
	ctxHandler    contextKey = "handler"
	ctxIdentifier contextKey = "identifier"
)

func ensure(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func valueFrom[T any](ctx context.Context, key contextKey) (T, bool) {
	var zero T
	if ctx == nil {
		return zero, false
	}
	v, ok := ctx.Value(key).(T)
	return v, ok
}

// intFrom accepts both int and int64 values stored under key.
func intFrom(ctx context.Context, key contextKey) int64 {
	if ctx == nil {
		return 0
	}
	switch v := ctx.Value(key).(type) {
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

// WithLogger stores log in ctx so that context-first helpers pick it up.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	ctx = ensure(ctx)
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxLogger, log)
}

// FromContext returns the logger stored by WithLogger, or L.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := valueFrom[*slog.Logger](ctx, ctxLogger); ok && l != nil {
		return l
	}
	return L
}

// WithRID attaches a request correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ensure(ctx), ctxRID, rid)
}

func RIDFrom(ctx context.Context) string {
	s, _ := valueFrom[string](ctx, ctxRID)
	return s
}

// WithUpdateMeta attaches the Telegram update, user and chat ids.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	ctx = context.WithValue(ensure(ctx), ctxUpdateID, updateID)
	ctx = context.WithValue(ctx, ctxUserID, userID)
	return context.WithValue(ctx, ctxChatID, chatID)
}

// WithHandler records which handler is processing the update.
func WithHandler(ctx context.Context, handler string) context.Context {
	ctx = ensure(ctx)
	if handler == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxHandler, handler)
}

func HandlerFrom(ctx context.Context) string {
	s, _ := valueFrom[string](ctx, ctxHandler)
	return s
}

// WithIdentifier records the acting user's handle. Every log line written
// with the returned context carries it as "identifier".
func WithIdentifier(ctx context.Context, id string) context.Context {
	ctx = ensure(ctx)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxIdentifier, id)
}

func IdentifierFrom(ctx context.Context) string {
	s, _ := valueFrom[string](ctx, ctxIdentifier)
	return s
}

func UserIDFrom(ctx context.Context) int64 { return intFrom(ctx, ctxUserID) }

func ChatIDFrom(ctx context.Context) int64 { return intFrom(ctx, ctxChatID) }

func UpdateIDFrom(ctx context.Context) int { return int(intFrom(ctx, ctxUpdateID)) }

// Sanitize drops control and format runes other than tab and newline.
// User-supplied names and links go through it before reaching a log line.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case unicode.IsControl(r) || unicode.Is(unicode.Cf, r):
			return -1
		}
		return r
	}, s)
}

// SanitizeLimit applies Sanitize and keeps at most max runes.
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	cleaned := Sanitize(s)
	if len(cleaned) <= max {
		return cleaned
	}
	r := []rune(cleaned)
	if len(r) <= max {
		return cleaned
	}
	return string(r[:max])
}

// BuildRID formats a correlation id as updateID:chatID:userID.
func BuildRID(updateID int, chatID, userID int64) string {
	return fmt.Sprintf("%d:%d:%d", updateID, chatID, userID)
}

// CompactRID rewrites a BuildRID value as dot-separated base36 segments.
// Anything else is returned unchanged.
func CompactRID(rid string) string {
	rid = strings.TrimSpace(rid)
	parts := strings.Split(rid, ":")
	if rid == "" || len(parts) != 3 {
		return rid
	}
	for i, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return rid
		}
		parts[i] = strconv.FormatInt(n, 36)
	}
	return strings.Join(parts, ".")
}
