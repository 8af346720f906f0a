package logger

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// RoundMS rounds d to whole milliseconds; negative durations become zero.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// SummarizeStrings joins up to limit elements and reports whether truncation happened.
func SummarizeStrings(values []string, limit int) (string, bool) {
	if limit <= 0 {
		return "", len(values) > 0
	}
	if len(values) <= limit {
		return strings.Join(values, ", "), false
	}
	return strings.Join(values[:limit], ", "), true
}

// List renders values as one sanitized attribute, e.g. "a, b, c (+4)".
func List(key string, values []string, limit int) slog.Attr {
	s, truncated := SummarizeStrings(values, limit)
	if truncated {
		s += " (+" + strconv.Itoa(len(values)-limit) + ")"
	}
	return slog.String(key, SanitizeLimit(s, 256))
}
