package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
	// stacks attaches a goroutine stack to ERROR and above.
	stacks bool
}

type field struct {
	key string
	val any
}

// structuredHandler renders records as flat key/value lines. Groups become
// dotted key prefixes.
type structuredHandler struct {
	cfg    handlerConfig
	attrs  []field
	prefix string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = append([]string(nil), defaultKeyOrder...)
	}
	return &structuredHandler{cfg: cfg}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errors.New("logger: writer not initialized")
	}

	rec := make(record, 16)
	ts := r.Time.UTC()
	rec["ts"] = ts.Truncate(time.Millisecond).Format(timeFormatMillis)
	rec["level"] = normalizeLevel(r.Level.String())
	if h.cfg.format == formatJSON {
		rec["ts_unix_nano"] = ts.UnixNano()
	}
	for _, f := range h.attrs {
		rec[f.key] = f.val
	}
	r.Attrs(func(a slog.Attr) bool {
		flatten(h.prefix, a, rec.put)
		return true
	})
	rec.addContext(ctx)
	h.finish(rec, r)

	return h.cfg.writer.Write(r.Level, h.encode(rec))
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]field(nil), h.attrs...)
	for _, a := range attrs {
		flatten(h.prefix, a, func(k string, v any) {
			clone.attrs = append(clone.attrs, field{key: k, val: v})
		})
	}
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

// finish fills defaults and applies the field vocabulary.
func (h *structuredHandler) finish(rec record, r slog.Record) {
	if rid := rec.str("rid"); rid != "" {
		if compact := CompactRID(rid); compact != rid {
			if h.cfg.format == formatJSON {
				rec.setDefault("rid_full", rid)
			}
			rec["rid"] = compact
		}
	}
	if rec.str("event") == "" {
		rec["event"] = firstNonEmpty(r.Message, "unknown")
	}
	if rec.str("component") == "" {
		rec["component"] = "app"
	}
	if h.cfg.stacks && r.Level >= slog.LevelError {
		rec.setDefault("stack", string(debug.Stack()))
	}
	sanitizeEnumerations(rec)
	rec.prune()
}

func (h *structuredHandler) encode(rec record) []byte {
	var b bytes.Buffer
	keys := orderedKeys(rec, h.cfg.keyOrder)
	if h.cfg.format == formatJSON {
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			writeJSON(&b, k)
			b.WriteByte(':')
			writeJSON(&b, rec[k])
		}
		b.WriteByte('}')
	} else {
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(formatValueKV(rec[k]))
		}
	}
	b.WriteByte('\n')
	return b.Bytes()
}

func writeJSON(b *bytes.Buffer, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal(fmt.Sprint(v))
	}
	b.Write(data)
}

// record is one log line under construction.
type record map[string]any

func (r record) put(key string, v any) { r[key] = v }

func (r record) setDefault(key string, v any) {
	if _, ok := r[key]; !ok {
		r[key] = v
	}
}

func (r record) str(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// prune drops nil values and empty strings.
func (r record) prune() {
	for k, v := range r {
		switch val := v.(type) {
		case nil:
			delete(r, k)
		case string:
			if val == "" {
				delete(r, k)
			}
		}
	}
}

// addContext copies request metadata from ctx without overriding explicit attrs.
func (r record) addContext(ctx context.Context) {
	if ctx == nil {
		return
	}
	if rid := RIDFrom(ctx); rid != "" {
		r.setDefault("rid", rid)
	}
	if id := IdentifierFrom(ctx); id != "" {
		r.setDefault("identifier", id)
	}
	if uid := UserIDFrom(ctx); uid != 0 {
		r.setDefault("user_id", uid)
	}
	if upd := UpdateIDFrom(ctx); upd != 0 {
		r.setDefault("update_id", upd)
	}
	if cid := ChatIDFrom(ctx); cid != 0 {
		r.setDefault("chat_id", cid)
	}
	if hid := HandlerFrom(ctx); hid != "" {
		r.setDefault("handler", hid)
	}
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

func flatten(prefix string, a slog.Attr, emit func(string, any)) {
	key := joinKey(prefix, a.Key)
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			flatten(key, child, emit)
		}
		return
	}
	if key == "" {
		return
	}
	if k, val, ok := normalizeAttr(key, v); ok {
		emit(k, val)
	}
}

// normalizeAttr maps a slog value to a JSON-friendly one. Durations become
// whole milliseconds under a "_ms" key; times become RFC 3339 strings.
func normalizeAttr(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(v.String()), true
	case slog.KindDuration:
		return durationKey(key), RoundMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, v.Uint64(), true
	case slog.KindAny:
		switch x := v.Any().(type) {
		case nil:
			return key, nil, false
		case error:
			return key, x.Error(), true
		case string:
			return key, strings.TrimSpace(x), true
		case time.Duration:
			return durationKey(key), RoundMS(x).Milliseconds(), true
		case fmt.Stringer:
			return key, x.String(), true
		default:
			return key, fmt.Sprint(x), true
		}
	}
	return key, v.Any(), true
}

// durationKey appends the "_ms" unit to duration keys that lack it.
func durationKey(key string) string {
	if strings.HasSuffix(key, "_ms") {
		return key
	}
	return key + "_ms"
}

func sanitizeEnumerations(rec record) {
	if level := rec.str("level"); level != "" {
		rec["level"] = normalizeLevel(level)
	}
	for key, e := range enums {
		raw := rec.str(key)
		if raw == "" {
			continue
		}
		if v, known := e.normalize(raw); known || e.keepUnknown {
			rec[key] = v
		} else {
			delete(rec, key)
		}
	}
}

// orderedKeys lists keys named in order first, then the rest alphabetically.
func orderedKeys(rec record, order []string) []string {
	keys := make([]string, 0, len(rec))
	seen := make(map[string]bool, len(rec))
	for _, k := range order {
		if _, ok := rec[k]; ok && !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	rest := make([]string, 0, len(rec)-len(keys))
	for k := range rec {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func formatValueKV(val any) string {
	var s string
	switch v := val.(type) {
	case string:
		s = v
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	default:
		s = fmt.Sprint(v)
	}
	if strings.IndexFunc(s, needsQuote) >= 0 {
		return strconv.Quote(s)
	}
	return s
}

func needsQuote(r rune) bool {
	return r <= ' ' || r == '=' || r == '"'
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
