package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// capture logs through a fresh handler and returns the written lines.
func capture(t *testing.T, cfg handlerConfig, emit func(log *slog.Logger)) []string {
	t.Helper()
	buf := &bytes.Buffer{}
	cfg.writer = newAsyncWriter(everything(buf), 1024)
	emit(slog.New(newStructuredHandler(cfg)))
	if err := cfg.writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	out := strings.TrimSpace(buf.String())
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func requestContext(rid string) context.Context {
	return WithUpdateMeta(WithRID(Background(), rid), 42, 7, 9)
}

func TestHandlerKeyOrder(t *testing.T) {
	tests := []struct {
		format logFormat
		sep    string
		want   []string
	}{
		{formatKV, " ", []string{"ts=", "level=INFO", "component=app", "event=test.event", "status=ok", "rid=rid-123"}},
		{formatJSON, ",", []string{`{"ts":`, `"level":"INFO"`, `"component":"app"`, `"event":"test.event"`, `"status":"ok"`, `"rid":"rid-123"`}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			lines := capture(t, handlerConfig{format: tt.format}, func(log *slog.Logger) {
				LogEvent(requestContext("rid-123"), log.With("component", "app"), slog.LevelInfo, "test.event",
					slog.String("cause", "unit"),
					slog.String("status", "ok"),
				)
			})
			if len(lines) != 1 {
				t.Fatalf("lines = %v", lines)
			}
			tokens := strings.Split(lines[0], tt.sep)
			for i, prefix := range tt.want {
				if i >= len(tokens) || !strings.HasPrefix(tokens[i], prefix) {
					t.Fatalf("token %d of %s, want prefix %s", i, lines[0], prefix)
				}
			}
			if !strings.Contains(lines[0], "update_id") || !strings.Contains(lines[0], "cause") {
				t.Fatalf("context or attrs missing: %s", lines[0])
			}
		})
	}
}

func TestHandlerCompactRID(t *testing.T) {
	emit := func(rid string) func(*slog.Logger) {
		return func(log *slog.Logger) {
			LogEvent(WithRID(Background(), rid), log, slog.LevelInfo, "rid.test")
		}
	}

	kv := capture(t, handlerConfig{format: formatKV}, emit("123:456:789"))[0]
	if !strings.Contains(kv, "rid="+CompactRID("123:456:789")) || strings.Contains(kv, "rid_full=") {
		t.Fatalf("kv line = %s", kv)
	}

	js := capture(t, handlerConfig{format: formatJSON}, emit("12:34:56"))[0]
	for _, want := range []string{`"rid":"` + CompactRID("12:34:56") + `"`, `"rid_full":"12:34:56"`, `"ts_unix_nano"`} {
		if !strings.Contains(js, want) {
			t.Fatalf("missing %s in %s", want, js)
		}
	}
}

func TestHandlerOutcomeEnum(t *testing.T) {
	lines := capture(t, handlerConfig{level: slog.LevelDebug, format: formatKV}, func(log *slog.Logger) {
		log = log.With("component", "flow")
		LogEvent(Background(), log, slog.LevelInfo, "flow.step", slog.String("outcome", "Resources_Saved"))
		LogEvent(Background(), log, slog.LevelInfo, "flow.step", slog.String("outcome", "exploded"))
	})
	if len(lines) != 2 {
		t.Fatalf("lines = %v", lines)
	}
	if !strings.Contains(lines[0], "outcome=resources_saved") {
		t.Fatalf("known outcome not normalized: %s", lines[0])
	}
	if strings.Contains(lines[1], "outcome=") {
		t.Fatalf("unknown outcome kept: %s", lines[1])
	}
}

func TestHandlerNormalizesValues(t *testing.T) {
	lines := capture(t, handlerConfig{format: formatKV}, func(log *slog.Logger) {
		LogEvent(WithIdentifier(Background(), "olga"), log, slog.LevelInfo, "flow.step",
			slog.Duration("duration", 1500*time.Microsecond),
			slog.Duration("wait", 2*time.Second),
			slog.String("role", "Owner"),
			slog.String("note", "two words"),
			slog.String("empty", ""),
		)
	})
	for _, want := range []string{"identifier=olga", "duration_ms=2", "wait_ms=2000", "role=owner", "component=app", `note="two words"`} {
		if !strings.Contains(lines[0], want) {
			t.Fatalf("missing %q in %s", want, lines[0])
		}
	}
	if strings.Contains(lines[0], "empty=") {
		t.Fatalf("empty attr kept: %s", lines[0])
	}
}

func TestHandlerGroups(t *testing.T) {
	lines := capture(t, handlerConfig{format: formatJSON}, func(log *slog.Logger) {
		log = log.With("component", "store").WithGroup("db").With("host", "pg")
		LogEvent(Background(), log, slog.LevelInfo, "open", slog.Group("pool", slog.Int("size", 5)))
	})
	for _, want := range []string{`"db.host":"pg"`, `"db.pool.size":5`, `"component":"store"`} {
		if !strings.Contains(lines[0], want) {
			t.Fatalf("missing %s in %s", want, lines[0])
		}
	}
}

func TestHandlerStacks(t *testing.T) {
	lines := capture(t, handlerConfig{format: formatJSON, stacks: true}, func(log *slog.Logger) {
		LogEvent(Background(), log, slog.LevelWarn, "warned")
		LogEvent(Background(), log, slog.LevelError, "failed")
	})
	if len(lines) != 2 {
		t.Fatalf("lines = %d", len(lines))
	}
	if strings.Contains(lines[0], `"stack"`) {
		t.Fatalf("warn line has stack: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"stack"`) {
		t.Fatalf("error line lacks stack: %s", lines[1])
	}
}

func TestHandlerLevelFilter(t *testing.T) {
	lines := capture(t, handlerConfig{level: slog.LevelWarn, format: formatKV}, func(log *slog.Logger) {
		LogEvent(Background(), log, slog.LevelInfo, "quiet")
		LogEvent(Background(), log, slog.LevelWarn, "loud")
	})
	if len(lines) != 1 || !strings.Contains(lines[0], "event=loud") {
		t.Fatalf("lines = %v", lines)
	}
}

func TestAsyncWriterLevelThreshold(t *testing.T) {
	all, errs := &bytes.Buffer{}, &bytes.Buffer{}
	aw := newAsyncWriter([]output{
		{w: all, min: allLevels},
		{w: errs, min: slog.LevelError},
	}, 0)
	if err := aw.Write(slog.LevelInfo, []byte("info\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := aw.Write(slog.LevelError, []byte("boom\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if all.String() != "info\nboom\n" {
		t.Fatalf("all sink = %q", all.String())
	}
	if errs.String() != "boom\n" {
		t.Fatalf("errors sink = %q", errs.String())
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("a\x00b\u200bc\td", 10); got != "abc\td" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if got := SanitizeLimit("привет", 3); got != "при" {
		t.Fatalf("SanitizeLimit runes = %q", got)
	}
	if got := CompactRID("35:-1:36"); got != "z.-1.10" {
		t.Fatalf("CompactRID = %q", got)
	}
}
