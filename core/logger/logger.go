package logger

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/catalogbot/core/buildinfo"
	coreconfig "github.com/m3rciful/catalogbot/core/config"
)

var (
	initOnce sync.Once

	closeMu sync.Mutex
	closed  bool
	sinks   *asyncWriter
	files   []io.Closer

	levelVar slog.LevelVar

	debugSampler = newRatioSampler(1, 50)
	traceAll     bool

	// L is the root logger; nil until InitLogger runs.
	L *slog.Logger

	// Component loggers. They are nil before InitLogger, so call sites that
	// may run in tests go through LogEvent, which tolerates that.
	Store        *slog.Logger
	SVCRoles     *slog.Logger
	SVCDirectory *slog.Logger
)

// settings is the logging section of the config after defaults are applied.
type settings struct {
	format   logFormat
	order    []string
	level    slog.Level
	num, den int
	stacks   bool
	profile  string

	dir, botFile, errorsFile string
}

func resolve(cfg *coreconfig.Config) settings {
	s := settings{
		format:  formatJSON,
		order:   append([]string(nil), defaultKeyOrder...),
		level:   slog.LevelInfo,
		num:     1,
		den:     50,
		profile: "prod",
	}
	if cfg == nil {
		return s
	}
	lc := cfg.Logging
	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		s.profile = p
	}

	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		s.format = formatKV
	case "json":
	default:
		if s.profile == "debug" || s.profile == "dev" {
			s.format = formatKV
		}
	}

	if order := splitList(lc.KeysOrder); len(order) > 0 && strings.TrimSpace(lc.KeysOrder) != "default" {
		s.order = order
	}

	switch strings.ToLower(strings.TrimSpace(lc.Level)) {
	case "debug":
		s.level = slog.LevelDebug
	case "warn", "warning":
		s.level = slog.LevelWarn
	case "error":
		s.level = slog.LevelError
	}

	if spec := strings.TrimSpace(lc.DebugSample); spec != "" {
		switch num, den := parseRatioSpec(spec); {
		case num == 0 && den == 0:
			s.num, s.den = 0, 0
		case num > 0 && den > 0:
			s.num, s.den = num, den
		}
	}

	s.stacks = isTruthy(lc.Stacks)
	s.dir = strings.TrimSpace(lc.Dir)
	s.botFile = strings.TrimSpace(lc.BotFile)
	s.errorsFile = strings.TrimSpace(lc.ErrorsFile)
	return s
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// InitLogger configures the global structured logger. Only the first call
// has any effect.
func InitLogger(cfg *coreconfig.Config) error {
	initOnce.Do(func() {
		s := resolve(cfg)
		levelVar.Set(s.level)
		debugSampler.Set(s.num, s.den)
		traceAll = isTruthy(os.Getenv("TRACE")) || isTruthy(os.Getenv("LOG_TRACE"))

		var outputs []output
		outputs, files = s.outputs()
		sinks = newAsyncWriter(outputs, 64*1024)

		L = slog.New(newStructuredHandler(handlerConfig{
			level:    &levelVar,
			writer:   sinks,
			format:   s.format,
			keyOrder: s.order,
			stacks:   s.stacks,
		}))
		slog.SetDefault(L)

		Store = L.With("component", "store")
		SVCRoles = L.With("component", "service.roles")
		SVCDirectory = L.With("component", "service.directory")

		Info(context.Background(), "app", "startup",
			slog.String("go_version", runtime.Version()),
			slog.String("build_commit", buildinfo.Commit),
			slog.String("build_time", buildinfo.Date),
			slog.String("cfg_profile", s.profile),
			slog.String("format", string(s.format)),
		)
	})
	return nil
}

// outputs always includes stdout. Dir plus BotFile adds a full log file;
// Dir plus ErrorsFile adds one that receives ERROR and above. Files that
// cannot be opened are reported and skipped.
func (s settings) outputs() ([]output, []io.Closer) {
	out := everything(os.Stdout)
	if s.dir == "" {
		return out, nil
	}
	var closers []io.Closer
	for _, f := range []struct {
		name string
		min  slog.Level
	}{
		{s.botFile, allLevels},
		{s.errorsFile, slog.LevelError},
	} {
		if f.name == "" {
			continue
		}
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			log.Printf("logger: create log dir %s: %v", s.dir, err)
			break
		}
		path := filepath.Join(s.dir, f.name)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Printf("logger: open log file %s: %v", path, err)
			continue
		}
		out = append(out, output{w: file, min: f.min})
		closers = append(closers, file)
	}
	return out, closers
}

// Shutdown flushes buffered output and closes log files. Later calls are no-ops.
func Shutdown() error {
	closeMu.Lock()
	defer closeMu.Unlock()
	if closed {
		return nil
	}
	closed = true

	var errs []error
	if sinks != nil {
		errs = append(errs, sinks.Flush(), sinks.Close())
	}
	for _, c := range files {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Background is shorthand for context.Background().
func Background() context.Context {
	return context.Background()
}

// LogEvent writes event through logg, falling back to the context logger and
// then L. It is a no-op before InitLogger.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	for _, candidate := range []*slog.Logger{logg, FromContext(ctx), L} {
		if candidate == nil {
			continue
		}
		if event != "" {
			attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
		}
		candidate.LogAttrs(ctx, level, "", attrs...)
		return
	}
}

// Component returns L scoped to name, or nil before InitLogger.
func Component(name string) *slog.Logger {
	if L == nil {
		return nil
	}
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

func emit(ctx context.Context, component string, level slog.Level, event string, attrs []slog.Attr) {
	logg := Component(component)
	if logg == nil {
		if logg = FromContext(ctx); logg != nil && component != "" {
			logg = logg.With("component", component)
		}
	}
	LogEvent(ctx, logg, level, event, attrs...)
}

func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, component, slog.LevelDebug, event, attrs)
}

func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, component, slog.LevelInfo, event, attrs)
}

func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, component, slog.LevelWarn, event, attrs)
}

func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, component, slog.LevelError, event, attrs)
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// ShouldSampleDebug reports whether a high-volume debug event should be
// logged. TRACE=1 in the environment lets every event through.
func ShouldSampleDebug() bool {
	return traceAll || debugSampler.Allow()
}
