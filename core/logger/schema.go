package logger

import "strings"

const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelFatal = "FATAL"
)

var allowedLevels = map[string]string{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
	"fatal":   LevelFatal,
}

func normalizeLevel(level string) string {
	if level == "" {
		return LevelInfo
	}
	if mapped, ok := allowedLevels[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

// enum is a closed vocabulary for one field. Values are matched case-insensitively.
type enum struct {
	values map[string]struct{}
	// keepUnknown leaves out-of-vocabulary values in place (lowercased)
	// instead of dropping the field.
	keepUnknown bool
}

func newEnum(keepUnknown bool, values ...string) enum {
	e := enum{values: make(map[string]struct{}, len(values)), keepUnknown: keepUnknown}
	for _, v := range values {
		e.values[v] = struct{}{}
	}
	return e
}

func (e enum) normalize(raw string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := e.values[v]; ok {
		return v, true
	}
	return v, false
}

var enums = map[string]enum{
	"status": newEnum(true, "ok", "fail", "skip", "retry", "cancelled"),
	"outcome": newEnum(false,
		"ok", "fail", "cancelled",
		// flow steps
		"ignored", "reprompt", "awaiting_link", "resources_saved",
		"admin_added", "owner_added", "owner_removed", "failed",
		// dispatcher
		"denied", "not_found",
	),
	"role": newEnum(false, "none", "admin", "owner"),
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"identifier",
	"handler",
	"operation",
	"op",
	"cb_key",
	"outcome",
	"duration_ms",
	"flow",
	"state",
	"role",
	"target",
	"action",
	"kind",
	"name",
	"names",
	"count",
	"payload",
	"username",
	"mode",
	"listen",
	"public_url",
	"http_code",
	"driver",
	"path",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"cause",
	"retryable",
	"attempts",
	"backoff_ms",
	"pending_count",
	"stack",
}
