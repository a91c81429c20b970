package pkglog

import (
	"log/slog"
	"os"
	"strings"
)

// LevelWarning is the canonical name for slog.LevelWarn in log lines.
const LevelWarning = slog.LevelWarn

// EnvLogLevel is the environment variable read by LevelFromEnv.
const EnvLogLevel = "LOG_LEVEL"

//nolint:gochecknoglobals // fixed severity table
var levelNames = map[slog.Level]string{
	slog.LevelDebug: "DEBUG",
	slog.LevelInfo:  "INFO",
	LevelWarning:    "WARNING",
	slog.LevelError: "ERROR",
}

// ResolveLevel maps a configuration string to a severity.
//
// Only "error", "warning" and "debug" (any case) select a non-default level;
// everything else, including the empty string, resolves to INFO.
func ResolveLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "error":
		return slog.LevelError
	case "warning":
		return LevelWarning
	case "debug":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// LevelFromEnv resolves the level from LOG_LEVEL.
func LevelFromEnv() slog.Level {
	raw, ok := os.LookupEnv(EnvLogLevel)
	if !ok {
		return slog.LevelInfo
	}
	return ResolveLevel(raw)
}

// LevelName returns the canonical severity name, or slog's NAME+N form for
// levels outside the table.
func LevelName(l slog.Level) string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return l.String()
}

// lookupLevel finds a canonical level by name. WARN is accepted as an alias.
func lookupLevel(name string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARNING", "WARN":
		return LevelWarning, true
	case "ERROR":
		return slog.LevelError, true
	}
	return 0, false
}

// parseLevelName is the inverse of LevelName.
func parseLevelName(name string) (slog.Level, bool) {
	if l, ok := lookupLevel(name); ok {
		return l, true
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return 0, false
	}
	return l, true
}
