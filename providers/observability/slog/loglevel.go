package slog

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Variables read by [LogLevelFromEnv], highest precedence first.
const (
	EnvLogLevel         = "TABLESCRAPE_LOG_LEVEL"
	EnvLogLevelFallback = "LOG_LEVEL"
)

// LogLevelFromEnv returns the first non-blank of TABLESCRAPE_LOG_LEVEL and
// LOG_LEVEL as reported by lookup, usually os.LookupEnv. The value is trimmed
// but not validated; pass it to [ParseLogLevel].
func LogLevelFromEnv(lookup func(string) (string, bool)) (string, bool) {
	for _, key := range []string{EnvLogLevel, EnvLogLevelFallback} {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// ParseLogLevel parses TRACE, DEBUG, INFO, WARN, WARNING or ERROR (case-insensitive).
// Unknown values return INFO and print a warning to stderr.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return slog.LevelDebug - 4
	case "DEBUG":
		return slog.LevelDebug
	case "INFO", "":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		fmt.Fprintf(os.Stderr, "Warning: Unknown log level '%s', using INFO\n", level)
		return slog.LevelInfo
	}
}

// LogLevelString returns a human-readable string for the log level.
func LogLevelString(level slog.Level) string {
	switch level {
	case slog.LevelDebug - 4:
		return "TRACE"
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", level)
	}
}
