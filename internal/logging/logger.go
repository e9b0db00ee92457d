package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs the process-wide logger: JSON records on stdout at the
// level named by LOG_LEVEL (debug, info, warn, error; default info).
// Once the database sink is connected, main replaces the default with a
// fan-out handler; StdoutHandler keeps both paths on one configuration.
func Setup() {
	slog.SetDefault(slog.New(StdoutHandler()))
}

// StdoutHandler returns the JSON stdout handler Setup installs.
func StdoutHandler() slog.Handler {
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFromEnv(),
	})
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
