// Package logger installs a process-wide structured logger, the same
// level-string-to-slog.Logger bootstrap the teacher repo's pkg/logger
// package uses.
package logger

import (
	"fmt"
	"log/slog"
	"os"
)

var globalLogger *slog.Logger

// Init configures the global logger from a level name ("debug", "info",
// "warn", "error") and installs it as slog's default.
func Init(level string) error {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return fmt.Errorf("logger: invalid log level: %s", level)
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel})
	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
	return nil
}

// Get returns the global logger, falling back to slog.Default() if Init
// was never called.
func Get() *slog.Logger {
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}
