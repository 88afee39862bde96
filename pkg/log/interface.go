// Package log provides structured logging for clusview.
//
// The Logger interface is a small slog-compatible surface so that library
// packages (sweep, metricmap) can log without depending on a concrete backend.
// Two backends ship with the package: one over log/slog (the default, set up by
// SetupLogger) and one over zerolog for console output in the CLI.
//
// Example usage:
//
//	logger := log.GetLogger().With(log.ComponentKey, "sweep")
//	logger.Info("sweep started",
//	    log.TasksKey, 120,
//	    log.WorkersKey, 8,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key/value pairs. With returns a derived logger that
// includes the given fields in every subsequent record.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)

	// Error logs an error-level message. Pass the error with ErrAttrKey
	// ("error") so that handlers can attach its stack trace.
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
