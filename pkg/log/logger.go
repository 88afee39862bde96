package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// SetupLogger installs the default slog logger writing JSON records to stderr.
func SetupLogger(loglevel string) error {
	return SetupLoggerTo(os.Stderr, loglevel)
}

// SetupLoggerTo is SetupLogger with an explicit destination.
func SetupLoggerTo(w io.Writer, loglevel string) error {
	level, err := ToLogLevel(loglevel)
	if err != nil {
		return err
	}
	ops := slog.HandlerOptions{
		AddSource: level <= slog.LevelDebug,
		Level:     level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr = slog.Attr{
					Key:   "severity",
					Value: attr.Value,
				}
			case slog.MessageKey:
				attr = slog.Attr{
					Key:   "message",
					Value: attr.Value,
				}
			}
			return attr
		},
	}
	handler := slog.NewJSONHandler(w, &ops)
	errFmtHandler := WrapByErrFmtHandler(handler)
	slog.SetDefault(slog.New(errFmtHandler))
	return nil
}

// ToLogLevel parses one of "debug", "info", "warn", "error".
func ToLogLevel(level string) (slog.Level, error) {
	switch level {
	case "info", "":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %q", level)
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// SlogLogger adapts *slog.Logger to Logger.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps l. A nil l uses slog.Default() at call time.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

// GetLogger returns a Logger over the current default slog logger.
func GetLogger() Logger {
	return NewSlogLogger(nil)
}

func (s *SlogLogger) logger() *slog.Logger {
	if s.l == nil {
		return slog.Default()
	}
	return s.l
}

func (s *SlogLogger) Debug(msg string, fields ...any) { s.logger().Debug(msg, fields...) }
func (s *SlogLogger) Info(msg string, fields ...any)  { s.logger().Info(msg, fields...) }
func (s *SlogLogger) Warn(msg string, fields ...any)  { s.logger().Warn(msg, fields...) }
func (s *SlogLogger) Error(msg string, fields ...any) { s.logger().Error(msg, fields...) }

func (s *SlogLogger) With(fields ...any) Logger {
	return &SlogLogger{l: s.logger().With(fields...)}
}

func (s *SlogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.logger().Enabled(ctx, slog.Level(level))
}
