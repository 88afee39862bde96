package log

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	clerrors "github.com/YuminosukeSato/clusview/pkg/errors"
)

// ZerologLogger adapts zerolog.Logger to Logger. The CLI uses it with a
// ConsoleWriter for human-readable progress output.
type ZerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger wraps zl.
func NewZerologLogger(zl zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{zl: zl}
}

// NewConsoleLogger builds a colourless console logger writing to w.
func NewConsoleLogger(w io.Writer, level Level) *ZerologLogger {
	cw := zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.TimeOnly}
	zl := zerolog.New(cw).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return NewZerologLogger(zl)
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

func (z *ZerologLogger) Debug(msg string, fields ...any) { z.emit(z.zl.Debug(), msg, fields) }
func (z *ZerologLogger) Info(msg string, fields ...any)  { z.emit(z.zl.Info(), msg, fields) }
func (z *ZerologLogger) Warn(msg string, fields ...any)  { z.emit(z.zl.Warn(), msg, fields) }
func (z *ZerologLogger) Error(msg string, fields ...any) { z.emit(z.zl.Error(), msg, fields) }

func (z *ZerologLogger) emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	e.Fields(pairs(fields)).Msg(msg)
}

func (z *ZerologLogger) With(fields ...any) Logger {
	return &ZerologLogger{zl: z.zl.With().Fields(pairs(fields)).Logger()}
}

func (z *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	return toZerologLevel(level) >= z.zl.GetLevel()
}

// RouteWarnings sends every errors.Warn call to this logger. Warnings that
// implement zerolog.LogObjectMarshaler are logged with their structured fields.
func (z *ZerologLogger) RouteWarnings() {
	zl := z.zl
	clerrors.SetZerologWarnFunc(func(w error) {
		if obj, ok := w.(zerolog.LogObjectMarshaler); ok {
			zl.Warn().EmbedObject(obj).Msg(w.Error())
			return
		}
		zl.Warn().Err(w).Msg("warning")
	})
}

// pairs turns alternating key/value fields into a map, stringifying keys.
// A trailing key without a value is dropped.
func pairs(fields []any) map[string]any {
	m := make(map[string]any, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprint(fields[i])
		}
		if err, ok := fields[i+1].(error); ok {
			m[key] = err.Error()
			continue
		}
		m[key] = fields[i+1]
	}
	return m
}
