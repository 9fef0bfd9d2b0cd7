package telemetry

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"time"
)

// stdoutWriter resolves os.Stdout on every write so tests can redirect it.
type stdoutWriter struct{}

func (stdoutWriter) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

var logger = slog.New(slog.NewJSONHandler(stdoutWriter{}, &slog.HandlerOptions{
	Level:       slog.LevelInfo,
	ReplaceAttr: renameBuiltins,
}))

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	write(slog.LevelInfo, msg, fields)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	write(slog.LevelWarn, msg, fields)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	write(slog.LevelError, msg, fields)
}

func write(level slog.Level, msg string, fields map[string]any) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		v := fields[k]
		if err, ok := v.(error); ok && err != nil {
			v = err.Error()
		}
		attrs = append(attrs, slog.Any(k, v))
	}
	logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// renameBuiltins keeps the ts/level/msg line shape used by log consumers.
func renameBuiltins(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339))
	case slog.LevelKey:
		level, _ := a.Value.Any().(slog.Level)
		switch {
		case level >= slog.LevelError:
			return slog.String("level", "error")
		case level >= slog.LevelWarn:
			return slog.String("level", "warn")
		default:
			return slog.String("level", "info")
		}
	}
	return a
}
