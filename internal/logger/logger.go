// Package logger wraps slog for the gateway. Every component receives the
// same *Logger through its constructor, so request logging, admission
// decisions and proxy failures all land on one stream with one format.
package logger

import (
	"log/slog"
	"os"
)

// Logger is the gateway-wide structured logger.
type Logger struct {
	*slog.Logger
}

// New creates a Logger writing text records to stdout at the given level.
// The level comes straight from LOG_LEVEL, using slog's numeric scale.
func New(level int) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.Level(level)})),
	}
}

// Fatal is equivalent to Error followed by os.Exit(1). Only startup code
// uses it; request paths return errors instead.
func (l *Logger) Fatal(msg string, args ...any) {
	l.Logger.Error(msg, args...)
	os.Exit(1)
}
