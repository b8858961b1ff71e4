package logger

import (
	"log/slog"
	"os"
)

var log *slog.Logger

func init() {
	opts := &slog.HandlerOptions{
		Level: levelFrom(os.Getenv("MEDIARENAME_DEBUG")),
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	log = slog.New(handler)
}

// levelFrom maps the MEDIARENAME_DEBUG value to a log level. Any
// non-empty value enables debug logging.
func levelFrom(debug string) slog.Level {
	if debug != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// Info logs at info level.
func Info(msg string, args ...any) {
	log.Info(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	log.Error(msg, args...)
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	log.Debug(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	log.Warn(msg, args...)
}
