// Package logging configures the process-wide structured logger. Every
// record carries a service attribute so aggregated logs stay attributable,
// and debug level switches on source locations.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

const serviceName = "hiddengem"

// Config selects the handler format and the minimum level.
type Config struct {
	Format string // "json" or "text"
	Level  string // "debug", "info", "warn", "error"
}

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

func parseLevel(s string) slog.Level {
	if lvl, ok := levelNames[strings.ToLower(s)]; ok {
		return lvl
	}
	return slog.LevelInfo
}

var logger *slog.Logger

// Setup installs the configured handler as both the package logger and the
// slog default, so third-party code logging through slog lands in the same
// stream.
func Setup(cfg Config) {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level: level,
		// Source locations are only worth the record size when debugging.
		AddSource: level == slog.LevelDebug,
	}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger = slog.New(handler).With("service", serviceName)
	slog.SetDefault(logger)
}

// Get returns the configured logger, or the slog default before Setup runs.
func Get() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// With returns a logger scoped with the given attributes, for components
// that tag every record the same way.
func With(args ...any) *slog.Logger {
	return Get().With(args...)
}

// Debug logs at debug level with the configured logger.
func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

// Info logs at info level with the configured logger.
func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

// Warn logs at warn level with the configured logger.
func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

// Error logs at error level with the configured logger.
func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}
