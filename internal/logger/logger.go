package logger

import (
	"io"
	"log/slog"
	"os"

	"vet1stop-platform/internal/config"
)

var Logger *slog.Logger

// New builds the JSON logger used across the service. Debug mode lowers the
// level and adds source positions.
func New(cfg *config.Config) *slog.Logger {
	return newWithWriter(cfg, os.Stdout)
}

func newWithWriter(cfg *config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if cfg.GinMode == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.GinMode == "debug", // Only add source in debug mode
	}

	return slog.New(slog.NewJSONHandler(w, opts)).With("service", "vet1stop-platform")
}

// InitLogger initializes the package logger and makes it the slog default
func InitLogger(cfg *config.Config) *slog.Logger {
	Logger = New(cfg)
	slog.SetDefault(Logger)

	Logger.Debug("Structured logging initialized", "gin_mode", cfg.GinMode)
	return Logger
}

// Helper functions for common log operations
func Info(msg string, args ...any) {
	if Logger != nil {
		Logger.Info(msg, args...)
	}
}

func Error(msg string, args ...any) {
	if Logger != nil {
		Logger.Error(msg, args...)
	}
}

func Debug(msg string, args ...any) {
	if Logger != nil {
		Logger.Debug(msg, args...)
	}
}

func Warn(msg string, args ...any) {
	if Logger != nil {
		Logger.Warn(msg, args...)
	}
}

// Fatal logs at error level and exits
func Fatal(msg string, args ...any) {
	if Logger != nil {
		Logger.Error(msg, args...)
	} else {
		slog.Error(msg, args...)
	}
	os.Exit(1)
}
