package logger

import (
	"io"
	"log/slog"
	"strings"

	"github.com/alkime/moodtales/internal/config"
)

// SetupLogger configures structured logging based on environment and makes
// it the default logger. The TUI passes a log file as w so output does not
// corrupt the terminal.
func SetupLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	// Determine log level
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.TrimSpace(cfg.LogLevel))); err != nil {
		logLevel = slog.LevelInfo
	}
	if cfg.Env == config.EnvDevelopment {
		logLevel = min(logLevel, slog.LevelDebug)
	}

	// Create JSON handler for structured logging
	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})

	logger := slog.New(handler)

	// Set as default logger
	slog.SetDefault(logger)

	return logger
}
