package logger

import (
	"log/slog"
	"os"

	"github.com/alkime/intake/internal/config"
)

// SetupLogger configures structured logging based on environment.
func SetupLogger(cfg *config.Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level(cfg.Env, cfg.LogLevel),
	}))

	slog.SetDefault(logger)

	return logger
}

// SetupClientLogger configures structured logging for the TUI client.
// Logs go to a file so they never fight the terminal UI for stdout.
func SetupClientLogger(cfg *config.ClientConfig, logFile *os.File) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level: level("", cfg.LogLevel),
	}))

	slog.SetDefault(logger)

	return logger
}

func level(env, logLevel string) slog.Level {
	if env == "development" || logLevel == "debug" {
		return slog.LevelDebug
	}

	return slog.LevelInfo
}
