package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

type Config struct {
	Level      slog.Level
	LogFile    string
	AlsoStderr bool
	Format     string // "json" or "text"
}

// Setup creates a configured slog logger. With no log file configured it
// writes to stderr so command output on stdout stays clean.
func Setup(cfg Config) (*slog.Logger, error) {
	var writers []io.Writer

	if cfg.LogFile != "" {
		dir := filepath.Dir(cfg.LogFile)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}

		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		writers = append(writers, file)

		if cfg.AlsoStderr {
			writers = append(writers, os.Stderr)
		}
	} else {
		writers = append(writers, os.Stderr)
	}

	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	writer := io.MultiWriter(writers...)
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	return slog.New(handler), nil
}

// ParseLevel converts a string to slog.Level
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
