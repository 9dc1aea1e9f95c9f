package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileOptions enables a rotated log file next to stdout when Path is set.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func NewJSONLogger(service, level string) *slog.Logger {
	return NewJSONLoggerWithFile(service, level, FileOptions{})
}

func NewJSONLoggerWithFile(service, level string, file FileOptions) *slog.Logger {
	return newLogger(os.Stdout, service, level, file)
}

// NewJSONLoggerTo writes to w instead of stdout. The MCP server needs this
// because stdout carries the protocol.
func NewJSONLoggerTo(w io.Writer, service, level string, file FileOptions) *slog.Logger {
	return newLogger(w, service, level, file)
}

func newLogger(stdout io.Writer, service, level string, file FileOptions) *slog.Logger {
	out := stdout
	if path := strings.TrimSpace(file.Path); path != "" {
		out = io.MultiWriter(stdout, newRotatingFile(path, file))
	}
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler).With("service", service)
}

func newRotatingFile(path string, file FileOptions) *lumberjack.Logger {
	maxSize := file.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 50
	}
	maxBackups := file.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 5
	}
	maxAge := file.MaxAgeDays
	if maxAge <= 0 {
		maxAge = 14
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   true,
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
