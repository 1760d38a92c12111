// ABOUTME: Structured logging configuration using log/slog.
// ABOUTME: Configures stderr logging for commands and file logging for the TUI.

package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	mu      sync.Mutex
	logFile *os.File
)

// Init configures the default slog logger to write to w.
// level: debug, info, warn, error (default: info)
// format: text, json (default: text)
func Init(w io.Writer, level, format string) {
	slog.SetDefault(slog.New(newHandler(w, level, format)))
}

// InitFile points the default logger at <dir>/debug.log so log lines never
// interleave with a full-screen terminal UI. An empty dir discards output.
func InitFile(dir, level, format string) error {
	mu.Lock()
	defer mu.Unlock()

	if dir == "" {
		slog.SetDefault(slog.New(newHandler(io.Discard, level, format)))
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		slog.SetDefault(slog.New(newHandler(io.Discard, level, format)))
		return err
	}

	f, err := os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		slog.SetDefault(slog.New(newHandler(io.Discard, level, format)))
		return err
	}

	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	slog.SetDefault(slog.New(newHandler(f, level, format)))
	return nil
}

// Close releases the log file opened by InitFile, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func newHandler(w io.Writer, level, format string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
