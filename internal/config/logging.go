package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// ParseLevel maps debug, info, warn and error to slog levels. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// SetupLogger logs text to stderr and, when cfg.File is set, JSON to that
// file as well. The returned func closes the file.
func SetupLogger(cfg LogConfig) (*slog.Logger, func() error) {
	level, err := ParseLevel(cfg.Level)
	stderrHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	noop := func() error { return nil }
	if err != nil {
		logger := slog.New(stderrHandler)
		logger.Warn("falling back to info level", "error", err)
		return logger, noop
	}
	if cfg.File == "" {
		return slog.New(stderrHandler), noop
	}

	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger := slog.New(stderrHandler)
		logger.Error("failed to open log file, using stderr only", "error", err, "file", cfg.File)
		return logger, noop
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(stderrHandler, fileHandler)), file.Close
}

// SetupLoggerWithWriters is SetupLogger over arbitrary writers.
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	stderrHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(stderrHandler, fileHandler))
}
