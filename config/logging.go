package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Environment variables that override the log section.
const (
	EnvLogLevel  = "GOAP_LOG_LEVEL"
	EnvLogFormat = "GOAP_LOG_FORMAT"
)

// NewLogger builds a logger writing to stderr from the log section, with
// GOAP_LOG_LEVEL and GOAP_LOG_FORMAT taking precedence.
func (c LogConfig) NewLogger() *slog.Logger {
	return c.newLogger(os.Stderr, os.Getenv)
}

func (c LogConfig) newLogger(w io.Writer, getenv func(string) string) *slog.Logger {
	level, format := c.Level, c.Format
	if v := getenv(EnvLogLevel); v != "" {
		level = v
	}
	if v := getenv(EnvLogFormat); v != "" {
		format = v
	}

	lvl, err := parseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", raw)
	}
}
