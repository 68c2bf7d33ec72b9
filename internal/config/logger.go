package config

import (
	"io"
	"log/slog"
	"strings"

	"github.com/go-chi/httplog/v2"
)

// NewLogger builds the structured logger for service, writing to w.
func (l Log) NewLogger(service string, w io.Writer) *httplog.Logger {
	return httplog.NewLogger(service, httplog.Options{
		LogLevel:         l.level(),
		JSON:             l.JSON,
		Concise:          true,
		Writer:           w,
		MessageFieldName: "msg",
	})
}

func (l Log) level() slog.Level {
	switch strings.ToLower(l.Level) {
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
