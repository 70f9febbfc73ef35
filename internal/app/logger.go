package app

import (
	"log/slog"
	"os"
)

// NewLogger returns a configured slog.Logger. The service attribute tells the
// api and worker binaries apart in aggregated logs.
func NewLogger(cfg *Config, service string) *slog.Logger {
	var handler slog.Handler
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{AddSource: true})
	}
	return slog.New(handler).With(slog.String("service", service))
}
