package app

import (
	"log/slog"
	"os"

	"example.com/sketchwars/internal/config"
)

// NewLogger builds the process logger: text for local work, json for
// anything that ships to a collector. Non-dev environments drop debug noise.
func NewLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelDebug
	if cfg.Env != "dev" {
		level = slog.LevelInfo
	}

	var h slog.Handler
	if cfg.Log.Format == "json" {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	return slog.New(h).With("env", cfg.Env)
}
