package cmd

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/webitel/checkin-notifier/config"
)

// NewLevelVar seeds the live log level from configuration.
func NewLevelVar(cfg *config.Config) *slog.LevelVar {
	lvl := new(slog.LevelVar)
	lvl.Set(cfg.Log.SlogLevel())
	return lvl
}

func ProvideLogger(cfg *config.Config, level *slog.LevelVar) *slog.Logger {
	logger := newLogger(os.Stderr, cfg.Log.Format, level)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, format string, level slog.Leveler) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	return slog.New(h).With(
		slog.String("service", ServiceName),
		slog.String("version", version),
	)
}

func ProvideWatermillLogger(logger *slog.Logger) watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logger.With("component", "watermill"))
}
