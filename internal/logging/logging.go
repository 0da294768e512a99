package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/irdkwmnsb/screencast-relay/internal/config"
	"github.com/lmittmann/tint"
)

var level = new(slog.LevelVar)

// Setup installs a tint handler as the default slog logger. The returned
// LevelVar can be changed at runtime.
func Setup(cfg config.LogConfig) *slog.LevelVar {
	return SetupWriter(os.Stderr, cfg)
}

func SetupWriter(w io.Writer, cfg config.LogConfig) *slog.LevelVar {
	level.Set(ParseLevel(cfg.Level))
	handler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		NoColor:    cfg.NoColor,
	})
	slog.SetDefault(slog.New(handler))
	return level
}

// Apply updates the level of the installed handler.
func Apply(cfg config.LogConfig) {
	next := ParseLevel(cfg.Level)
	if level.Level() != next {
		slog.Info("log level changed", "from", level.Level(), "to", next)
		level.Set(next)
	}
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
