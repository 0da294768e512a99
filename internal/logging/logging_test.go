package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/irdkwmnsb/screencast-relay/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestSetupAndApply(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	var buf bytes.Buffer
	SetupWriter(&buf, config.LogConfig{Level: "warn", NoColor: true})

	slog.Info("hidden")
	assert.NotContains(t, buf.String(), "hidden")

	Apply(config.LogConfig{Level: "debug"})
	slog.Debug("visible", "socketID", "abc")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "socketID=abc")
}
