package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadAppConfigDefaults(t *testing.T) {
	cfg, err := LoadAppConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultAppConfig(), *cfg)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Quality.Interval)
	assert.EqualValues(t, 10, cfg.Quality.LossThreshold)
}

func TestLoadAppConfigMergesFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "server.yaml", "port: 9090\nwriteTimeout: 250\n")
	writeFile(t, dir, "quality.json", `{"lossThreshold": 20, "interval": 500}`)
	writeFile(t, dir, "webrtc.yaml", `
iceServers:
  - urls: ["turn:turn.example.org:3478"]
    username: user
    credential: pass
`)
	writeFile(t, dir, "turn.yaml", "users: [\"alice=secret\"]\n")

	cfg, err := LoadAppConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Server.WriteTimeout)
	assert.Equal(t, "/ws", cfg.Server.WSPath)
	assert.EqualValues(t, 20, cfg.Quality.LossThreshold)
	assert.Equal(t, 500*time.Millisecond, cfg.Quality.Interval)
	assert.Equal(t, 10, cfg.Quality.CleanStreakThreshold)
	assert.Equal(t, []webrtc.ICEServer{{
		URLs:       []string{"turn:turn.example.org:3478"},
		Username:   "user",
		Credential: "pass",
	}}, cfg.WebRTC.ICEServers)
	assert.Equal(t, []string{"alice=secret"}, cfg.Turn.Users)
	assert.Equal(t, "screencast.turn", cfg.Turn.Realm)
}

func TestLoadAppConfigEmptyFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broadcast.yaml", "")

	cfg, err := LoadAppConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Broadcast.StreamPort)
}

func TestLoadAppConfigRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"log.yaml":    "level: loud\n",
		"webrtc.yaml": "portMin: 200\nportMax: 100\n",
		"server.json": "{not json",
	}
	for file, content := range tests {
		t.Run(file, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, file, content)
			_, err := LoadAppConfig(dir)
			assert.Error(t, err)
		})
	}
}

func TestParseCodecsAddsVideoFeedback(t *testing.T) {
	var raw RawCodec
	raw.Params.MimeType = "video/VP8"
	raw.Params.ClockRate = 90000
	raw.Params.PayloadType = 96
	raw.Type = "video"

	codecs := parseCodecs([]RawCodec{raw})
	require.Len(t, codecs, 1)
	assert.Equal(t, webrtc.RTPCodecTypeVideo, codecs[0].Type)
	assert.Equal(t, webrtc.PayloadType(96), codecs[0].Params.PayloadType)
	assert.NotEmpty(t, codecs[0].Params.RTCPFeedback)
}

func TestNewAppConfigOptions(t *testing.T) {
	cfg := NewAppConfig(
		WithServerPort(1234),
		WithQualityThresholds(5, 3),
		WithTLS("crt.pem", "key.pem"),
		WithChunkSize(1024),
	)
	assert.Equal(t, 1234, cfg.Server.Port)
	assert.EqualValues(t, 5, cfg.Quality.LossThreshold)
	assert.Equal(t, 3, cfg.Quality.CleanStreakThreshold)
	require.NotNil(t, cfg.Server.TLSCrtFile)
	assert.Equal(t, "crt.pem", *cfg.Server.TLSCrtFile)
	assert.Equal(t, 1024, cfg.Broadcast.ChunkSize)
}

func TestManagerReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "log.yaml", "level: info\n")

	mgr, err := NewManager(dir)
	require.NoError(t, err)
	defer mgr.Close()
	assert.Equal(t, "info", mgr.Get().Log.Level)

	var updates atomic.Int32
	mgr.SetUpdateCallback(func(*AppConfig) { updates.Add(1) })

	writeFile(t, dir, "log.yaml", "level: debug\n")
	require.Eventually(t, func() bool {
		return mgr.Get().Log.Level == "debug"
	}, 5*time.Second, 10*time.Millisecond)
	assert.Positive(t, updates.Load())
}

func TestIsSectionFile(t *testing.T) {
	assert.True(t, isSectionFile("/etc/relay/quality.yaml"))
	assert.True(t, isSectionFile("server.json"))
	assert.False(t, isSectionFile("server.yaml.swp"))
	assert.False(t, isSectionFile("notes.yaml"))
}
