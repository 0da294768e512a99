package config

import (
	"time"

	"github.com/pion/webrtc/v4"
)

type Option func(*AppConfig)

func WithServerPort(port int) Option {
	return func(c *AppConfig) {
		c.Server.Port = port
	}
}

func WithWSPath(path string) Option {
	return func(c *AppConfig) {
		c.Server.WSPath = path
	}
}

func WithStaticDir(dir string) Option {
	return func(c *AppConfig) {
		c.Server.StaticDir = dir
	}
}

func WithWriteTimeout(timeout time.Duration) Option {
	return func(c *AppConfig) {
		c.Server.WriteTimeout = timeout
	}
}

func WithKeepaliveInterval(interval time.Duration) Option {
	return func(c *AppConfig) {
		c.Server.KeepaliveInterval = interval
	}
}

func WithTLS(crtFile, keyFile string) Option {
	return func(c *AppConfig) {
		c.Server.TLSCrtFile = &crtFile
		c.Server.TLSKeyFile = &keyFile
	}
}

func WithLogLevel(level string) Option {
	return func(c *AppConfig) {
		c.Log.Level = level
	}
}

func WithICEServers(servers []webrtc.ICEServer) Option {
	return func(c *AppConfig) {
		c.WebRTC.ICEServers = servers
	}
}

func WithWebRTCPortRange(min, max uint16) Option {
	return func(c *AppConfig) {
		c.WebRTC.PortMin = min
		c.WebRTC.PortMax = max
	}
}

func WithQualityInterval(interval time.Duration) Option {
	return func(c *AppConfig) {
		c.Quality.Interval = interval
	}
}

func WithQualityThresholds(loss int64, cleanStreak int) Option {
	return func(c *AppConfig) {
		c.Quality.LossThreshold = loss
		c.Quality.CleanStreakThreshold = cleanStreak
	}
}

func WithReadyRetryInterval(interval time.Duration) Option {
	return func(c *AppConfig) {
		c.Quality.ReadyRetryInterval = interval
	}
}

func WithStreamPort(port int) Option {
	return func(c *AppConfig) {
		c.Broadcast.StreamPort = port
	}
}

func WithChunkSize(size int) Option {
	return func(c *AppConfig) {
		c.Broadcast.ChunkSize = size
	}
}

func NewAppConfig(opts ...Option) AppConfig {
	config := DefaultAppConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return config
}
