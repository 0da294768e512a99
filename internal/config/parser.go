package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pion/webrtc/v4"
)

func millis(v *int) time.Duration {
	return time.Duration(*v) * time.Millisecond
}

type RawServerConfig struct {
	Port              *int    `yaml:"port" json:"port"`
	WSPath            *string `yaml:"wsPath" json:"wsPath"`
	StaticDir         *string `yaml:"staticDir" json:"staticDir"`
	MetricsPath       *string `yaml:"metricsPath" json:"metricsPath"`
	WriteTimeout      *int    `yaml:"writeTimeout" json:"writeTimeout"`
	KeepaliveInterval *int    `yaml:"keepaliveInterval" json:"keepaliveInterval"`
	TLSCrtFile        *string `yaml:"tlsCrtFile" json:"tlsCrtFile"`
	TLSKeyFile        *string `yaml:"tlsKeyFile" json:"tlsKeyFile"`
}

func (r RawServerConfig) ToDomain() ServerConfig {
	var cfg ServerConfig
	if r.Port != nil {
		cfg.Port = *r.Port
	}
	if r.WSPath != nil {
		cfg.WSPath = *r.WSPath
	}
	if r.StaticDir != nil {
		cfg.StaticDir = *r.StaticDir
	}
	if r.MetricsPath != nil {
		cfg.MetricsPath = *r.MetricsPath
	}
	if r.WriteTimeout != nil {
		cfg.WriteTimeout = millis(r.WriteTimeout)
	}
	if r.KeepaliveInterval != nil {
		cfg.KeepaliveInterval = millis(r.KeepaliveInterval)
	}
	if r.TLSCrtFile != nil && r.TLSKeyFile != nil {
		cfg.TLSCrtFile = r.TLSCrtFile
		cfg.TLSKeyFile = r.TLSKeyFile
	} else if r.TLSCrtFile != nil || r.TLSKeyFile != nil {
		slog.Warn("tlsCrtFile and tlsKeyFile must be set together, ignoring tls settings")
	}
	return cfg
}

type RawLogConfig struct {
	Level   *string `yaml:"level" json:"level"`
	NoColor *bool   `yaml:"noColor" json:"noColor"`
}

func (r RawLogConfig) ToDomain() (LogConfig, error) {
	var cfg LogConfig
	if r.Level != nil {
		level := strings.ToLower(*r.Level)
		switch level {
		case "debug", "info", "warn", "error":
			cfg.Level = level
		default:
			return LogConfig{}, fmt.Errorf("unknown log level %q", *r.Level)
		}
	}
	if r.NoColor != nil {
		cfg.NoColor = *r.NoColor
	}
	return cfg, nil
}

type RawICEServer struct {
	URLs       []string `yaml:"urls" json:"urls"`
	Username   string   `yaml:"username" json:"username"`
	Credential string   `yaml:"credential" json:"credential"`
}

type RawCodec struct {
	Params struct {
		MimeType    string `json:"mimeType" yaml:"mimeType"`
		ClockRate   uint32 `json:"clockRate" yaml:"clockRate"`
		PayloadType uint8  `json:"payloadType" yaml:"payloadType"`
		Channels    uint16 `json:"channels" yaml:"channels"`
		SDPFmtpLine string `json:"sdpFmtpLine" yaml:"sdpFmtpLine"`
	} `json:"params" yaml:"params"`
	Type string `json:"type" yaml:"type"`
}

type RawWebRTCConfig struct {
	PortMin    *uint16         `yaml:"portMin" json:"portMin"`
	PortMax    *uint16         `yaml:"portMax" json:"portMax"`
	ICEServers *[]RawICEServer `yaml:"iceServers" json:"iceServers"`
	Codecs     *[]RawCodec     `yaml:"codecs" json:"codecs"`
}

func (r RawWebRTCConfig) ToDomain() (WebRTCConfig, error) {
	var cfg WebRTCConfig
	if r.PortMin != nil && r.PortMax != nil {
		if *r.PortMin > *r.PortMax {
			return WebRTCConfig{}, fmt.Errorf("webrtc port range %d-%d is inverted", *r.PortMin, *r.PortMax)
		}
		cfg.PortMin = *r.PortMin
		cfg.PortMax = *r.PortMax
	}
	if r.ICEServers != nil {
		cfg.ICEServers = parseICEServers(*r.ICEServers)
	}
	if r.Codecs != nil {
		cfg.Codecs = parseCodecs(*r.Codecs)
	}
	return cfg, nil
}

type RawQualityConfig struct {
	Interval               *int   `yaml:"interval" json:"interval"`
	LossThreshold          *int64 `yaml:"lossThreshold" json:"lossThreshold"`
	CleanStreakThreshold   *int   `yaml:"cleanStreakThreshold" json:"cleanStreakThreshold"`
	ReadyRetryInterval     *int   `yaml:"readyRetryInterval" json:"readyRetryInterval"`
	DisableKeyframeRequest *bool  `yaml:"disableKeyframeRequest" json:"disableKeyframeRequest"`
}

func (r RawQualityConfig) ToDomain() QualityConfig {
	var cfg QualityConfig
	if r.Interval != nil {
		cfg.Interval = millis(r.Interval)
	}
	if r.LossThreshold != nil {
		cfg.LossThreshold = *r.LossThreshold
	}
	if r.CleanStreakThreshold != nil {
		cfg.CleanStreakThreshold = *r.CleanStreakThreshold
	}
	if r.ReadyRetryInterval != nil {
		cfg.ReadyRetryInterval = millis(r.ReadyRetryInterval)
	}
	if r.DisableKeyframeRequest != nil {
		cfg.DisableKeyframeRequest = *r.DisableKeyframeRequest
	}
	return cfg
}

type RawBroadcastConfig struct {
	StreamPort *int `yaml:"streamPort" json:"streamPort"`
	ChunkSize  *int `yaml:"chunkSize" json:"chunkSize"`
}

func (r RawBroadcastConfig) ToDomain() BroadcastConfig {
	var cfg BroadcastConfig
	if r.StreamPort != nil {
		cfg.StreamPort = *r.StreamPort
	}
	if r.ChunkSize != nil {
		cfg.ChunkSize = *r.ChunkSize
	}
	return cfg
}

type RawTurnConfig struct {
	Port         *int      `yaml:"port" json:"port"`
	Realm        *string   `yaml:"realm" json:"realm"`
	PublicIP     *string   `yaml:"publicIp" json:"publicIp"`
	PublicIPv6   *string   `yaml:"publicIpv6" json:"publicIpv6"`
	Users        *[]string `yaml:"users" json:"users"`
	RelayPortMin *uint16   `yaml:"relayPortMin" json:"relayPortMin"`
	RelayPortMax *uint16   `yaml:"relayPortMax" json:"relayPortMax"`
}

func (r RawTurnConfig) ToDomain() TurnConfig {
	var cfg TurnConfig
	if r.Port != nil {
		cfg.Port = *r.Port
	}
	if r.Realm != nil {
		cfg.Realm = *r.Realm
	}
	if r.PublicIP != nil {
		cfg.PublicIP = *r.PublicIP
	}
	if r.PublicIPv6 != nil {
		cfg.PublicIPv6 = *r.PublicIPv6
	}
	if r.Users != nil {
		cfg.Users = *r.Users
	}
	if r.RelayPortMin != nil {
		cfg.RelayPortMin = *r.RelayPortMin
	}
	if r.RelayPortMax != nil {
		cfg.RelayPortMax = *r.RelayPortMax
	}
	return cfg
}

func parseICEServers(raw []RawICEServer) []webrtc.ICEServer {
	result := make([]webrtc.ICEServer, 0, len(raw))
	for _, r := range raw {
		server := webrtc.ICEServer{URLs: r.URLs, Username: r.Username}
		if r.Credential != "" {
			server.Credential = r.Credential
		}
		result = append(result, server)
	}
	return result
}

func parseCodecs(rawCodecs []RawCodec) []Codec {
	result := make([]Codec, 0, len(rawCodecs))

	for _, rawCodec := range rawCodecs {
		capability := webrtc.RTPCodecCapability{
			MimeType:    rawCodec.Params.MimeType,
			ClockRate:   rawCodec.Params.ClockRate,
			Channels:    rawCodec.Params.Channels,
			SDPFmtpLine: rawCodec.Params.SDPFmtpLine,
		}

		if strings.HasPrefix(strings.ToLower(rawCodec.Params.MimeType), "video/") {
			capability.RTCPFeedback = videoFeedback
		}

		params := webrtc.RTPCodecParameters{
			RTPCodecCapability: capability,
			PayloadType:        webrtc.PayloadType(rawCodec.Params.PayloadType),
		}

		result = append(result, Codec{Params: params, Type: webrtc.NewRTPCodecType(rawCodec.Type)})
	}

	return result
}
