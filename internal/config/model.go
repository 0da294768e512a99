package config

import (
	"time"

	"github.com/pion/webrtc/v4"
)

type AppConfig struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Log       LogConfig       `json:"log" yaml:"log"`
	WebRTC    WebRTCConfig    `json:"webrtc" yaml:"webrtc"`
	Quality   QualityConfig   `json:"quality" yaml:"quality"`
	Broadcast BroadcastConfig `json:"broadcast" yaml:"broadcast"`
	Turn      TurnConfig      `json:"turn" yaml:"turn"`
}

type ServerConfig struct {
	Port              int           `json:"port" yaml:"port"`
	WSPath            string        `json:"wsPath" yaml:"wsPath"`
	StaticDir         string        `json:"staticDir" yaml:"staticDir"`
	MetricsPath       string        `json:"metricsPath" yaml:"metricsPath"`
	WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	KeepaliveInterval time.Duration `json:"keepaliveInterval" yaml:"keepaliveInterval"`
	TLSCrtFile        *string       `json:"tlsCrtFile" yaml:"tlsCrtFile"`
	TLSKeyFile        *string       `json:"tlsKeyFile" yaml:"tlsKeyFile"`
}

type LogConfig struct {
	Level   string `json:"level" yaml:"level"`
	NoColor bool   `json:"noColor" yaml:"noColor"`
}

type WebRTCConfig struct {
	PortMin    uint16             `json:"portMin" yaml:"portMin"`
	PortMax    uint16             `json:"portMax" yaml:"portMax"`
	ICEServers []webrtc.ICEServer `json:"iceServers" yaml:"iceServers"`
	Codecs     []Codec            `json:"codecs" yaml:"codecs"`
}

// QualityConfig drives the viewer side feedback loop.
type QualityConfig struct {
	Interval             time.Duration `json:"interval" yaml:"interval"`
	LossThreshold        int64         `json:"lossThreshold" yaml:"lossThreshold"`
	CleanStreakThreshold int           `json:"cleanStreakThreshold" yaml:"cleanStreakThreshold"`
	ReadyRetryInterval   time.Duration `json:"readyRetryInterval" yaml:"readyRetryInterval"`
	// DisableKeyframeRequest stops the viewer from sending a PLI with every
	// lower directive.
	DisableKeyframeRequest bool `json:"disableKeyframeRequest" yaml:"disableKeyframeRequest"`
}

type BroadcastConfig struct {
	StreamPort int `json:"streamPort" yaml:"streamPort"`
	ChunkSize  int `json:"chunkSize" yaml:"chunkSize"`
}

type TurnConfig struct {
	Port         int      `json:"port" yaml:"port"`
	Realm        string   `json:"realm" yaml:"realm"`
	PublicIP     string   `json:"publicIp" yaml:"publicIp"`
	PublicIPv6   string   `json:"publicIpv6" yaml:"publicIpv6"`
	Users        []string `json:"users" yaml:"users"`
	RelayPortMin uint16   `json:"relayPortMin" yaml:"relayPortMin"`
	RelayPortMax uint16   `json:"relayPortMax" yaml:"relayPortMax"`
}

type Codec struct {
	Params webrtc.RTPCodecParameters `json:"params"`
	Type   webrtc.RTPCodecType       `json:"type"`
}

func DefaultAppConfig() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			Port:              8000,
			WSPath:            "/ws",
			StaticDir:         "./public",
			MetricsPath:       "/metrics",
			WriteTimeout:      5 * time.Second,
			KeepaliveInterval: 30 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		WebRTC: WebRTCConfig{
			ICEServers: []webrtc.ICEServer{
				{URLs: []string{"stun:stun.l.google.com:19302"}},
			},
			Codecs: DefaultCodecs(),
		},
		Quality: QualityConfig{
			Interval:             2 * time.Second,
			LossThreshold:        10,
			CleanStreakThreshold: 10,
			ReadyRetryInterval:   5 * time.Second,
		},
		Broadcast: BroadcastConfig{
			StreamPort: 9000,
			ChunkSize:  32 * 1024,
		},
		Turn: TurnConfig{
			Port:         3478,
			Realm:        "screencast.turn",
			RelayPortMin: 40000,
			RelayPortMax: 40199,
		},
	}
}

var videoFeedback = []webrtc.RTCPFeedback{
	{Type: "nack"},
	{Type: "nack", Parameter: "pli"},
	{Type: "ccm", Parameter: "fir"},
	{Type: "goog-remb"},
}

// DefaultCodecs are the codecs a viewer accepts. The capture pipeline sends
// VP8 on payload type 96.
func DefaultCodecs() []Codec {
	return []Codec{
		{
			Params: webrtc.RTPCodecParameters{
				RTPCodecCapability: webrtc.RTPCodecCapability{
					MimeType:     webrtc.MimeTypeVP8,
					ClockRate:    90000,
					RTCPFeedback: videoFeedback,
				},
				PayloadType: 96,
			},
			Type: webrtc.RTPCodecTypeVideo,
		},
		{
			Params: webrtc.RTPCodecParameters{
				RTPCodecCapability: webrtc.RTPCodecCapability{
					MimeType:     webrtc.MimeTypeH264,
					ClockRate:    90000,
					SDPFmtpLine:  "level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=42e01f",
					RTCPFeedback: videoFeedback,
				},
				PayloadType: 102,
			},
			Type: webrtc.RTPCodecTypeVideo,
		},
	}
}
