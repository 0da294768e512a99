package viewer

import (
	"testing"

	"github.com/irdkwmnsb/screencast-relay/internal/api"
	"github.com/irdkwmnsb/screencast-relay/internal/config"
	"github.com/irdkwmnsb/screencast-relay/internal/sockets/sockettest"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWebRTCAPIRejectsBadPortRange(t *testing.T) {
	cfg := config.NewAppConfig(config.WithWebRTCPortRange(200, 100))
	_, err := NewWebRTCAPI(cfg.WebRTC)
	assert.Error(t, err)
}

func TestDirectiveSenderWritesQualityMessage(t *testing.T) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	require.NoError(t, err)
	defer pc.Close()

	socket := sockettest.New()
	sender := &directiveSender{socket: socket, pc: pc, ssrc: 1234}

	require.NoError(t, sender.SendDirective(api.QualityRaise))
	require.NoError(t, sender.SendDirective(api.QualityLower))
	assert.Equal(t, []string{
		`{"type":"quality","action":"raise"}`,
		`{"type":"quality","action":"lower"}`,
	}, socket.Payloads())
}

func TestPeerSessionQueuesCandidatesUntilOffer(t *testing.T) {
	webrtcAPI, err := NewWebRTCAPI(config.DefaultAppConfig().WebRTC)
	require.NoError(t, err)

	cfg := config.NewAppConfig(config.WithICEServers(nil))
	peer, err := newPeerSession(webrtcAPI, cfg, sockettest.New())
	require.NoError(t, err)
	defer peer.close()

	index := uint16(0)
	require.NoError(t, peer.addCandidate(webrtc.ICECandidateInit{
		Candidate:     "candidate:1 1 udp 2130706431 127.0.0.1 50000 typ host",
		SDPMLineIndex: &index,
	}))
	assert.Len(t, peer.pending, 1)
}
