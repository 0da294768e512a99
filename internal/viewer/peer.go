package viewer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/irdkwmnsb/screencast-relay/internal/api"
	"github.com/irdkwmnsb/screencast-relay/internal/config"
	"github.com/irdkwmnsb/screencast-relay/internal/metrics"
	"github.com/irdkwmnsb/screencast-relay/internal/quality"
	"github.com/irdkwmnsb/screencast-relay/internal/sockets"
	"github.com/pion/interceptor"
	"github.com/pion/rtcp"
	"github.com/pion/webrtc/v4"
)

// NewWebRTCAPI builds the pion API a viewer answers offers with.
func NewWebRTCAPI(cfg config.WebRTCConfig) (*webrtc.API, error) {
	mediaEngine := &webrtc.MediaEngine{}
	for _, codec := range cfg.Codecs {
		if err := mediaEngine.RegisterCodec(codec.Params, codec.Type); err != nil {
			return nil, fmt.Errorf("failed to register codec: %w", err)
		}
	}

	// default interceptors produce the receiver reports and NACKs the
	// inbound loss statistics are derived from
	interceptorRegistry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(mediaEngine, interceptorRegistry); err != nil {
		return nil, fmt.Errorf("failed to register default interceptors: %w", err)
	}

	se := webrtc.SettingEngine{}
	if cfg.PortMin > 0 && cfg.PortMax > 0 {
		if err := se.SetEphemeralUDPPortRange(cfg.PortMin, cfg.PortMax); err != nil {
			return nil, fmt.Errorf("failed to set WebRTC port range: %w", err)
		}
	}

	return webrtc.NewAPI(
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithInterceptorRegistry(interceptorRegistry),
		webrtc.WithSettingEngine(se),
	), nil
}

// peerSession is one answered offer: a peer connection and the quality
// monitor of its video track.
type peerSession struct {
	pc      *webrtc.PeerConnection
	socket  sockets.Socket
	quality config.QualityConfig

	mu        sync.Mutex
	monitor   *quality.Monitor
	pending   []webrtc.ICECandidateInit
	hasRemote bool
	closed    bool
}

func newPeerSession(webrtcAPI *webrtc.API, cfg config.AppConfig, socket sockets.Socket) (*peerSession, error) {
	pc, err := webrtcAPI.NewPeerConnection(webrtc.Configuration{ICEServers: cfg.WebRTC.ICEServers})
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	p := &peerSession{pc: pc, socket: socket, quality: cfg.Quality}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		init := c.ToJSON()
		if err := socket.WriteMessage(sockets.TextMessage, api.Encode(api.NewIce(init.Candidate, init.SDPMLineIndex))); err != nil {
			slog.Warn("failed to send ice candidate", "error", err)
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		slog.Info("peer connection state changed", "state", state)
		if state == webrtc.PeerConnectionStateFailed || state == webrtc.PeerConnectionStateClosed {
			p.stopMonitor()
		}
	})

	pc.OnTrack(p.onTrack)

	return p, nil
}

func (p *peerSession) onTrack(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
	slog.Info("track received", "trackID", track.ID(), "kind", track.Kind(), "codec", track.Codec().MimeType)

	if track.Kind() == webrtc.RTPCodecTypeVideo {
		p.startMonitor(track.SSRC())
	}

	buf := make([]byte, 1500)
	for {
		if _, _, err := track.Read(buf); err != nil {
			slog.Debug("track ended", "trackID", track.ID(), "error", err)
			if track.Kind() == webrtc.RTPCodecTypeVideo {
				p.stopMonitor()
			}
			return
		}
	}
}

func (p *peerSession) startMonitor(ssrc webrtc.SSRC) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.monitor != nil {
		return
	}

	controller := quality.NewController(p.quality.LossThreshold, p.quality.CleanStreakThreshold)
	sender := &directiveSender{
		socket:     p.socket,
		pc:         p.pc,
		ssrc:       ssrc,
		requestPLI: !p.quality.DisableKeyframeRequest,
	}
	p.monitor = quality.NewMonitor(controller, quality.NewPeerStatsSource(p.pc, ssrc), sender, p.quality.Interval)
	p.monitor.Start()
}

func (p *peerSession) stopMonitor() {
	p.mu.Lock()
	monitor := p.monitor
	p.monitor = nil
	p.mu.Unlock()

	if monitor != nil {
		monitor.Stop()
	}
}

// answer applies a remote offer and returns the local answer SDP.
func (p *peerSession) answer(sdp string) (string, error) {
	if err := p.pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp}); err != nil {
		return "", fmt.Errorf("set remote description: %w", err)
	}

	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return "", fmt.Errorf("create answer: %w", err)
	}
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return "", fmt.Errorf("set local description: %w", err)
	}

	p.mu.Lock()
	p.hasRemote = true
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	for _, candidate := range pending {
		if err := p.pc.AddICECandidate(candidate); err != nil {
			slog.Warn("failed to add queued ice candidate", "error", err)
		}
	}
	return answer.SDP, nil
}

// addCandidate applies a remote candidate, queueing it until the offer is in.
func (p *peerSession) addCandidate(candidate webrtc.ICECandidateInit) error {
	p.mu.Lock()
	if !p.hasRemote {
		p.pending = append(p.pending, candidate)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.pc.AddICECandidate(candidate)
}

func (p *peerSession) close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.stopMonitor()
	return p.pc.Close()
}

// directiveSender passes quality directives to the producer over the
// signaling socket. A lower directive also asks for a keyframe.
type directiveSender struct {
	socket     sockets.Socket
	pc         *webrtc.PeerConnection
	ssrc       webrtc.SSRC
	requestPLI bool
}

func (d *directiveSender) SendDirective(action api.QualityAction) error {
	err := d.socket.WriteMessage(sockets.TextMessage, api.Encode(api.NewQuality(action)))

	if action == api.QualityLower && d.requestPLI {
		metrics.PLIRequestsTotal.Inc()
		pliErr := d.pc.WriteRTCP([]rtcp.Packet{&rtcp.PictureLossIndication{MediaSSRC: uint32(d.ssrc)}})
		err = errors.Join(err, pliErr)
	}
	return err
}
