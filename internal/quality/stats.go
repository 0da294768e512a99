package quality

import (
	"github.com/pion/webrtc/v4"
)

type statsGetter interface {
	GetStats() webrtc.StatsReport
}

// PeerStatsSource reads inbound video statistics from a peer connection.
type PeerStatsSource struct {
	pc   statsGetter
	ssrc webrtc.SSRC
}

// NewPeerStatsSource samples the inbound video stream with the given SSRC, or
// the first inbound video stream found when ssrc is zero.
func NewPeerStatsSource(pc statsGetter, ssrc webrtc.SSRC) *PeerStatsSource {
	return &PeerStatsSource{pc: pc, ssrc: ssrc}
}

func (s *PeerStatsSource) Sample() (Sample, error) {
	for _, stat := range s.pc.GetStats() {
		inbound, ok := stat.(webrtc.InboundRTPStreamStats)
		if !ok || inbound.Kind != "video" {
			continue
		}
		if s.ssrc != 0 && inbound.SSRC != s.ssrc {
			continue
		}
		return Sample{
			PacketsLost: int64(inbound.PacketsLost),
			Timestamp:   float64(inbound.Timestamp),
		}, nil
	}
	return Sample{}, ErrNoInboundVideo
}
