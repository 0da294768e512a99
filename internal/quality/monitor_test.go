package quality

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/irdkwmnsb/screencast-relay/internal/api"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedSource struct {
	mu      sync.Mutex
	samples []Sample
	calls   int
}

func (s *scriptedSource) Sample() (Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.samples) == 0 {
		return Sample{}, ErrNoInboundVideo
	}
	next := s.samples[0]
	s.samples = s.samples[1:]
	return next, nil
}

func (s *scriptedSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingSender struct {
	mu      sync.Mutex
	actions []api.QualityAction
	err     error
}

func (s *recordingSender) SendDirective(action api.QualityAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, action)
	return s.err
}

func (s *recordingSender) Actions() []api.QualityAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.QualityAction(nil), s.actions...)
}

func TestMonitorTickSendsDirective(t *testing.T) {
	source := &scriptedSource{samples: []Sample{{0, 1}, {15, 2}}}
	sender := &recordingSender{}
	m := NewMonitor(NewController(10, 10), source, sender, time.Hour)

	m.Tick()
	m.Tick()
	m.Tick()

	assert.Equal(t, []api.QualityAction{api.QualityLower}, sender.Actions())
}

func TestMonitorSenderErrorDoesNotStopLoop(t *testing.T) {
	source := &scriptedSource{samples: []Sample{{0, 1}, {15, 2}, {30, 3}}}
	sender := &recordingSender{err: errors.New("socket closed")}
	m := NewMonitor(NewController(10, 10), source, sender, time.Hour)

	m.Tick()
	m.Tick()
	m.Tick()
	assert.Len(t, sender.Actions(), 2)
}

func TestMonitorRunsPeriodicallyUntilStopped(t *testing.T) {
	var samples []Sample
	for i := 0; i < 1000; i++ {
		samples = append(samples, Sample{PacketsLost: 0, Timestamp: float64(i)})
	}
	source := &scriptedSource{samples: samples}
	sender := &recordingSender{}
	m := NewMonitor(NewController(10, 1), source, sender, 2*time.Millisecond)

	m.Start()
	m.Start()
	require.Eventually(t, func() bool { return len(sender.Actions()) >= 2 }, 2*time.Second, time.Millisecond)

	m.Stop()
	calls := source.Calls()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, source.Calls())

	m.Tick()
	assert.Equal(t, calls, source.Calls())

	m.Start()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, calls, source.Calls())
}

type fakeStats webrtc.StatsReport

func (f fakeStats) GetStats() webrtc.StatsReport {
	return webrtc.StatsReport(f)
}

func TestPeerStatsSource(t *testing.T) {
	report := fakeStats{
		"audio": webrtc.InboundRTPStreamStats{Kind: "audio", SSRC: 1, PacketsLost: 99, Timestamp: 10},
		"video": webrtc.InboundRTPStreamStats{Kind: "video", SSRC: 2, PacketsLost: 7, Timestamp: 1234.5},
		"pc":    webrtc.PeerConnectionStats{},
	}

	sample, err := NewPeerStatsSource(report, 0).Sample()
	require.NoError(t, err)
	assert.Equal(t, Sample{PacketsLost: 7, Timestamp: 1234.5}, sample)

	_, err = NewPeerStatsSource(report, 3).Sample()
	assert.ErrorIs(t, err, ErrNoInboundVideo)

	_, err = NewPeerStatsSource(fakeStats{}, 0).Sample()
	assert.ErrorIs(t, err, ErrNoInboundVideo)
}
