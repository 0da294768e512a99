package quality

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/irdkwmnsb/screencast-relay/internal/api"
	"github.com/irdkwmnsb/screencast-relay/internal/metrics"
	"github.com/irdkwmnsb/screencast-relay/internal/utils"
)

var ErrNoInboundVideo = errors.New("no inbound video statistics")

type StatsSource interface {
	Sample() (Sample, error)
}

type DirectiveSender interface {
	SendDirective(action api.QualityAction) error
}

// Monitor runs a Controller on a fixed period for the lifetime of one track.
type Monitor struct {
	controller *Controller
	source     StatsSource
	sender     DirectiveSender
	interval   time.Duration

	mu      sync.Mutex
	timer   utils.IntervalTimer
	stopped bool
}

func NewMonitor(controller *Controller, source StatsSource, sender DirectiveSender, interval time.Duration) *Monitor {
	return &Monitor{
		controller: controller,
		source:     source,
		sender:     sender,
		interval:   interval,
	}
}

// Start begins periodic sampling. Calling it on a running or stopped monitor,
// or one with a non-positive interval, does nothing.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil || m.stopped || m.interval <= 0 {
		return
	}
	m.timer = utils.SetIntervalTimer(m.interval, m.Tick)
}

// Stop cancels sampling. No tick runs after Stop returns.
func (m *Monitor) Stop() {
	m.mu.Lock()
	m.stopped = true
	timer := m.timer
	m.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
}

// Tick samples once and emits a directive when the controller decides to.
func (m *Monitor) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}

	sample, err := m.source.Sample()
	if err != nil {
		slog.Debug("skipping quality sample", "error", err)
		return
	}

	action, ok := m.controller.Evaluate(sample)
	if !ok {
		return
	}

	metrics.QualityDirectivesTotal.WithLabelValues(string(action)).Inc()
	slog.Info("requesting quality change", "action", action, "packetsLost", sample.PacketsLost)
	if err := m.sender.SendDirective(action); err != nil {
		slog.Warn("failed to send quality directive", "action", action, "error", err)
	}
}
