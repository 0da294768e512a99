package broadcast

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/irdkwmnsb/screencast-relay/internal/metrics"
	"github.com/irdkwmnsb/screencast-relay/internal/registry"
	"github.com/irdkwmnsb/screencast-relay/internal/sockets"
)

// FanOut copies producer chunks to every registered viewer.
//
// Each chunk is written to a snapshot of the viewer set, one goroutine per
// viewer, and OnProducerData returns once every write finished. The chunk is
// not retained afterwards, so the caller may reuse its buffer. Closed viewers
// are skipped; their removal from the set happens on disconnect.
type FanOut struct {
	registry *registry.Registry
}

func NewFanOut(reg *registry.Registry) *FanOut {
	return &FanOut{registry: reg}
}

// OnProducerData fans chunk out and returns the number of viewers that got it.
func (f *FanOut) OnProducerData(chunk []byte) int {
	if len(chunk) == 0 {
		return 0
	}
	metrics.BroadcastChunksTotal.Inc()
	metrics.BroadcastBytesTotal.WithLabelValues("received").Add(float64(len(chunk)))

	viewers := f.registry.Viewers()
	if len(viewers) == 0 {
		return 0
	}

	start := time.Now()
	var (
		wg        sync.WaitGroup
		delivered atomic.Int32
	)
	for _, viewer := range viewers {
		if viewer.IsClosed() {
			metrics.BroadcastSkippedWritesTotal.Inc()
			continue
		}
		wg.Add(1)
		go func(viewer sockets.Socket) {
			defer wg.Done()
			if err := viewer.WriteMessage(sockets.BinaryMessage, chunk); err != nil {
				metrics.BroadcastSkippedWritesTotal.Inc()
				slog.Debug("skipping viewer", "socketID", viewer.ID(), "error", err)
				return
			}
			delivered.Add(1)
		}(viewer)
	}
	wg.Wait()

	n := int(delivered.Load())
	metrics.BroadcastBytesTotal.WithLabelValues("sent").Add(float64(n * len(chunk)))
	metrics.BroadcastFanOutDuration.Observe(time.Since(start).Seconds())
	return n
}
