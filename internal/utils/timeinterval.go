package utils

import (
	"sync"
	"time"
)

type IntervalTimer interface {
	Stop()
}

type timeInterval struct {
	quit     chan struct{}
	stopOnce sync.Once
	stopped  chan struct{}
}

// Stop cancels the timer and waits for an in-flight tick to return. It is
// safe to call more than once but must not be called from the tick function.
func (t *timeInterval) Stop() {
	t.stopOnce.Do(func() {
		close(t.quit)
	})
	<-t.stopped
}

// SetIntervalTimer runs function every duration until the returned timer is
// stopped. The quit signal is checked before every tick, so no tick starts
// after Stop returns.
func SetIntervalTimer(duration time.Duration, function func()) IntervalTimer {
	ticker := time.NewTicker(duration)
	t := &timeInterval{
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go func() {
		defer close(t.stopped)
		defer ticker.Stop()
		for {
			select {
			case <-t.quit:
				return
			case <-ticker.C:
				select {
				case <-t.quit:
					return
				default:
				}
				function()
			}
		}
	}()
	return t
}
