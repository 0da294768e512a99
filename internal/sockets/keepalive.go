package sockets

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Pinger is implemented by sockets that can send transport level pings.
type Pinger interface {
	Ping() error
}

// KeepaliveLoop pings a socket at a fixed interval until stopped or until a
// ping fails.
type KeepaliveLoop struct {
	socket   Socket
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewKeepaliveLoop(socket Socket, interval time.Duration) *KeepaliveLoop {
	ctx, cancel := context.WithCancel(context.Background())
	return &KeepaliveLoop{
		socket:   socket,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the ping goroutine. Sockets without ping support and a
// non-positive interval make it a no-op.
func (l *KeepaliveLoop) Start() {
	pinger, ok := l.socket.(Pinger)
	if !ok || l.interval <= 0 {
		return
	}
	l.wg.Add(1)
	go l.pingLoop(pinger)
}

func (l *KeepaliveLoop) Stop() {
	l.cancel()
	l.wg.Wait()
}

func (l *KeepaliveLoop) pingLoop(pinger Pinger) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := pinger.Ping(); err != nil {
				slog.Debug("keepalive ping failed", "socketID", l.socket.ID(), "error", err)
				return
			}
		case <-l.ctx.Done():
			return
		}
	}
}
