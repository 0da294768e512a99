package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/irdkwmnsb/screencast-relay/internal/domain"
	"github.com/irdkwmnsb/screencast-relay/internal/registry"
	"github.com/irdkwmnsb/screencast-relay/internal/sockets"
)

// streamSocket is a producer attached to the raw stream port. It only reads.
type streamSocket struct {
	id     sockets.SocketID
	conn   net.Conn
	closed atomic.Bool
}

func (s *streamSocket) ID() sockets.SocketID {
	return s.id
}

func (s *streamSocket) WriteMessage(int, []byte) error {
	return domain.ErrReadOnlySocket
}

func (s *streamSocket) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.conn.Close()
}

func (s *streamSocket) IsClosed() bool {
	return s.closed.Load()
}

// StreamListener accepts unframed producer byte streams on a TCP port. Every
// accepted connection takes the producer slot; only the newest one is fanned
// out.
type StreamListener struct {
	registry  *registry.Registry
	fanout    *FanOut
	chunkSize int

	listener net.Listener
	conns    *sockets.SocketPool
	wg       sync.WaitGroup
}

const defaultChunkSize = 32 * 1024

func NewStreamListener(reg *registry.Registry, fanout *FanOut, chunkSize int) *StreamListener {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &StreamListener{
		registry:  reg,
		fanout:    fanout,
		chunkSize: chunkSize,
		conns:     sockets.NewSocketPool(),
	}
}

func (l *StreamListener) Listen(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen stream port: %w", err)
	}
	l.listener = listener
	return nil
}

func (l *StreamListener) Addr() net.Addr {
	return l.listener.Addr()
}

// Serve accepts producers until ctx is done or the listener is closed.
func (l *StreamListener) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = l.listener.Close()
	}()

	slog.Info("stream port listening", "addr", l.listener.Addr())
	for {
		conn, err := l.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				l.conns.Close()
				l.wg.Wait()
				return nil
			}
			return fmt.Errorf("accept stream connection: %w", err)
		}

		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.handle(conn)
		}()
	}
}

func (l *StreamListener) handle(conn net.Conn) {
	socket := &streamSocket{id: sockets.NewSocketID(), conn: conn}
	l.registry.Register(socket, domain.RoleProducer)
	l.conns.AddSocket(socket)
	slog.Info("stream producer connected", "socketID", socket.ID(), "remote", conn.RemoteAddr())

	defer func() {
		l.registry.Unregister(socket, domain.RoleProducer)
		l.conns.RemoveSocket(socket.ID())
		_ = socket.Close()
		slog.Info("stream producer disconnected", "socketID", socket.ID())
	}()

	buf := make([]byte, l.chunkSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if l.registry.IsCurrent(socket, domain.RoleProducer) {
				l.fanout.OnProducerData(buf[:n])
			} else {
				slog.Debug("dropping data from replaced producer", "socketID", socket.ID(), "bytes", n)
			}
		}
		if err != nil {
			return
		}
	}
}

func (l *StreamListener) Close() error {
	if l.listener == nil {
		return nil
	}
	return l.listener.Close()
}
