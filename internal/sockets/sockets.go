package sockets

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"github.com/irdkwmnsb/screencast-relay/internal/domain"
)

const (
	TextMessage   = websocket.TextMessage
	BinaryMessage = websocket.BinaryMessage
)

type SocketID string

func NewSocketID() SocketID {
	return SocketID(uuid.NewString())
}

// Socket is one end of a persistent message channel. Writes are serialized,
// so several goroutines may relay into the same socket.
type Socket interface {
	ID() SocketID
	WriteMessage(messageType int, data []byte) error
	Close() error
	IsClosed() bool
}

// Conn is the part of a websocket connection a Socket writes through. The
// fiber server conn and the fasthttp client conn both satisfy it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type socketImpl struct {
	id           SocketID
	ws           Conn
	writeTimeout time.Duration

	mu        sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewSocket wraps conn with a fresh identity. A zero writeTimeout disables
// write deadlines.
func NewSocket(conn Conn, writeTimeout time.Duration) Socket {
	return &socketImpl{
		id:           NewSocketID(),
		ws:           conn,
		writeTimeout: writeTimeout,
	}
}

func (s *socketImpl) ID() SocketID {
	return s.id
}

func (s *socketImpl) WriteMessage(messageType int, data []byte) error {
	if s.closed.Load() {
		return domain.ErrSocketClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeTimeout > 0 {
		_ = s.ws.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	if err := s.ws.WriteMessage(messageType, data); err != nil {
		// a timed out or failed write leaves the connection unusable
		_ = s.Close()
		return fmt.Errorf("write to %s: %w", s.id, err)
	}
	return nil
}

// Ping sends a transport level ping frame.
func (s *socketImpl) Ping() error {
	if s.closed.Load() {
		return domain.ErrSocketClosed
	}
	deadline := time.Now().Add(time.Second)
	if s.writeTimeout > 0 {
		deadline = time.Now().Add(s.writeTimeout)
	}
	return s.ws.WriteControl(websocket.PingMessage, nil, deadline)
}

func (s *socketImpl) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.ws.Close()
	})
	return s.closeErr
}

func (s *socketImpl) IsClosed() bool {
	return s.closed.Load()
}

// CloseWithCode sends a close frame carrying code before closing the socket.
func CloseWithCode(s Socket, code int, text string) {
	if impl, ok := s.(*socketImpl); ok && !impl.IsClosed() {
		_ = impl.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
	}
	_ = s.Close()
}

// ReadConn is a Conn that also yields inbound frames.
type ReadConn interface {
	Conn
	ReadMessage() (messageType int, p []byte, err error)
}
