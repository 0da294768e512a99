package web

import (
	"errors"
	"log/slog"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/irdkwmnsb/screencast-relay/internal/api"
	"github.com/irdkwmnsb/screencast-relay/internal/domain"
	"github.com/irdkwmnsb/screencast-relay/internal/metrics"
	"github.com/irdkwmnsb/screencast-relay/internal/registry"
	"github.com/irdkwmnsb/screencast-relay/internal/sockets"
)

// FrameHandler receives the frames of registered sessions. Registration
// itself is handled by the ConnectionLoop.
type FrameHandler interface {
	HandleMessage(session *registry.Session, msg api.Message, raw []byte)
	HandleBinary(session *registry.Session, data []byte)
}

// ConnectionLoop drives one websocket per call to Serve: it decodes text
// frames, feeds them through the registry and hands the rest to a
// FrameHandler.
type ConnectionLoop struct {
	registry          *registry.Registry
	handler           FrameHandler
	writeTimeout      time.Duration
	keepaliveInterval time.Duration
	connections       *sockets.SocketPool
}

func NewConnectionLoop(reg *registry.Registry, handler FrameHandler, writeTimeout, keepaliveInterval time.Duration) *ConnectionLoop {
	return &ConnectionLoop{
		registry:          reg,
		handler:           handler,
		writeTimeout:      writeTimeout,
		keepaliveInterval: keepaliveInterval,
		connections:       sockets.NewSocketPool(),
	}
}

// Serve blocks until conn closes or breaks the protocol.
func (l *ConnectionLoop) Serve(conn sockets.ReadConn) {
	socket := sockets.NewSocket(conn, l.writeTimeout)
	session := l.registry.Connect(socket)
	l.connections.AddSocket(socket)

	metrics.ActiveWebSocketConnections.Inc()
	metrics.WebSocketConnectionsTotal.Inc()

	keepalive := sockets.NewKeepaliveLoop(socket, l.keepaliveInterval)
	keepalive.Start()

	cleanup := func() {
		keepalive.Stop()
		l.registry.Disconnect(session)
		l.connections.RemoveSocket(socket.ID())
		_ = socket.Close()
		metrics.ActiveWebSocketConnections.Dec()
		metrics.WebSocketDisconnectionsTotal.Inc()
	}
	defer cleanup()

	slog.Debug("connection opened", "socketID", socket.ID())

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Info("connection lost", "socketID", socket.ID(), "role", session.Role(), "error", err)
			} else {
				slog.Info("disconnected", "socketID", socket.ID(), "role", session.Role())
			}
			return
		}

		if messageType == websocket.BinaryMessage {
			if session.Role() == domain.RoleUnassigned {
				slog.Debug("dropping binary frame from unregistered connection", "socketID", socket.ID())
				continue
			}
			l.handler.HandleBinary(session, data)
			continue
		}

		if !l.handleText(session, data) {
			return
		}
	}
}

func (l *ConnectionLoop) handleText(session *registry.Session, raw []byte) bool {
	socket := session.Socket()

	msg, err := api.Decode(raw)
	if err != nil {
		metrics.MalformedMessagesTotal.Inc()
		slog.Warn("dropping malformed message", "socketID", socket.ID(), "error", err)
		return true
	}

	classification, err := l.registry.Classify(session, msg)
	switch {
	case errors.Is(err, domain.ErrProtocolViolation):
		metrics.ProtocolViolationsTotal.Inc()
		slog.Warn("closing connection", "socketID", socket.ID(), "error", err)
		sockets.CloseWithCode(socket, websocket.CloseProtocolError, "registration required")
		return false
	case err != nil:
		slog.Warn("ignoring message", "socketID", socket.ID(), "type", msg.Type, "error", err)
		return true
	}

	if classification == domain.Passthrough {
		l.handler.HandleMessage(session, msg, raw)
	}
	return true
}

// Close closes every open connection. Their Serve calls return shortly after.
func (l *ConnectionLoop) Close() {
	l.connections.Close()
}

// Connections reports the number of open connections, registered or not.
func (l *ConnectionLoop) Connections() int {
	return l.connections.Len()
}
