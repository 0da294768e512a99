package broadcast

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/irdkwmnsb/screencast-relay/internal/api"
	"github.com/irdkwmnsb/screencast-relay/internal/config"
	"github.com/irdkwmnsb/screencast-relay/internal/domain"
	"github.com/irdkwmnsb/screencast-relay/internal/registry"
	"github.com/irdkwmnsb/screencast-relay/internal/web"
)

// Server is the broadcast mode relay. Viewers register over the websocket
// path and receive the producer stream as binary frames. The producer either
// connects to the stream port or registers over the websocket and sends
// binary frames.
type Server struct {
	app      *fiber.App
	config   config.AppConfig
	registry *registry.Registry
	fanout   *FanOut
	loop     *web.ConnectionLoop
	stream   *StreamListener
}

func NewServer(cfg config.AppConfig, app *fiber.App) *Server {
	reg := registry.New(registry.ModeBroadcast)
	fanout := NewFanOut(reg)
	s := &Server{
		app:      app,
		config:   cfg,
		registry: reg,
		fanout:   fanout,
		stream:   NewStreamListener(reg, fanout, cfg.Broadcast.ChunkSize),
	}
	s.loop = web.NewConnectionLoop(reg, s, cfg.Server.WriteTimeout, cfg.Server.KeepaliveInterval)
	return s
}

func (s *Server) Setup() {
	web.Setup(s.app, s.config.Server, s.registry, s.loop)
}

// ListenStream binds the stream port. Serve it with ServeStream.
func (s *Server) ListenStream() error {
	return s.stream.Listen(":" + strconv.Itoa(s.config.Broadcast.StreamPort))
}

func (s *Server) ServeStream(ctx context.Context) error {
	return s.stream.Serve(ctx)
}

func (s *Server) Registry() *registry.Registry {
	return s.registry
}

func (s *Server) Close() {
	_ = s.stream.Close()
	s.loop.Close()
}

// HandleMessage implements web.FrameHandler. Nothing is relayed as text in
// broadcast mode.
func (s *Server) HandleMessage(session *registry.Session, msg api.Message, _ []byte) {
	slog.Debug("dropping message in broadcast mode", "socketID", session.Socket().ID(), "type", msg.Type)
}

// HandleBinary implements web.FrameHandler.
func (s *Server) HandleBinary(session *registry.Session, data []byte) {
	socket := session.Socket()
	if session.Role() != domain.RoleProducer || !s.registry.IsCurrent(socket, domain.RoleProducer) {
		slog.Debug("dropping binary frame", "socketID", socket.ID(), "role", session.Role())
		return
	}
	s.fanout.OnProducerData(data)
}
