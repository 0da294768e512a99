package signalling

import (
	"github.com/gofiber/fiber/v2"
	"github.com/irdkwmnsb/screencast-relay/internal/config"
	"github.com/irdkwmnsb/screencast-relay/internal/registry"
	"github.com/irdkwmnsb/screencast-relay/internal/web"
)

// Server is the signaling mode relay: one producer slot, one viewer slot
// and a relay between them, served over a single websocket path.
type Server struct {
	app      *fiber.App
	config   config.ServerConfig
	registry *registry.Registry
	relay    *Relay
	loop     *web.ConnectionLoop
}

func NewServer(cfg config.ServerConfig, app *fiber.App) *Server {
	reg := registry.New(registry.ModeSignalling)
	relay := NewRelay(reg)
	return &Server{
		app:      app,
		config:   cfg,
		registry: reg,
		relay:    relay,
		loop:     web.NewConnectionLoop(reg, relay, cfg.WriteTimeout, cfg.KeepaliveInterval),
	}
}

// Setup mounts the websocket, health, metrics and static routes.
func (s *Server) Setup() {
	web.Setup(s.app, s.config, s.registry, s.loop)
}

func (s *Server) Registry() *registry.Registry {
	return s.registry
}

// Close drops every open connection.
func (s *Server) Close() {
	s.loop.Close()
}
