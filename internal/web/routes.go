package web

import (
	"log/slog"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/irdkwmnsb/screencast-relay/internal/config"
	"github.com/irdkwmnsb/screencast-relay/internal/registry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HealthResponse struct {
	Status      string          `json:"status"`
	Registry    registry.Status `json:"registry"`
	Connections int             `json:"connections"`
}

// SetupWebSocket mounts loop on the websocket path. Plain HTTP requests to the
// path get 426.
func SetupWebSocket(app *fiber.App, path string, loop *ConnectionLoop) {
	app.Use(path, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get(path, websocket.New(func(c *websocket.Conn) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("panic in websocket handler", "path", path, "error", err)
			}
		}()

		loop.Serve(c)
	}))
}

func SetupHealth(app *fiber.App, reg *registry.Registry, loop *ConnectionLoop) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(HealthResponse{
			Status:      "ok",
			Registry:    reg.Status(),
			Connections: loop.Connections(),
		})
	})
}

func SetupMetrics(app *fiber.App, path string) {
	if path == "" {
		return
	}
	app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
}

// Setup mounts every shared route of a relay process. Static assets are
// served last so they never shadow the other routes.
func Setup(app *fiber.App, cfg config.ServerConfig, reg *registry.Registry, loop *ConnectionLoop) {
	SetupWebSocket(app, cfg.WSPath, loop)
	SetupHealth(app, reg, loop)
	SetupMetrics(app, cfg.MetricsPath)
	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}
}

func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
}
