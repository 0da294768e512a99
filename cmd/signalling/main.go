package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/irdkwmnsb/screencast-relay/internal/config"
	"github.com/irdkwmnsb/screencast-relay/internal/logging"
	"github.com/irdkwmnsb/screencast-relay/internal/metrics"
	"github.com/irdkwmnsb/screencast-relay/internal/signalling"
	"github.com/irdkwmnsb/screencast-relay/internal/web"
)

func main() {
	configDir := flag.String("config", "conf", "Directory holding the config section files.")
	flag.Parse()

	manager, err := config.NewManager(*configDir)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	defer manager.Close()

	cfg := manager.Get()
	logging.Setup(cfg.Log)
	manager.SetUpdateCallback(func(next *config.AppConfig) {
		logging.Apply(next.Log)
		metrics.ConfigReloads.Inc()
	})
	metrics.StartTime.Set(float64(time.Now().Unix()))

	app := web.NewApp()
	server := signalling.NewServer(cfg.Server, app)
	defer server.Close()
	server.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutting down")
		_ = app.Shutdown()
	}()

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	if cfg.Server.TLSCrtFile != nil && cfg.Server.TLSKeyFile != nil {
		slog.Info("running TLS signalling server", "addr", addr)
		err = app.ListenTLS(addr, *cfg.Server.TLSCrtFile, *cfg.Server.TLSKeyFile)
	} else {
		slog.Info("running signalling server", "addr", addr)
		err = app.Listen(addr)
	}
	if err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
