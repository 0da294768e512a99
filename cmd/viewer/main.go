package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/irdkwmnsb/screencast-relay/internal/config"
	"github.com/irdkwmnsb/screencast-relay/internal/logging"
	"github.com/irdkwmnsb/screencast-relay/internal/viewer"
)

func main() {
	url := flag.String("url", "ws://localhost:8000/ws", "Relay websocket url.")
	configDir := flag.String("config", "conf", "Directory holding the config section files.")
	reconnect := flag.Duration("reconnect", 2*time.Second, "Delay before reconnecting after the relay drops the connection, 0 to exit instead.")
	flag.Parse()

	cfg, err := config.LoadAppConfig(*configDir)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		client, err := viewer.NewClient(*cfg)
		if err != nil {
			slog.Error("failed to create viewer", "error", err)
			os.Exit(1)
		}

		err = client.Dial(ctx, *url)
		if ctx.Err() != nil {
			return
		}
		slog.Warn("relay connection ended", "error", err)
		if *reconnect <= 0 {
			os.Exit(1)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(*reconnect):
		}
	}
}
