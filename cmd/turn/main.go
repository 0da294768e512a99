package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/irdkwmnsb/screencast-relay/internal/config"
	"github.com/irdkwmnsb/screencast-relay/internal/logging"
	"github.com/irdkwmnsb/screencast-relay/internal/turn"
)

func main() {
	configDir := flag.String("config", "conf", "Directory holding the config section files.")
	publicIP := flag.String("public-ip", "", "IPv4 address that TURN can be contacted by, overrides turn.publicIp.")
	users := flag.String("users", "", "List of username and password (e.g. \"user=pass,user=pass\"), overrides turn.users.")
	flag.Parse()

	cfg, err := config.LoadAppConfig(*configDir)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log)

	if *publicIP != "" {
		cfg.Turn.PublicIP = *publicIP
	}
	if *users != "" {
		cfg.Turn.Users = strings.Split(*users, ",")
	}

	server, err := turn.NewServer(cfg.Turn)
	if err != nil {
		slog.Error("failed to start turn server", "error", err)
		os.Exit(1)
	}

	// Block until user sends SIGINT or SIGTERM
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	if err := server.Close(); err != nil {
		slog.Error("failed to close turn server", "error", err)
		os.Exit(1)
	}
}
