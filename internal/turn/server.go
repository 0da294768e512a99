package turn

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/irdkwmnsb/screencast-relay/internal/config"
	"github.com/pion/turn/v2"
)

var (
	ErrMissingPublicIP = errors.New("turn public ip is required")
	ErrMissingUsers    = errors.New("turn users are required")
)

var userPattern = regexp.MustCompile(`(\w+)=(\w+)`)

// ParseUsers turns "user=pass" entries into long term credential keys. An
// entry may hold several comma separated pairs.
func ParseUsers(users []string, realm string) map[string][]byte {
	keys := map[string][]byte{}
	for _, kv := range userPattern.FindAllStringSubmatch(strings.Join(users, ","), -1) {
		keys[kv[1]] = turn.GenerateAuthKey(kv[1], realm, kv[2])
	}
	return keys
}

// Server is the TURN relay viewers fall back to when no direct path to the
// producer exists.
type Server struct {
	server *turn.Server
	conns  []net.PacketConn
}

func NewServer(cfg config.TurnConfig) (*Server, error) {
	if cfg.PublicIP == "" {
		return nil, ErrMissingPublicIP
	}
	users := ParseUsers(cfg.Users, cfg.Realm)
	if len(users) == 0 {
		return nil, ErrMissingUsers
	}

	// pion/turn does not allocate the listening sockets itself
	udpListener, err := net.ListenPacket("udp4", "0.0.0.0:"+strconv.Itoa(cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to create TURN server IPv4 listener: %w", err)
	}
	s := &Server{conns: []net.PacketConn{udpListener}}

	packetConnConfigs := []turn.PacketConnConfig{
		{
			PacketConn: udpListener,
			RelayAddressGenerator: &turn.RelayAddressGeneratorPortRange{
				RelayAddress: net.ParseIP(cfg.PublicIP),
				Address:      "0.0.0.0",
				MinPort:      cfg.RelayPortMin,
				MaxPort:      cfg.RelayPortMax,
			},
		},
	}

	if cfg.PublicIPv6 != "" {
		udpListenerIPv6, err := net.ListenPacket("udp6", "[::]:"+strconv.Itoa(cfg.Port))
		if err != nil {
			slog.Warn("failed to create TURN server IPv6 listener, continuing with IPv4 only", "error", err)
		} else {
			s.conns = append(s.conns, udpListenerIPv6)
			packetConnConfigs = append(packetConnConfigs, turn.PacketConnConfig{
				PacketConn: udpListenerIPv6,
				RelayAddressGenerator: &turn.RelayAddressGeneratorPortRange{
					RelayAddress: net.ParseIP(cfg.PublicIPv6),
					Address:      "::",
					MinPort:      cfg.RelayPortMin,
					MaxPort:      cfg.RelayPortMax,
				},
			})
		}
	}

	server, err := turn.NewServer(turn.ServerConfig{
		Realm: cfg.Realm,
		AuthHandler: func(username string, realm string, srcAddr net.Addr) ([]byte, bool) {
			if key, ok := users[username]; ok {
				return key, true
			}
			slog.Debug("turn authentication failed", "username", username, "addr", srcAddr)
			return nil, false
		},
		PacketConnConfigs: packetConnConfigs,
	})
	if err != nil {
		for _, conn := range s.conns {
			_ = conn.Close()
		}
		return nil, fmt.Errorf("failed to start TURN server: %w", err)
	}
	s.server = server

	slog.Info("turn server started", "addr", udpListener.LocalAddr(), "realm", cfg.Realm, "users", len(users))
	return s, nil
}

// Addr is the IPv4 listening address.
func (s *Server) Addr() net.Addr {
	return s.conns[0].LocalAddr()
}

// Close stops the server and releases its listeners.
func (s *Server) Close() error {
	return s.server.Close()
}
