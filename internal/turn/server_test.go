package turn

import (
	"net"
	"testing"

	"github.com/irdkwmnsb/screencast-relay/internal/config"
	"github.com/pion/turn/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUsers(t *testing.T) {
	keys := ParseUsers([]string{"alice=secret,bob=hunter2", "carol=pw"}, "screencast.turn")

	require.Len(t, keys, 3)
	assert.Equal(t, turn.GenerateAuthKey("alice", "screencast.turn", "secret"), keys["alice"])
	assert.Equal(t, turn.GenerateAuthKey("bob", "screencast.turn", "hunter2"), keys["bob"])
	assert.Equal(t, turn.GenerateAuthKey("carol", "screencast.turn", "pw"), keys["carol"])
}

func TestParseUsersIgnoresGarbage(t *testing.T) {
	assert.Empty(t, ParseUsers([]string{"", "nopassword", "=x"}, "realm"))
}

func TestNewServerRequiresPublicIPAndUsers(t *testing.T) {
	cfg := config.DefaultAppConfig().Turn
	cfg.Port = 0

	_, err := NewServer(cfg)
	assert.ErrorIs(t, err, ErrMissingPublicIP)

	cfg.PublicIP = "127.0.0.1"
	_, err = NewServer(cfg)
	assert.ErrorIs(t, err, ErrMissingUsers)
}

func TestServerStartsAndCloses(t *testing.T) {
	cfg := config.DefaultAppConfig().Turn
	cfg.Port = 0
	cfg.PublicIP = "127.0.0.1"
	cfg.Users = []string{"viewer=password"}

	server, err := NewServer(cfg)
	require.NoError(t, err)

	addr, ok := server.Addr().(*net.UDPAddr)
	require.True(t, ok)
	assert.NotZero(t, addr.Port)

	assert.NoError(t, server.Close())
}
