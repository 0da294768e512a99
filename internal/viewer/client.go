// Package viewer is a headless viewer: it registers with a signaling relay,
// answers the producer's offer, and runs the quality feedback loop on the
// received video track.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/irdkwmnsb/screencast-relay/internal/api"
	"github.com/irdkwmnsb/screencast-relay/internal/config"
	"github.com/irdkwmnsb/screencast-relay/internal/domain"
	"github.com/irdkwmnsb/screencast-relay/internal/sockets"
	"github.com/pion/webrtc/v4"
)

type Client struct {
	config config.AppConfig
	api    *webrtc.API

	mu      sync.Mutex
	socket  sockets.Socket
	peer    *peerSession
	offered bool
	retry   *time.Timer
}

func NewClient(cfg config.AppConfig) (*Client, error) {
	webrtcAPI, err := NewWebRTCAPI(cfg.WebRTC)
	if err != nil {
		return nil, err
	}
	return &Client{config: cfg, api: webrtcAPI}, nil
}

// Dial connects to the relay websocket at url and runs until ctx is done or
// the relay closes the connection.
func (c *Client) Dial(ctx context.Context, url string) error {
	slog.Info("connecting to relay", "url", url)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	return c.Run(ctx, conn)
}

// Run drives an established signaling connection.
func (c *Client) Run(ctx context.Context, conn sockets.ReadConn) error {
	socket := sockets.NewSocket(conn, c.config.Server.WriteTimeout)
	c.mu.Lock()
	c.socket = socket
	c.mu.Unlock()
	defer c.teardown()

	stop := context.AfterFunc(ctx, func() { _ = socket.Close() })
	defer stop()

	if err := c.send(api.NewRegistration(domain.RoleViewer)); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("signaling connection: %w", err)
		}

		msg, err := api.Decode(raw)
		if err != nil {
			slog.Warn("dropping malformed message", "error", err)
			continue
		}
		if err := c.handle(msg); err != nil {
			slog.Error("failed to handle message", "type", msg.Type, "error", err)
		}
	}
}

func (c *Client) handle(msg api.Message) error {
	switch msg.Type {
	case api.MessageTypeAck:
		slog.Info("registered", "role", msg.Role)
		return c.send(api.NewReady())
	case api.MessageTypeError:
		slog.Warn("relay reported an error", "code", msg.Code, "message", msg.Text)
		if msg.Code == api.ErrorCodeNoCounterpart {
			// the producer is gone, a new one waits for ready before offering
			c.mu.Lock()
			c.offered = false
			c.mu.Unlock()
			c.scheduleReady()
		}
		return nil
	case api.MessageTypeOffer:
		return c.handleOffer(msg.SDP)
	case api.MessageTypeIce:
		return c.handleCandidate(msg)
	default:
		slog.Debug("ignoring message", "type", msg.Type)
		return nil
	}
}

// scheduleReady re-sends ready after the retry interval unless an offer
// arrives first. The relay answers each ready sent while no producer is
// registered with another 404, which schedules the next attempt.
func (c *Client) scheduleReady() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.offered || c.retry != nil || c.config.Quality.ReadyRetryInterval <= 0 {
		return
	}
	c.retry = time.AfterFunc(c.config.Quality.ReadyRetryInterval, func() {
		c.mu.Lock()
		c.retry = nil
		offered := c.offered
		c.mu.Unlock()
		if offered {
			return
		}
		if err := c.send(api.NewReady()); err != nil {
			slog.Warn("failed to resend ready", "error", err)
		}
	})
}

// handleOffer starts a fresh peer session for every offer. A producer that
// reconnects sends a new offer and the previous session is discarded.
func (c *Client) handleOffer(sdp string) error {
	c.mu.Lock()
	c.offered = true
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
	previous := c.peer
	c.peer = nil
	socket := c.socket
	c.mu.Unlock()

	if previous != nil {
		_ = previous.close()
	}

	peer, err := newPeerSession(c.api, c.config, socket)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.peer = peer
	c.mu.Unlock()

	answer, err := peer.answer(sdp)
	if err != nil {
		return err
	}
	return c.send(api.NewAnswer(answer))
}

func (c *Client) handleCandidate(msg api.Message) error {
	c.mu.Lock()
	peer := c.peer
	c.mu.Unlock()
	if peer == nil {
		return errors.New("ice candidate before offer")
	}
	return peer.addCandidate(webrtc.ICECandidateInit{
		Candidate:     msg.Candidate,
		SDPMLineIndex: msg.SDPMLineIndex,
	})
}

func (c *Client) send(msg api.Message) error {
	c.mu.Lock()
	socket := c.socket
	c.mu.Unlock()
	if socket == nil {
		return domain.ErrSocketClosed
	}
	return socket.WriteMessage(sockets.TextMessage, api.Encode(msg))
}

func (c *Client) teardown() {
	c.mu.Lock()
	peer := c.peer
	c.peer = nil
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
	socket := c.socket
	c.mu.Unlock()

	if peer != nil {
		_ = peer.close()
	}
	if socket != nil {
		_ = socket.Close()
	}
}

// PeerConnectionState reports the state of the current peer session.
func (c *Client) PeerConnectionState() (webrtc.PeerConnectionState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.peer == nil {
		return webrtc.PeerConnectionStateUnknown, false
	}
	return c.peer.pc.ConnectionState(), true
}
