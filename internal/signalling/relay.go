package signalling

import (
	"log/slog"

	"github.com/irdkwmnsb/screencast-relay/internal/api"
	"github.com/irdkwmnsb/screencast-relay/internal/domain"
	"github.com/irdkwmnsb/screencast-relay/internal/metrics"
	"github.com/irdkwmnsb/screencast-relay/internal/registry"
	"github.com/irdkwmnsb/screencast-relay/internal/sockets"
)

// Relay forwards signaling messages between the producer and the viewer slot.
//
// Frames are forwarded as received, without re-encoding. Each connection is
// read by a single goroutine and socket writes are serialized, so messages
// from one sender reach the counterpart in the order they were sent. Nothing
// is queued: a message without a counterpart is dropped.
type Relay struct {
	registry *registry.Registry
}

func NewRelay(reg *registry.Registry) *Relay {
	return &Relay{registry: reg}
}

// Route forwards raw, the frame msg was decoded from, to the counterpart of
// sender.
func (r *Relay) Route(sender *registry.Session, msg api.Message, raw []byte) domain.RouteResult {
	result := r.route(sender, msg, raw)
	metrics.SignallingMessagesTotal.WithLabelValues(string(msg.Type), result.String()).Inc()
	return result
}

func (r *Relay) route(sender *registry.Session, msg api.Message, raw []byte) domain.RouteResult {
	role := sender.Role()
	socket := sender.Socket()

	if !msg.IsRelayable(role) {
		slog.Debug("dropping message not relayable from role", "socketID", socket.ID(), "role", role, "type", msg.Type)
		return domain.Dropped
	}

	target := r.registry.Counterpart(socket, role)
	if target == nil {
		if r.registry.IsCurrent(socket, role) {
			r.notifyNoCounterpart(sender)
		}
		slog.Debug("dropping message without counterpart", "socketID", socket.ID(), "role", role, "type", msg.Type)
		return domain.Dropped
	}

	if err := target.WriteMessage(sockets.TextMessage, raw); err != nil {
		slog.Warn("failed to relay message", "from", socket.ID(), "to", target.ID(), "type", msg.Type, "error", err)
		return domain.Dropped
	}
	return domain.Delivered
}

// notifyNoCounterpart tells a viewer that its message went nowhere. Producers
// are not notified.
func (r *Relay) notifyNoCounterpart(sender *registry.Session) {
	if sender.Role() != domain.RoleViewer {
		return
	}
	notice := api.Encode(api.NewNoCounterpartError(domain.RoleProducer))
	if err := sender.Socket().WriteMessage(sockets.TextMessage, notice); err != nil {
		slog.Warn("failed to send error", "socketID", sender.Socket().ID(), "error", err)
	}
}

// HandleMessage implements web.FrameHandler.
func (r *Relay) HandleMessage(session *registry.Session, msg api.Message, raw []byte) {
	r.Route(session, msg, raw)
}

// HandleBinary implements web.FrameHandler. Signaling carries no binary frames.
func (r *Relay) HandleBinary(session *registry.Session, _ []byte) {
	slog.Debug("dropping binary frame", "socketID", session.Socket().ID())
}
