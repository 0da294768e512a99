package registry

import (
	"log/slog"
	"sync"

	"github.com/irdkwmnsb/screencast-relay/internal/domain"
	"github.com/irdkwmnsb/screencast-relay/internal/metrics"
	"github.com/irdkwmnsb/screencast-relay/internal/sockets"
)

type Mode int

const (
	// ModeSignalling keeps a single viewer slot.
	ModeSignalling Mode = iota
	// ModeBroadcast keeps an unbounded viewer set.
	ModeBroadcast
)

func (m Mode) String() string {
	if m == ModeBroadcast {
		return "broadcast"
	}
	return "signalling"
}

// Status is a point-in-time view of the slots.
type Status struct {
	Mode     string `json:"mode"`
	Producer bool   `json:"producer"`
	Viewers  int    `json:"viewers"`
}

// Registry holds the producer slot and the viewer slot (or set) of one relay
// session. All methods are safe for concurrent use.
type Registry struct {
	mode Mode

	mutex    sync.RWMutex
	producer sockets.Socket
	viewer   sockets.Socket
	viewers  *sockets.SocketPool
}

func New(mode Mode) *Registry {
	r := &Registry{mode: mode}
	if mode == ModeBroadcast {
		r.viewers = sockets.NewSocketPool()
	}
	return r
}

func (r *Registry) Mode() Mode {
	return r.mode
}

// Register stores socket in the slot for role and returns the previous
// occupant of a singleton slot, if any. The previous occupant stays open.
func (r *Registry) Register(socket sockets.Socket, role domain.Role) sockets.Socket {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var replaced sockets.Socket
	switch {
	case role == domain.RoleProducer:
		replaced, r.producer = r.producer, socket
	case role == domain.RoleViewer && r.mode == ModeBroadcast:
		r.viewers.AddSocket(socket)
	case role == domain.RoleViewer:
		replaced, r.viewer = r.viewer, socket
	default:
		return nil
	}

	metrics.RegistrationsTotal.WithLabelValues(role.String()).Inc()
	if replaced != nil {
		metrics.ReplacementsTotal.WithLabelValues(role.String()).Inc()
		slog.Info("role slot replaced, previous occupant orphaned",
			"role", role, "socketID", socket.ID(), "orphanID", replaced.ID())
	} else {
		metrics.RegisteredConnections.WithLabelValues(role.String()).Inc()
	}
	return replaced
}

// Unregister vacates the slot held by socket. Orphaned sockets hold no slot,
// so disconnecting them leaves the current occupant in place.
func (r *Registry) Unregister(socket sockets.Socket, role domain.Role) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	removed := false
	switch {
	case role == domain.RoleProducer && r.producer == socket:
		r.producer = nil
		removed = true
	case role == domain.RoleViewer && r.mode == ModeBroadcast:
		removed = r.viewers.RemoveSocket(socket.ID())
	case role == domain.RoleViewer && r.viewer == socket:
		r.viewer = nil
		removed = true
	}

	if removed {
		metrics.RegisteredConnections.WithLabelValues(role.String()).Dec()
	}
	return removed
}

// IsCurrent reports whether socket currently holds the slot for role.
func (r *Registry) IsCurrent(socket sockets.Socket, role domain.Role) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	switch {
	case role == domain.RoleProducer:
		return r.producer == socket
	case role == domain.RoleViewer && r.mode == ModeBroadcast:
		return r.viewers.GetSocket(socket.ID()) != nil
	case role == domain.RoleViewer:
		return r.viewer == socket
	}
	return false
}

// Counterpart returns the socket that messages from socket, registered as
// role, should be relayed to. It returns nil when the sender is orphaned or
// the counterpart slot is empty.
func (r *Registry) Counterpart(socket sockets.Socket, role domain.Role) sockets.Socket {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	switch role {
	case domain.RoleProducer:
		if r.producer != socket || r.mode == ModeBroadcast {
			return nil
		}
		return r.viewer
	case domain.RoleViewer:
		if r.mode == ModeBroadcast || r.viewer != socket {
			return nil
		}
		return r.producer
	}
	return nil
}

func (r *Registry) Producer() sockets.Socket {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.producer
}

// Viewers returns a snapshot of the registered viewers.
func (r *Registry) Viewers() []sockets.Socket {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.mode == ModeBroadcast {
		return r.viewers.Snapshot()
	}
	if r.viewer == nil {
		return nil
	}
	return []sockets.Socket{r.viewer}
}

func (r *Registry) Status() Status {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	status := Status{Mode: r.mode.String(), Producer: r.producer != nil}
	if r.mode == ModeBroadcast {
		status.Viewers = r.viewers.Len()
	} else if r.viewer != nil {
		status.Viewers = 1
	}
	return status
}
