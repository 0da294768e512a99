package registry

import (
	"fmt"
	"log/slog"

	"github.com/irdkwmnsb/screencast-relay/internal/api"
	"github.com/irdkwmnsb/screencast-relay/internal/domain"
	"github.com/irdkwmnsb/screencast-relay/internal/sockets"
)

// Session is the registration state of one connection. It moves from
// unassigned to producer or viewer exactly once.
type Session struct {
	socket sockets.Socket
	role   domain.Role
}

func (s *Session) Socket() sockets.Socket {
	return s.socket
}

func (s *Session) Role() domain.Role {
	return s.role
}

func (s *Session) assign(role domain.Role) error {
	if role == domain.RoleUnassigned {
		return domain.ErrInvalidRole
	}
	if s.role != domain.RoleUnassigned {
		return fmt.Errorf("%w as %s", domain.ErrAlreadyRegistered, s.role)
	}
	s.role = role
	return nil
}

// Connect starts tracking a new connection. Nothing is registered until its
// first registration message arrives.
func (r *Registry) Connect(socket sockets.Socket) *Session {
	return &Session{socket: socket}
}

// Classify feeds one decoded message through the session state machine.
//
// A registration from an unassigned session replies with an ack, then takes
// the role slot and returns RoleAssigned. Any other first message returns
// domain.ErrProtocolViolation and the caller must close the connection. A
// repeated registration returns domain.ErrAlreadyRegistered and changes
// nothing. Everything else is Passthrough.
func (r *Registry) Classify(session *Session, msg api.Message) (domain.Classification, error) {
	role, isRegistration := msg.RegistrationRole()

	if session.role == domain.RoleUnassigned {
		if !isRegistration {
			return domain.Passthrough, fmt.Errorf("%w: got %q", domain.ErrProtocolViolation, msg.Type)
		}
		if err := session.assign(role); err != nil {
			return domain.Passthrough, err
		}
		// the ack goes out before the slot is taken, so nothing relayed by
		// the counterpart can overtake it
		if err := session.socket.WriteMessage(sockets.TextMessage, api.Encode(api.NewAck(role))); err != nil {
			slog.Warn("failed to send ack", "socketID", session.socket.ID(), "error", err)
		}
		r.Register(session.socket, role)
		slog.Info("connection registered", "socketID", session.socket.ID(), "role", role)
		return domain.RoleAssigned, nil
	}

	if isRegistration {
		return domain.Passthrough, session.assign(role)
	}
	return domain.Passthrough, nil
}

// Disconnect vacates whatever slot the session holds.
func (r *Registry) Disconnect(session *Session) {
	if session.role == domain.RoleUnassigned {
		return
	}
	if r.Unregister(session.socket, session.role) {
		slog.Info("connection unregistered", "socketID", session.socket.ID(), "role", session.role)
	} else {
		slog.Info("orphaned connection closed", "socketID", session.socket.ID(), "role", session.role)
	}
}
