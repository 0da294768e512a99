package domain

import "errors"

var (
	ErrMalformedMessage  = errors.New("malformed message")
	ErrMissingType       = errors.New("message type is missing")
	ErrUnknownType       = errors.New("unknown message type")
	ErrInvalidPayload    = errors.New("invalid message payload")
	ErrProtocolViolation = errors.New("first message must be a registration")
	ErrAlreadyRegistered = errors.New("connection is already registered")
	ErrInvalidRole       = errors.New("invalid role")
)

// Role is the slot a connection occupies in the registry. It is assigned
// exactly once per connection lifetime.
type Role int

const (
	RoleUnassigned Role = iota
	RoleProducer
	RoleViewer
)

const (
	// ProducerWireName is the registration type and ack role used by the capture pipeline.
	ProducerWireName = "gstreamer"
	// ViewerWireName is the registration type and ack role used by viewers.
	ViewerWireName = "client"
)

func (r Role) String() string {
	switch r {
	case RoleProducer:
		return "producer"
	case RoleViewer:
		return "viewer"
	default:
		return "unassigned"
	}
}

// WireName returns the name the role carries on the wire, or an empty string
// for RoleUnassigned.
func (r Role) WireName() string {
	switch r {
	case RoleProducer:
		return ProducerWireName
	case RoleViewer:
		return ViewerWireName
	default:
		return ""
	}
}

// Counterpart returns the role messages of r are relayed to.
func (r Role) Counterpart() Role {
	switch r {
	case RoleProducer:
		return RoleViewer
	case RoleViewer:
		return RoleProducer
	default:
		return RoleUnassigned
	}
}

// RoleFromWireName maps a registration type to a role.
func RoleFromWireName(name string) (Role, bool) {
	switch name {
	case ProducerWireName:
		return RoleProducer, true
	case ViewerWireName:
		return RoleViewer, true
	default:
		return RoleUnassigned, false
	}
}
