package api

import (
	"encoding/json"
	"fmt"

	"github.com/irdkwmnsb/screencast-relay/internal/domain"
)

type MessageType string
type QualityAction string

const (
	MessageTypeViewer   = MessageType(domain.ViewerWireName)
	MessageTypeProducer = MessageType(domain.ProducerWireName)
	MessageTypeAck      = MessageType("ack")
	MessageTypeReady    = MessageType("ready")
	MessageTypeOffer    = MessageType("offer")
	MessageTypeAnswer   = MessageType("answer")
	MessageTypeIce      = MessageType("ice")
	MessageTypeQuality  = MessageType("quality")
	MessageTypeError    = MessageType("error")
)

const (
	QualityLower = QualityAction("lower")
	QualityRaise = QualityAction("raise")
)

// ErrorCodeNoCounterpart is sent to a viewer whose message could not be
// relayed because no producer is registered.
const ErrorCodeNoCounterpart = 404

// Message is one signaling frame. Exactly one variant, selected by Type, is
// meaningful per message.
type Message struct {
	Type          MessageType   `json:"type"`
	Role          string        `json:"role,omitempty"`
	SDP           string        `json:"sdp,omitempty"`
	Candidate     string        `json:"candidate,omitempty"`
	SDPMLineIndex *uint16       `json:"sdpMLineIndex,omitempty"`
	Action        QualityAction `json:"action,omitempty"`
	Code          int           `json:"code,omitempty"`
	Text          string        `json:"message,omitempty"`
}

// Decode parses and validates a raw frame. All failures wrap
// domain.ErrMalformedMessage so callers can treat them uniformly.
func Decode(raw []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", domain.ErrMalformedMessage, err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, fmt.Errorf("%w: %w", domain.ErrMalformedMessage, err)
	}
	return m, nil
}

// Validate checks that the fields required by the message variant are present.
func (m Message) Validate() error {
	switch m.Type {
	case "":
		return domain.ErrMissingType
	case MessageTypeViewer, MessageTypeProducer, MessageTypeReady:
		return nil
	case MessageTypeAck:
		if _, ok := domain.RoleFromWireName(m.Role); !ok {
			return fmt.Errorf("%w: ack role %q", domain.ErrInvalidPayload, m.Role)
		}
	case MessageTypeOffer, MessageTypeAnswer:
		if m.SDP == "" {
			return fmt.Errorf("%w: %s without sdp", domain.ErrInvalidPayload, m.Type)
		}
	case MessageTypeIce:
		// an empty candidate marks the end of candidates
		return nil
	case MessageTypeQuality:
		if m.Action != QualityLower && m.Action != QualityRaise {
			return fmt.Errorf("%w: quality action %q", domain.ErrInvalidPayload, m.Action)
		}
	case MessageTypeError:
		if m.Code == 0 {
			return fmt.Errorf("%w: error without code", domain.ErrInvalidPayload)
		}
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownType, m.Type)
	}
	return nil
}

// RegistrationRole reports the role a registration message asks for.
func (m Message) RegistrationRole() (domain.Role, bool) {
	return domain.RoleFromWireName(string(m.Type))
}

// IsRelayable reports whether a message from a sender holding role may be
// forwarded to the counterpart.
func (m Message) IsRelayable(from domain.Role) bool {
	switch m.Type {
	case MessageTypeReady, MessageTypeOffer, MessageTypeAnswer, MessageTypeIce:
		return from == domain.RoleProducer || from == domain.RoleViewer
	case MessageTypeQuality:
		return from == domain.RoleViewer
	}
	return false
}

func Encode(m Message) []byte {
	data, err := json.Marshal(m)
	if err != nil {
		// Message holds only strings and integers.
		panic(err)
	}
	return data
}

func NewRegistration(role domain.Role) Message {
	return Message{Type: MessageType(role.WireName())}
}

func NewAck(role domain.Role) Message {
	return Message{Type: MessageTypeAck, Role: role.WireName()}
}

func NewReady() Message {
	return Message{Type: MessageTypeReady}
}

func NewAnswer(sdp string) Message {
	return Message{Type: MessageTypeAnswer, SDP: sdp}
}

func NewIce(candidate string, sdpMLineIndex *uint16) Message {
	return Message{Type: MessageTypeIce, Candidate: candidate, SDPMLineIndex: sdpMLineIndex}
}

func NewQuality(action QualityAction) Message {
	return Message{Type: MessageTypeQuality, Action: action}
}

func NewError(code int, text string) Message {
	return Message{Type: MessageTypeError, Code: code, Text: text}
}

func NewNoCounterpartError(role domain.Role) Message {
	return NewError(ErrorCodeNoCounterpart, role.String()+" not connected")
}
