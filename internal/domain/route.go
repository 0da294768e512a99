package domain

import "errors"

var (
	ErrSocketClosed   = errors.New("socket is closed")
	ErrReadOnlySocket = errors.New("socket does not accept writes")
)

// RouteResult reports what happened to a relayed message. Callers at the
// protocol level ignore it; it exists for metrics and tests.
type RouteResult int

const (
	Dropped RouteResult = iota
	Delivered
)

func (r RouteResult) String() string {
	if r == Delivered {
		return "delivered"
	}
	return "dropped"
}

// Classification is the outcome of feeding a message through the registry.
type Classification int

const (
	// Passthrough means the sender is registered and the message should be routed.
	Passthrough Classification = iota
	// RoleAssigned means the message registered the sender and was consumed.
	RoleAssigned
)
