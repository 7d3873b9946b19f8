package order

import (
	"errors"
)

// Status is the lifecycle state of an order as reported by the backend.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
)

var (
	ErrInvalidStatus = errors.New("invalid status")
	ErrTransition    = errors.New("illegal status transition")
)

func (s Status) String() string {
	return string(s)
}

// Terminal reports whether no further transitions are accepted. Cancellation
// is not a stored status: cancelled orders are removed from the feed instead.
func (s Status) Terminal() bool {
	return s == StatusCompleted
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusAccepted, StatusPreparing, StatusReady, StatusCompleted:
		return Status(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

// next maps each status to the only stage a user action may advance it to.
var next = map[Status]Status{
	StatusPending:   StatusAccepted,
	StatusAccepted:  StatusPreparing,
	StatusPreparing: StatusReady,
	StatusReady:     StatusCompleted,
}

// CanTransition reports whether a user-driven change from one status to the
// next is legal: only the forward adjacent stage, no skipping. Server push
// events are authoritative and bypass this check entirely; the client
// reflects backend truth rather than enforcing it.
func CanTransition(from, to Status) bool {
	return next[from] == to
}
