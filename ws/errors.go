package ws

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrProtocolViolation is fatal: the client receives BD and the connection is closed.
var ErrProtocolViolation = errors.New("protocol violation")

// FatalError terminates the connection after sending Message as BD packet.
type FatalError struct {
	Message string
	cause   error
}

func (e *FatalError) Error() string {
	return e.Message
}

func (e *FatalError) Unwrap() error {
	return e.cause
}

func protocolViolation(header string) error {
	return &FatalError{
		Message: "A protocol error has been encountered. Packet : " + header,
		cause:   ErrProtocolViolation,
	}
}

// PermissionDeniedError is returned when the client lacks the permission a packet or command requires. Nothing
// is mutated.
type PermissionDeniedError struct {
	Action string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Action)
}

// PolicyRejectedError is a recoverable rejection by the room's policy (music disabled, area locked, ...). Reason
// is sent to the client as server message.
type PolicyRejectedError struct {
	Reason string
}

func (e *PolicyRejectedError) Error() string {
	return e.Reason
}

func reject(format string, args ...interface{}) error {
	return &PolicyRejectedError{Reason: fmt.Sprintf(format, args...)}
}
