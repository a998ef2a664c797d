package wsio

import (
	"errors"
	"fmt"
)

// Sentinel errors for socket and server conditions.
var (
	// ErrClosed is returned when an operation is attempted on a closed socket.
	ErrClosed = errors.New("wsio: socket closed")

	// ErrNotOpen is returned when a send is attempted before the socket opens.
	ErrNotOpen = errors.New("wsio: socket not open")

	// ErrAlreadyConnected is returned by Connect on a socket that has already
	// been connected or closed.
	ErrAlreadyConnected = errors.New("wsio: socket already connected")

	// ErrNoConnection is returned when a socket has no underlying connection.
	ErrNoConnection = errors.New("wsio: no connection")

	// ErrEmptyName is logged when a listener or emission has no event name.
	ErrEmptyName = errors.New("wsio: empty event name")

	// ErrReservedName is logged when a listener uses the control event name.
	ErrReservedName = errors.New("wsio: event name is reserved")

	// ErrNilHandler is logged when a listener is registered without a handler.
	ErrNilHandler = errors.New("wsio: nil handler")

	// ErrAliasSpaceExhausted is logged when no local alias is left to assign.
	ErrAliasSpaceExhausted = errors.New("wsio: alias space exhausted")

	// ErrServerClosed is returned for connections arriving after Server.Close.
	ErrServerClosed = errors.New("wsio: server closed")
)

// SendError wraps a transport failure with the emission it belonged to.
type SendError struct {
	SocketID string
	Event    string
	Kind     string // "text" or "binary"
	Err      error
}

// Error returns the error message with socket context.
func (e *SendError) Error() string {
	return fmt.Sprintf("wsio: socket %s: send %s %q: %v", e.SocketID, e.Kind, e.Event, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *SendError) Unwrap() error {
	return e.Err
}

// HandlerError wraps a panic raised by a listener.
type HandlerError struct {
	SocketID string
	Event    string
	Panic    any
	Stack    []byte
}

// Error returns the error message.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("wsio: handler panic in socket %s, event %q: %v", e.SocketID, e.Event, e.Panic)
}
