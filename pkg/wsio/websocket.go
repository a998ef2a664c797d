package wsio

import (
	"errors"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the message-oriented connection a Socket runs on.
// *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	RemoteAddr() net.Addr
	Close() error
}

var _ Conn = (*websocket.Conn)(nil)

// Serve reads messages and dispatches them to listeners until the
// connection ends, then closes the socket. Listeners run on the calling
// goroutine.
func (s *Socket) Serve() {
	conn := s.connection()
	if conn == nil {
		s.shutdown(ErrNoConnection)
		return
	}

	for {
		messageType, msg, err := conn.ReadMessage()
		if err != nil {
			s.readFailed(err)
			return
		}
		s.dispatch(messageType, msg)
	}
}

func (s *Socket) readFailed(err error) {
	var ce *websocket.CloseError
	switch {
	case s.State() == StateClosed:
		// Closed locally; the read error is the connection teardown.
		s.shutdown(nil)
		return
	case errors.As(err, &ce) && !websocket.IsUnexpectedCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived):
		s.Logger().Debug("peer closed connection", "code", ce.Code)
	default:
		s.Logger().Error("read error", "error", err)
		s.metrics.readFailed()
	}
	s.shutdown(err)
}

// write sends one message, serialized with all other writes.
func (s *Socket) write(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	switch s.State() {
	case StateConnecting:
		return ErrNotOpen
	case StateClosed:
		return ErrClosed
	}
	if s.conn == nil {
		return ErrNoConnection
	}

	if s.config.WriteTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	}
	return s.conn.WriteMessage(messageType, data)
}
