package wsio

import (
	"encoding/json"
	"errors"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/wsio/pkg/protocol"
)

type messageKind uint8

const (
	kindText messageKind = iota
	kindBinary
)

func (k messageKind) String() string {
	if k == kindBinary {
		return "binary"
	}
	return "text"
}

// pendingEmission is an outbound event waiting for its name to resolve.
// payload is encoded JSON for text events and raw bytes for binary events.
type pendingEmission struct {
	name     string
	kind     messageKind
	payload  []byte
	attempts int
}

// Emit sends data, encoded as JSON, to the peer's listener for name.
func (s *Socket) Emit(name string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		s.Logger().Error("cannot encode payload", "event", name, "error", err)
		s.metrics.messageDropped(dropEncode)
		return
	}
	s.emitEncoded(name, payload)
}

// EmitRaw sends an already encoded JSON payload to the peer's listener for
// name. The slice is copied.
func (s *Socket) EmitRaw(name string, payload []byte) {
	if !json.Valid(payload) {
		s.Logger().Error("cannot encode payload", "event", name, "error", protocol.ErrInvalidPayload)
		s.metrics.messageDropped(dropEncode)
		return
	}
	s.emitEncoded(name, append([]byte(nil), payload...))
}

func (s *Socket) emitEncoded(name string, payload []byte) {
	s.emit(&pendingEmission{
		name:     name,
		kind:     kindText,
		payload:  payload,
		attempts: s.config.RetryAttempts,
	})
}

// EmitBinary sends data to the peer's binary listener for name. The slice is
// copied, so the caller may reuse it.
func (s *Socket) EmitBinary(name string, data []byte) {
	s.emit(&pendingEmission{
		name:     name,
		kind:     kindBinary,
		payload:  append([]byte(nil), data...),
		attempts: s.config.RetryAttempts,
	})
}

func (s *Socket) emit(p *pendingEmission) {
	if p.name == "" {
		s.Logger().Error("cannot emit message", "error", ErrEmptyName)
		return
	}
	s.attempt(p)
}

// attempt makes one delivery attempt. It runs on the caller's goroutine for
// the first attempt and on the retry queue's goroutine afterwards.
func (s *Socket) attempt(p *pendingEmission) {
	if st := s.State(); st != StateOpen {
		s.Logger().Debug("dropping message, socket not open", "event", p.name, "state", st.String())
		return
	}

	alias, ok := s.registry.resolveOutgoing(p.name)
	if !ok {
		s.deferEmission(p)
		return
	}
	s.send(p, alias)
}

func (s *Socket) deferEmission(p *pendingEmission) {
	if p.attempts <= 0 {
		s.Logger().Warn("not sending message, recipient has no listener", "event", p.name)
		s.metrics.messageDropped(dropNoRecipient)
		return
	}
	p.attempts--
	if s.retries.Schedule(p.name, s.config.RetryDelay, p) {
		s.metrics.retryScheduled()
	}
}

// flushPending delivers emissions waiting on name right away, oldest first.
// Called once the peer has announced name.
func (s *Socket) flushPending(name string) {
	for _, p := range s.retries.Take(name) {
		s.attempt(p)
	}
}

func (s *Socket) send(p *pendingEmission, alias protocol.Alias) {
	var (
		messageType int
		msg         []byte
	)
	switch p.kind {
	case kindBinary:
		messageType = websocket.BinaryMessage
		msg = protocol.EncodeBinary(alias, p.payload)
	default:
		var err error
		messageType = websocket.TextMessage
		msg, err = protocol.EncodeEnvelope(alias, p.payload)
		if err != nil {
			s.Logger().Error("cannot encode message", "event", p.name, "error", err)
			s.metrics.messageDropped(dropEncode)
			return
		}
	}

	if err := s.write(messageType, msg); err != nil {
		if errors.Is(err, ErrClosed) || errors.Is(err, ErrNotOpen) {
			return
		}
		sendErr := &SendError{SocketID: s.ID(), Event: p.name, Kind: p.kind.String(), Err: err}
		s.Logger().Error("send failed", "event", p.name, "error", sendErr)
		s.metrics.sendFailed(p.kind)
		return
	}
	s.metrics.messageSent(p.kind, len(msg))
}
