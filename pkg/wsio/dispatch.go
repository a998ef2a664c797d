package wsio

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/wsio/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// dispatch routes one received message to its listener.
func (s *Socket) dispatch(messageType int, msg []byte) {
	switch messageType {
	case websocket.TextMessage:
		s.dispatchText(msg)
	case websocket.BinaryMessage:
		s.dispatchBinary(msg)
	default:
		s.Logger().Warn("unknown message type", "type", messageType)
	}
}

func (s *Socket) dispatchText(msg []byte) {
	s.metrics.messageReceived(kindText, len(msg))

	env, err := protocol.DecodeEnvelope(msg)
	if err != nil {
		s.Logger().Warn("dropping malformed message", "error", err)
		s.metrics.messageDropped(dropMalformed)
		return
	}

	name, ok := s.registry.resolveIncoming(env.Alias)
	if !ok {
		s.Logger().Warn("no handler for message", "alias", env.Alias.String())
		s.metrics.messageDropped(dropUnknownAlias)
		return
	}

	if name == protocol.ControlEvent {
		s.handleAnnouncement(env.Data)
		return
	}

	handler := s.registry.messageHandler(name)
	if handler == nil {
		s.Logger().Debug("no listener for event", "event", name, "kind", kindText.String())
		s.metrics.messageDropped(dropNoHandler)
		return
	}

	s.invoke(name, env.Alias, kindText, func() {
		handler(s, Payload(env.Data))
	})
}

// handleAnnouncement records the alias the peer assigned to one of its
// listeners and releases emissions that were waiting for it.
func (s *Socket) handleAnnouncement(data []byte) {
	ann, err := protocol.DecodeAnnouncement(data)
	if err != nil {
		s.Logger().Warn("dropping malformed announcement", "error", err)
		s.metrics.messageDropped(dropMalformed)
		return
	}
	if !s.registry.learnRemote(ann.Listener, ann.Alias) {
		s.Logger().Warn("ignoring announcement for reserved event", "event", ann.Listener)
		return
	}
	s.metrics.announcementReceived()
	s.Logger().Debug("remote listener announced", "event", ann.Listener, "alias", ann.Alias.String())

	s.flushPending(ann.Listener)
}

func (s *Socket) dispatchBinary(msg []byte) {
	s.metrics.messageReceived(kindBinary, len(msg))

	alias, payload, err := protocol.DecodeBinary(msg)
	if err != nil {
		s.Logger().Warn("dropping malformed message", "error", err)
		s.metrics.messageDropped(dropMalformed)
		return
	}

	if alias.IsControl() {
		s.Logger().Warn("announcements are not accepted on the binary channel")
		s.metrics.messageDropped(dropUnsupported)
		return
	}

	name, ok := s.registry.resolveIncoming(alias)
	if !ok {
		s.Logger().Warn("no handler for message", "alias", alias.String())
		s.metrics.messageDropped(dropUnknownAlias)
		return
	}

	handler := s.registry.binaryHandler(name)
	if handler == nil {
		s.Logger().Debug("no listener for event", "event", name, "kind", kindBinary.String())
		s.metrics.messageDropped(dropNoHandler)
		return
	}

	s.invoke(name, alias, kindBinary, func() {
		handler(s, payload)
	})
}

// invoke runs a listener inside a dispatch span, with panic recovery.
func (s *Socket) invoke(name string, alias protocol.Alias, kind messageKind, fn func()) {
	_, span := s.tracer.Start(context.Background(), "wsio.dispatch",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("wsio.event", name),
			attribute.String("wsio.alias", alias.String()),
			attribute.String("wsio.kind", kind.String()),
			attribute.String("wsio.socket_id", s.ID()),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.observeDispatch(kind, time.Since(start))

		if r := recover(); r != nil {
			stack := debug.Stack()
			herr := &HandlerError{SocketID: s.ID(), Event: name, Panic: r, Stack: stack}
			s.Logger().Error("handler panic",
				"event", name,
				"panic", r,
				"stack", string(stack))
			span.RecordError(herr)
			span.SetStatus(codes.Error, "handler panic")
			s.metrics.handlerPanicked()
		}
	}()

	fn()
}
