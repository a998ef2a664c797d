package wsio

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/wsio/internal/retry"
	"github.com/vango-dev/wsio/pkg/protocol"
	"go.opentelemetry.io/otel/trace"
)

// Socket is one side of a wsio connection: its alias tables, listeners,
// pending emissions and connection state.
type Socket struct {
	id   atomic.Value // string
	addr string       // dial address, clients only

	// Connection
	conn    Conn
	writeMu sync.Mutex // Protects conn writes and conn replacement
	state   lifecycle
	done    chan struct{}

	registry *registry
	retries  *retry.Queue[*pendingEmission]

	closeMu        sync.Mutex
	closeCallbacks []func(*Socket)

	config  *Config
	logger  atomic.Pointer[slog.Logger]
	metrics *Metrics
	tracer  trace.Tracer
}

func newSocket(cfg *Config, remote string) *Socket {
	cfg = normalizeConfig(cfg)
	s := &Socket{
		done:     make(chan struct{}),
		registry: newRegistry(),
		config:   cfg,
		metrics:  cfg.Metrics,
		tracer:   cfg.Tracer,
	}
	s.setRemote(remote)
	s.retries = retry.New(cfg.Clock, s.attempt)
	return s
}

// NewSocket wraps an established connection. The socket starts in
// StateConnecting; call Open and then Serve.
func NewSocket(conn Conn, cfg *Config) *Socket {
	remote := ""
	if conn != nil && conn.RemoteAddr() != nil {
		remote = conn.RemoteAddr().String()
	}
	s := newSocket(cfg, remote)
	s.attach(conn)
	return s
}

// attach installs the connection. Called before the socket opens.
func (s *Socket) attach(conn Conn) {
	if conn == nil {
		return
	}
	s.writeMu.Lock()
	s.conn = conn
	s.writeMu.Unlock()

	if addr := conn.RemoteAddr(); addr != nil {
		s.setRemote(addr.String())
	}
	if s.config.MaxMessageSize > 0 {
		conn.SetReadLimit(s.config.MaxMessageSize)
	}
}

// setRemote sets the socket ID and rebinds the logger to it.
func (s *Socket) setRemote(remote string) {
	s.id.Store(remote)
	s.logger.Store(s.config.Logger.With("remote", remote))
}

func (s *Socket) connection() Conn {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn
}

// ID returns the remote address (host:port) of the connection, or the dial
// address before a client connects.
func (s *Socket) ID() string {
	id, _ := s.id.Load().(string)
	return id
}

// State returns the current connection state.
func (s *Socket) State() State {
	return s.state.get()
}

// Done returns a channel that is closed when the socket closes.
func (s *Socket) Done() <-chan struct{} {
	return s.done
}

// Logger returns the socket logger.
func (s *Socket) Logger() *slog.Logger {
	return s.logger.Load()
}

// Open moves the socket to StateOpen and calls onOpen once, synchronously.
// It reports false, without calling onOpen, if the socket was not
// connecting.
func (s *Socket) Open(onOpen func(*Socket)) bool {
	if !s.markOpen() {
		return false
	}
	if onOpen != nil {
		onOpen(s)
	}
	return true
}

func (s *Socket) markOpen() bool {
	if !s.state.open() {
		return false
	}
	s.metrics.socketOpened()
	s.Logger().Info("socket open", "id", s.ID())
	return true
}

// On registers a listener for structured events named name and announces it
// to the peer. Registering a name again keeps its alias and replaces the
// handler.
func (s *Socket) On(name string, handler MessageHandler) {
	if handler == nil {
		s.Logger().Error("cannot register listener", "event", name, "error", ErrNilHandler)
		return
	}
	s.register(name, handler, nil)
}

// OnBinary registers a listener for binary events named name and announces
// it to the peer.
func (s *Socket) OnBinary(name string, handler BinaryHandler) {
	if handler == nil {
		s.Logger().Error("cannot register listener", "event", name, "error", ErrNilHandler)
		return
	}
	s.register(name, nil, handler)
}

func (s *Socket) register(name string, mh MessageHandler, bh BinaryHandler) {
	switch name {
	case "":
		s.Logger().Error("cannot register listener", "error", ErrEmptyName)
		return
	case protocol.ControlEvent:
		s.Logger().Error("cannot register listener", "event", name, "error", ErrReservedName)
		return
	}

	alias, err := s.registry.register(name, mh, bh)
	if err != nil {
		s.Logger().Error("cannot register listener", "event", name, "error", err)
		return
	}
	s.metrics.listenerRegistered()
	s.Logger().Debug("listener registered", "event", name, "alias", alias.String())

	s.emit(&pendingEmission{
		name:     protocol.ControlEvent,
		kind:     kindText,
		payload:  protocol.EncodeAnnouncement(protocol.Announcement{Listener: name, Alias: alias}),
		attempts: s.config.RetryAttempts,
	})
}

// LocalAlias returns the alias this side assigned to a listener name.
func (s *Socket) LocalAlias(name string) (protocol.Alias, bool) {
	return s.registry.localAlias(name)
}

// RemoteAlias returns the alias the peer announced for name.
func (s *Socket) RemoteAlias(name string) (protocol.Alias, bool) {
	return s.registry.resolveOutgoing(name)
}

// OnClose adds a callback run once when the socket closes. On a socket that
// is already closed the callback runs immediately.
func (s *Socket) OnClose(fn func(*Socket)) {
	if fn == nil {
		return
	}
	s.closeMu.Lock()
	if s.State() != StateClosed {
		s.closeCallbacks = append(s.closeCallbacks, fn)
		s.closeMu.Unlock()
		return
	}
	s.closeMu.Unlock()
	fn(s)
}

// Close closes the socket. Pending emissions are discarded and every later
// send is a no-op. Safe to call more than once.
func (s *Socket) Close() {
	s.shutdown(nil)
}

// shutdown performs the transition to StateClosed. cause is nil for a local
// close.
func (s *Socket) shutdown(cause error) {
	s.closeMu.Lock()
	prev, changed := s.state.close()
	if !changed {
		s.closeMu.Unlock()
		return
	}
	callbacks := s.closeCallbacks
	s.closeCallbacks = nil
	s.closeMu.Unlock()

	close(s.done)

	if dropped := s.retries.Stop(); dropped > 0 {
		s.Logger().Debug("discarded pending emissions", "count", dropped)
	}

	s.writeMu.Lock()
	if s.conn != nil {
		if cause == nil {
			_ = s.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
		}
		_ = s.conn.Close()
	}
	s.writeMu.Unlock()

	if prev == StateOpen {
		s.metrics.socketClosed()
	}
	if cause != nil {
		s.Logger().Info("socket closed", "id", s.ID(), "cause", cause)
	} else {
		s.Logger().Info("socket closed", "id", s.ID())
	}

	for _, fn := range callbacks {
		fn(s)
	}
}
