package wsio

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/gorilla/websocket"
)

// Server accepts WebSocket connections and runs a Socket for each of them.
// It implements http.Handler, so it can be mounted on any router.
type Server struct {
	config   *ServerConfig
	upgrader websocket.Upgrader
	logger   *slog.Logger
	trusted  *proxyMatcher

	mu           sync.RWMutex
	clients      map[string]*Socket
	onConnection func(*Socket)
	closed       bool
}

// NewServer creates a server with the given configuration. A nil config uses
// DefaultServerConfig.
func NewServer(config *ServerConfig) *Server {
	defaults := DefaultServerConfig()
	if config == nil {
		config = defaults
	} else {
		config = config.Clone()
		if config.ReadBufferSize == 0 {
			config.ReadBufferSize = defaults.ReadBufferSize
		}
		if config.WriteBufferSize == 0 {
			config.WriteBufferSize = defaults.WriteBufferSize
		}
		if config.CheckOrigin == nil {
			config.CheckOrigin = defaults.CheckOrigin
		}
		if config.Socket == nil {
			config.Socket = defaults.Socket
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default().With("component", "wsio-server")
	}
	if config.Socket.Logger == nil {
		config.Socket.Logger = logger
	}

	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		logger:  logger,
		trusted: newProxyMatcher(config.TrustedProxies, logger),
		clients: make(map[string]*Socket),
	}
}

// OnConnection sets the callback run for every accepted socket once it is
// open. Register listeners there. The callback runs before the socket reads
// its first message.
func (s *Server) OnConnection(fn func(*Socket)) {
	s.mu.Lock()
	s.onConnection = fn
	s.mu.Unlock()
}

// ServeHTTP upgrades the request and serves the socket until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		s.logger.Error("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	socket := NewSocket(conn, s.config.Socket)
	if id := clientID(r, s.trusted); id != socket.ID() {
		socket.setRemote(id)
	}
	if err := s.add(socket); err != nil {
		s.logger.Warn("rejecting connection", "remote", socket.ID(), "error", err)
		socket.Close()
		return
	}
	socket.OnClose(s.remove)

	s.mu.RLock()
	onConnection := s.onConnection
	s.mu.RUnlock()

	s.logger.Info("client connected", "id", socket.ID(), "clients", s.Len())
	socket.Open(onConnection)
	socket.Serve()
}

func (s *Server) add(socket *Socket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServerClosed
	}
	s.clients[socket.ID()] = socket
	return nil
}

func (s *Server) remove(socket *Socket) {
	s.mu.Lock()
	if s.clients[socket.ID()] == socket {
		delete(s.clients, socket.ID())
	}
	n := len(s.clients)
	s.mu.Unlock()

	s.logger.Info("client disconnected", "id", socket.ID(), "clients", n)
}

// Client returns the connected socket with the given ID.
func (s *Server) Client(id string) (*Socket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	socket, ok := s.clients[id]
	return socket, ok
}

// Clients returns the connected sockets ordered by ID.
func (s *Server) Clients() []*Socket {
	s.mu.RLock()
	clients := make([]*Socket, 0, len(s.clients))
	for _, socket := range s.clients {
		clients = append(clients, socket)
	}
	s.mu.RUnlock()

	sort.Slice(clients, func(i, j int) bool {
		return clients[i].ID() < clients[j].ID()
	})
	return clients
}

// Len returns the number of connected sockets.
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast emits data to every connected socket. The payload is encoded
// once; each socket resolves and retries the name on its own.
func (s *Server) Broadcast(name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	for _, socket := range s.Clients() {
		socket.emitEncoded(name, payload)
	}
	return nil
}

// BroadcastBinary emits data to the binary listener for name on every
// connected socket.
func (s *Server) BroadcastBinary(name string, data []byte) {
	payload := append([]byte(nil), data...)
	for _, socket := range s.Clients() {
		socket.emit(&pendingEmission{
			name:     name,
			kind:     kindBinary,
			payload:  payload,
			attempts: socket.config.RetryAttempts,
		})
	}
}

// Close closes every connected socket and rejects new connections.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	for _, socket := range s.Clients() {
		socket.Close()
	}
}
