package wsiotest

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/wsio/pkg/wsio"
)

// DefaultTimeout bounds connection setup in Start.
const DefaultTimeout = 5 * time.Second

// PairBuilder allows fluent construction of a connected client and server.
type PairBuilder struct {
	serverConfig *wsio.ServerConfig
	clientConfig *wsio.Config
	onServer     func(*wsio.Socket)
}

// NewPair creates a new pair builder.
//
// Example:
//
//	pair := wsiotest.NewPair().
//	    WithClientConfig(wsio.DefaultConfig().WithRetry(0, 0)).
//	    Start(t)
func NewPair() *PairBuilder {
	return &PairBuilder{}
}

// WithServerConfig sets the server configuration.
func (b *PairBuilder) WithServerConfig(cfg *wsio.ServerConfig) *PairBuilder {
	b.serverConfig = cfg
	return b
}

// WithClientConfig sets the client socket configuration.
func (b *PairBuilder) WithClientConfig(cfg *wsio.Config) *PairBuilder {
	b.clientConfig = cfg
	return b
}

// OnServer sets the connection callback of the server. Register server
// listeners there.
func (b *PairBuilder) OnServer(fn func(*wsio.Socket)) *PairBuilder {
	b.onServer = fn
	return b
}

// Pair is a connected client and server socket.
type Pair struct {
	Client *wsio.Socket
	Server *wsio.Socket

	// Srv is the wsio server that accepted Server.
	Srv *wsio.Server

	// URL is the ws:// address of the test server.
	URL string
}

// Start runs the server, dials it and waits for the server side to open.
func (b *PairBuilder) Start(tb testing.TB) *Pair {
	tb.Helper()

	srv := wsio.NewServer(b.serverConfig)
	accepted := make(chan *wsio.Socket, 1)
	srv.OnConnection(func(s *wsio.Socket) {
		if b.onServer != nil {
			b.onServer(s)
		}
		select {
		case accepted <- s:
		default:
		}
	})

	ts := httptest.NewServer(srv)
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	tb.Cleanup(func() {
		srv.Close()
		ts.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	client, err := wsio.Dial(ctx, url, b.clientConfig)
	if err != nil {
		tb.Fatalf("wsiotest: dial %s: %v", url, err)
	}
	tb.Cleanup(client.Close)

	var server *wsio.Socket
	select {
	case server = <-accepted:
	case <-ctx.Done():
		tb.Fatalf("wsiotest: server did not accept the connection within %s", DefaultTimeout)
	}

	return &Pair{Client: client, Server: server, Srv: srv, URL: url}
}

// WaitRemote blocks until s has learned the peer's alias for name.
func WaitRemote(tb testing.TB, s *wsio.Socket, name string, timeout time.Duration) {
	tb.Helper()
	deadline := time.Now().Add(timeout)
	for {
		if _, ok := s.RemoteAlias(name); ok {
			return
		}
		if time.Now().After(deadline) {
			tb.Fatalf("wsiotest: peer never announced %q", name)
		}
		time.Sleep(time.Millisecond)
	}
}

// WaitClosed blocks until s is closed.
func WaitClosed(tb testing.TB, s *wsio.Socket, timeout time.Duration) {
	tb.Helper()
	select {
	case <-s.Done():
	case <-time.After(timeout):
		tb.Fatalf("wsiotest: socket %s still %s after %s", s.ID(), s.State(), timeout)
	}
}
