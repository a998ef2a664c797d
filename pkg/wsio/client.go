package wsio

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// NewClient returns an unconnected socket for addr (ws:// or wss://).
// Listeners may be registered before Connect, but their announcements are
// only sent once the socket is open, so register them in the open callback.
func NewClient(addr string, cfg *Config) *Socket {
	s := newSocket(cfg, addr)
	s.addr = addr
	return s
}

// Connect dials the server, opens the socket, runs onOpen once on its own
// goroutine and serves incoming messages. It blocks until the connection
// closes or ctx is done, and returns nil when the connection closed normally.
//
// A dial failure moves the socket straight to StateClosed.
func (s *Socket) Connect(ctx context.Context, onOpen func(*Socket)) error {
	if s.State() != StateConnecting || s.connection() != nil {
		return ErrAlreadyConnected
	}

	conn, err := dial(ctx, s.addr, s.config)
	if err != nil {
		err = fmt.Errorf("wsio: dial %s: %w", s.addr, err)
		s.Logger().Error("connect failed", "error", err)
		s.shutdown(err)
		return err
	}
	s.attach(conn)

	if !s.markOpen() {
		// Closed while dialing.
		_ = conn.Close()
		return ErrClosed
	}

	stop := context.AfterFunc(ctx, s.Close)
	defer stop()

	if onOpen != nil {
		go onOpen(s)
	}
	s.Serve()

	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// Dial connects to addr and returns an open socket whose messages are served
// on a background goroutine.
func Dial(ctx context.Context, addr string, cfg *Config) (*Socket, error) {
	s := NewClient(addr, cfg)

	conn, err := dial(ctx, addr, s.config)
	if err != nil {
		s.shutdown(err)
		return nil, fmt.Errorf("wsio: dial %s: %w", addr, err)
	}
	s.attach(conn)
	s.Open(nil)
	go s.Serve()
	return s, nil
}

func dial(ctx context.Context, addr string, cfg *Config) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		Proxy:             http.ProxyFromEnvironment,
		HandshakeTimeout:  cfg.HandshakeTimeout,
		TLSClientConfig:   clientTLSConfig(cfg),
		EnableCompression: false,
	}

	conn, resp, err := dialer.DialContext(ctx, addr, cfg.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w (status %d)", err, resp.StatusCode)
		}
		return nil, err
	}
	return conn, nil
}

func clientTLSConfig(cfg *Config) *tls.Config {
	if cfg.TLSConfig == nil && !cfg.InsecureSkipVerify {
		return nil
	}
	var tc *tls.Config
	if cfg.TLSConfig != nil {
		tc = cfg.TLSConfig.Clone()
	} else {
		tc = &tls.Config{}
	}
	if cfg.InsecureSkipVerify {
		tc.InsecureSkipVerify = true
	}
	return tc
}
