package wsio

import (
	"crypto/tls"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/vango-dev/wsio/pkg/protocol"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for wsio sockets.
const defaultTracerName = "wsio"

// Config holds configuration for a single socket.
type Config struct {
	// Delivery

	// RetryAttempts is how many times an emission is retried while the peer
	// has not announced a listener for its name. Negative disables retries.
	// Default: 16.
	RetryAttempts int

	// RetryDelay is the wait between retries.
	// Default: 4ms.
	RetryDelay time.Duration

	// Timeouts

	// WriteTimeout is the maximum time to wait when sending a message.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// HandshakeTimeout is the maximum time for the WebSocket handshake when
	// dialing.
	// Default: 10 seconds.
	HandshakeTimeout time.Duration

	// Limits

	// MaxMessageSize is the maximum size of an incoming message.
	// Default: 16MB.
	MaxMessageSize int64

	// Dialing

	// InsecureSkipVerify disables TLS certificate verification when dialing
	// wss:// addresses.
	// Default: false.
	InsecureSkipVerify bool

	// TLSConfig is the base TLS configuration for dialing.
	TLSConfig *tls.Config

	// Header is sent with the dial handshake request.
	Header http.Header

	// Observability

	// Logger receives socket logs.
	// Default: slog.Default() with component=wsio.
	Logger *slog.Logger

	// Metrics records Prometheus metrics. Nil disables metrics.
	Metrics *Metrics

	// Tracer creates dispatch spans.
	// Default: the global OpenTelemetry tracer named "wsio".
	Tracer trace.Tracer

	// Clock drives retry timing.
	// Default: the wall clock.
	Clock clock.Clock
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RetryAttempts:    16,
		RetryDelay:       4 * time.Millisecond,
		WriteTimeout:     10 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		MaxMessageSize:   protocol.DefaultMaxMessageSize,
	}
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	if c.TLSConfig != nil {
		clone.TLSConfig = c.TLSConfig.Clone()
	}
	if c.Header != nil {
		clone.Header = c.Header.Clone()
	}
	return &clone
}

// WithRetry sets the retry policy and returns the config for chaining.
func (c *Config) WithRetry(attempts int, delay time.Duration) *Config {
	c.RetryAttempts = attempts
	c.RetryDelay = delay
	return c
}

// WithLogger sets the logger and returns the config for chaining.
func (c *Config) WithLogger(logger *slog.Logger) *Config {
	c.Logger = logger
	return c
}

// WithMetrics sets the metrics collector and returns the config for chaining.
func (c *Config) WithMetrics(m *Metrics) *Config {
	c.Metrics = m
	return c
}

// normalizeConfig returns a copy of cfg with unset fields filled from
// DefaultConfig.
func normalizeConfig(cfg *Config) *Config {
	defaults := DefaultConfig()
	if cfg == nil {
		cfg = defaults
	} else {
		cfg = cfg.Clone()
		if cfg.RetryAttempts == 0 {
			cfg.RetryAttempts = defaults.RetryAttempts
		}
		if cfg.RetryDelay == 0 {
			cfg.RetryDelay = defaults.RetryDelay
		}
		if cfg.WriteTimeout == 0 {
			cfg.WriteTimeout = defaults.WriteTimeout
		}
		if cfg.HandshakeTimeout == 0 {
			cfg.HandshakeTimeout = defaults.HandshakeTimeout
		}
		if cfg.MaxMessageSize == 0 {
			cfg.MaxMessageSize = defaults.MaxMessageSize
		}
	}
	if cfg.RetryAttempts < 0 {
		cfg.RetryAttempts = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default().With("component", "wsio")
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer(defaultTracerName)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	return cfg
}

// ServerConfig holds configuration for a Server.
type ServerConfig struct {
	// ReadBufferSize is the WebSocket read buffer size.
	// Default: 4096.
	ReadBufferSize int

	// WriteBufferSize is the WebSocket write buffer size.
	// Default: 4096.
	WriteBufferSize int

	// CheckOrigin is called to validate the request origin.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// Socket is the configuration for every accepted socket.
	// Default: DefaultConfig().
	Socket *Config

	// TrustedProxies lists reverse proxy IPs or CIDRs whose Forwarded and
	// X-Forwarded-For headers name the real client. A socket accepted through
	// a trusted proxy takes the forwarded client address as its ID.
	// Default: none; forwarded headers are ignored.
	TrustedProxies []string

	// Logger receives server logs.
	// Default: slog.Default() with component=wsio-server.
	Logger *slog.Logger
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     SameOriginCheck,
		Socket:          DefaultConfig(),
	}
}

// Clone returns a copy of the ServerConfig.
func (c *ServerConfig) Clone() *ServerConfig {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Socket != nil {
		clone.Socket = c.Socket.Clone()
	}
	if c.TrustedProxies != nil {
		clone.TrustedProxies = append([]string(nil), c.TrustedProxies...)
	}
	return &clone
}

// WithSocketConfig sets the socket configuration and returns the config for
// chaining.
func (c *ServerConfig) WithSocketConfig(sc *Config) *ServerConfig {
	c.Socket = sc
	return c
}

// SameOriginCheck accepts requests without an Origin header and requests
// whose Origin host matches the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := r.Host
	if host == "" {
		return false
	}
	return originURL.Host == host
}

// AllowAnyOrigin accepts every request regardless of its Origin header.
func AllowAnyOrigin(*http.Request) bool {
	return true
}
