package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/vango-dev/wsio/internal/errors"
	"github.com/vango-dev/wsio/internal/logging"
	"github.com/vango-dev/wsio/pkg/wsio"
)

const (
	// JSONFileName is the default JSON configuration file name.
	JSONFileName = "wsio.json"

	// TOMLFileName is the default TOML configuration file name.
	TOMLFileName = "wsio.toml"

	// DefaultAddr is the default listen address of the serve command.
	DefaultAddr = ":8000"

	// DefaultURL is the default server URL of the client command.
	DefaultURL = "ws://localhost:8000"

	// DefaultMetricsPath is where the serve command exposes Prometheus
	// metrics.
	DefaultMetricsPath = "/metrics"
)

// Config is the complete wsio command configuration.
type Config struct {
	Server  ServerConfig  `json:"server" toml:"server"`
	Client  ClientConfig  `json:"client" toml:"client"`
	Retry   RetryConfig   `json:"retry" toml:"retry"`
	Log     LogConfig     `json:"log" toml:"log"`
	Metrics MetricsConfig `json:"metrics" toml:"metrics"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" toml:"addr,omitempty"`

	// Public is the directory of static files served next to the
	// WebSocket endpoint. Empty disables static files.
	Public string `json:"public,omitempty" toml:"public,omitempty"`

	// AllowAnyOrigin disables the same-origin check on upgrade requests.
	AllowAnyOrigin bool `json:"allowAnyOrigin,omitempty" toml:"allowAnyOrigin,omitempty"`

	// TrustedProxies lists reverse proxy IPs or CIDRs allowed to name the
	// client with Forwarded or X-Forwarded-For.
	TrustedProxies []string `json:"trustedProxies,omitempty" toml:"trustedProxies,omitempty"`
}

// ClientConfig configures the client command.
type ClientConfig struct {
	// URL is the ws:// or wss:// address to dial.
	URL string `json:"url,omitempty" toml:"url,omitempty"`

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool `json:"insecureSkipVerify,omitempty" toml:"insecureSkipVerify,omitempty"`

	// HandshakeTimeout bounds the WebSocket handshake.
	HandshakeTimeout Duration `json:"handshakeTimeout,omitempty" toml:"handshakeTimeout,omitempty"`
}

// RetryConfig is the emission retry policy.
type RetryConfig struct {
	// Attempts is the number of retries while the peer has no listener.
	// Nil means the default; zero disables retries.
	Attempts *int `json:"attempts,omitempty" toml:"attempts,omitempty"`

	// Delay is the wait between retries.
	Delay Duration `json:"delay,omitempty" toml:"delay,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is any level logging.ParseLevel accepts: debug, info, warn,
	// error, quiet and their aliases, or a numeric slog level.
	Level string `json:"level,omitempty" toml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" toml:"format,omitempty"`

	// File, when set, sends logs to a rotating file instead of stderr.
	File string `json:"file,omitempty" toml:"file,omitempty"`

	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB int `json:"maxSizeMB,omitempty" toml:"maxSizeMB,omitempty"`

	// MaxBackups is the number of rotated files to keep.
	MaxBackups int `json:"maxBackups,omitempty" toml:"maxBackups,omitempty"`

	// MaxAgeDays is how long rotated files are kept.
	MaxAgeDays int `json:"maxAgeDays,omitempty" toml:"maxAgeDays,omitempty"`

	// Compress gzips rotated files.
	Compress bool `json:"compress,omitempty" toml:"compress,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint of the serve command.
type MetricsConfig struct {
	// Disabled turns off metrics collection and the endpoint.
	Disabled bool `json:"disabled,omitempty" toml:"disabled,omitempty"`

	// Path is the HTTP path of the endpoint.
	Path string `json:"path,omitempty" toml:"path,omitempty"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty" toml:"namespace,omitempty"`
}

// Duration is a time.Duration written as a string such as "4ms" or "10s".
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// New creates a new Config with default values.
func New() *Config {
	defaults := wsio.DefaultConfig()
	attempts := defaults.RetryAttempts
	return &Config{
		Server: ServerConfig{
			Addr:   DefaultAddr,
			Public: "public",
		},
		Client: ClientConfig{
			URL:              DefaultURL,
			HandshakeTimeout: Duration{defaults.HandshakeTimeout},
		},
		Retry: RetryConfig{
			Attempts: &attempts,
			Delay:    Duration{defaults.RetryDelay},
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Metrics: MetricsConfig{
			Path:      DefaultMetricsPath,
			Namespace: "wsio",
		},
	}
}

// Find looks for wsio.json, then wsio.toml, in dir. It returns the defaults
// when neither exists.
func Find(dir string) (*Config, error) {
	for _, name := range []string{JSONFileName, TOMLFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return New(), nil
}

// LoadFile reads configuration from the specified file path. The format is
// chosen by extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("W100").
				WithFile(path).
				WithSuggestion("Run 'wsio config init " + path + "' to create one")
		}
		return nil, errors.New("W101").WithFile(path).Wrap(err)
	}

	cfg := New()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("W101").
				WithFile(path).
				WithSuggestion("Check that the file is valid JSON").
				Wrap(err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, errors.New("W101").
				WithFile(path).
				WithSuggestion("Check the TOML syntax near the reported line").
				Wrap(err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, errors.New("W101").
				WithFile(path).
				WithDetailf("Unknown keys: %s", strings.Join(keys, ", "))
		}
	default:
		return nil, errors.New("W103").
			WithFile(path).
			WithDetailf("Cannot load %q files; use .json or .toml", ext)
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// SaveTo writes the configuration to path in the format its extension
// names.
func (c *Config) SaveTo(path string) error {
	var data []byte
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		out, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return errors.New("W101").WithFile(path).Wrap(err)
		}
		data = append(out, '\n')
	case ".toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return errors.New("W101").WithFile(path).Wrap(err)
		}
		data = buf.Bytes()
	default:
		return errors.New("W103").WithFile(path)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("W101").WithFile(path).Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	defaults := New()

	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Client.URL == "" {
		c.Client.URL = defaults.Client.URL
	}
	if c.Client.HandshakeTimeout.Duration == 0 {
		c.Client.HandshakeTimeout = defaults.Client.HandshakeTimeout
	}
	if c.Retry.Attempts == nil {
		c.Retry.Attempts = defaults.Retry.Attempts
	}
	if c.Retry.Delay.Duration == 0 {
		c.Retry.Delay = defaults.Retry.Delay
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = defaults.Log.MaxSizeMB
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = defaults.Log.MaxBackups
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = defaults.Log.MaxAgeDays
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = defaults.Metrics.Path
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = defaults.Metrics.Namespace
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Retry.Attempts != nil && *c.Retry.Attempts < 0 {
		return invalid(c, "retry.attempts must be >= 0, got %d", *c.Retry.Attempts)
	}
	if c.Retry.Delay.Duration < 0 {
		return invalid(c, "retry.delay must not be negative, got %s", c.Retry.Delay)
	}
	if c.Client.HandshakeTimeout.Duration < 0 {
		return invalid(c, "client.handshakeTimeout must not be negative, got %s", c.Client.HandshakeTimeout)
	}
	if err := ValidateURL(c.Client.URL); err != nil {
		return err
	}
	if c.Log.Level != "" {
		if _, ok := logging.ParseLevel(c.Log.Level); !ok {
			return invalid(c, "log.level %q is not one of debug, info, warn, error, quiet or a numeric level", c.Log.Level)
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return invalid(c, "log.format %q is not text or json", c.Log.Format)
	}
	if c.Metrics.Path != "" && !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid(c, "metrics.path %q must start with /", c.Metrics.Path)
	}
	return nil
}

func invalid(c *Config, format string, args ...any) error {
	return errors.New("W102").WithFile(c.configPath).WithDetailf(format, args...)
}

// ValidateURL checks that raw is a ws:// or wss:// URL with a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.New("W150").WithDetailf("Cannot parse %q", raw).Wrap(err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return errors.New("W150").
			WithDetailf("%q has scheme %q; use ws:// or wss://", raw, u.Scheme)
	}
	if u.Host == "" {
		return errors.New("W150").WithDetailf("%q has no host", raw)
	}
	return nil
}

// SocketConfig converts the file configuration into a socket configuration.
func (c *Config) SocketConfig() *wsio.Config {
	sc := wsio.DefaultConfig()
	if c.Retry.Attempts != nil {
		sc.RetryAttempts = *c.Retry.Attempts
		if sc.RetryAttempts == 0 {
			// Zero fields take library defaults; negative means no retries.
			sc.RetryAttempts = -1
		}
	}
	if c.Retry.Delay.Duration > 0 {
		sc.RetryDelay = c.Retry.Delay.Duration
	}
	if c.Client.HandshakeTimeout.Duration > 0 {
		sc.HandshakeTimeout = c.Client.HandshakeTimeout.Duration
	}
	sc.InsecureSkipVerify = c.Client.InsecureSkipVerify
	return sc
}

// ServerConfig converts the file configuration into a server configuration.
func (c *Config) ServerConfig() *wsio.ServerConfig {
	sc := wsio.DefaultServerConfig().WithSocketConfig(c.SocketConfig())
	sc.TrustedProxies = c.Server.TrustedProxies
	if c.Server.AllowAnyOrigin {
		sc.CheckOrigin = wsio.AllowAnyOrigin
	}
	return sc
}

// String returns a one-line summary for logs.
func (c *Config) String() string {
	attempts := "default"
	if c.Retry.Attempts != nil {
		attempts = fmt.Sprint(*c.Retry.Attempts)
	}
	return fmt.Sprintf("retry=%s/%s log=%s/%s", attempts, c.Retry.Delay, c.Log.Level, c.Log.Format)
}
