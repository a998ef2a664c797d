package wsio

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reasons recorded by the messages_dropped_total counter.
const (
	dropEncode       = "encode"
	dropNoRecipient  = "no_recipient"
	dropMalformed    = "malformed"
	dropUnknownAlias = "unknown_alias"
	dropNoHandler    = "no_handler"
	dropUnsupported  = "unsupported"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "wsio").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for dispatch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "wsio",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors shared by sockets. A nil *Metrics
// records nothing.
type Metrics struct {
	messagesSent     *prometheus.CounterVec
	bytesSent        *prometheus.CounterVec
	messagesReceived *prometheus.CounterVec
	bytesReceived    *prometheus.CounterVec
	messagesDropped  *prometheus.CounterVec
	sendErrors       *prometheus.CounterVec
	retries          prometheus.Counter
	listeners        prometheus.Counter
	announcements    prometheus.Counter
	readErrors       prometheus.Counter
	handlerPanics    prometheus.Counter
	openSockets      prometheus.Gauge
	dispatchDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the wsio collectors. Registering twice
// with the same registry panics, so create one Metrics per registry and share
// it through Config.Metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(config.Registry)
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}

	return &Metrics{
		messagesSent:     counterVec("messages_sent_total", "Total number of messages written to peers", "kind"),
		bytesSent:        counterVec("bytes_sent_total", "Total number of message bytes written to peers", "kind"),
		messagesReceived: counterVec("messages_received_total", "Total number of messages read from peers", "kind"),
		bytesReceived:    counterVec("bytes_received_total", "Total number of message bytes read from peers", "kind"),
		messagesDropped:  counterVec("messages_dropped_total", "Total number of messages dropped before delivery", "reason"),
		sendErrors:       counterVec("send_errors_total", "Total number of failed message writes", "kind"),
		retries:          counter("emit_retries_total", "Total number of emissions rescheduled while waiting for a peer listener"),
		listeners:        counter("listeners_registered_total", "Total number of listener registrations"),
		announcements:    counter("announcements_received_total", "Total number of listener announcements received"),
		readErrors:       counter("read_errors_total", "Total number of connections ended by an unexpected read error"),
		handlerPanics:    counter("handler_panics_total", "Total number of listener panics recovered"),

		openSockets: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "open_sockets",
			Help:        "Current number of open sockets",
			ConstLabels: config.ConstLabels,
		}),

		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_duration_seconds",
			Help:        "Listener execution time in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),
	}
}

func (m *Metrics) socketOpened() {
	if m == nil {
		return
	}
	m.openSockets.Inc()
}

func (m *Metrics) socketClosed() {
	if m == nil {
		return
	}
	m.openSockets.Dec()
}

func (m *Metrics) listenerRegistered() {
	if m == nil {
		return
	}
	m.listeners.Inc()
}

func (m *Metrics) announcementReceived() {
	if m == nil {
		return
	}
	m.announcements.Inc()
}

func (m *Metrics) messageDropped(reason string) {
	if m == nil {
		return
	}
	m.messagesDropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) retryScheduled() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

func (m *Metrics) messageSent(kind messageKind, n int) {
	if m == nil {
		return
	}
	m.messagesSent.WithLabelValues(kind.String()).Inc()
	m.bytesSent.WithLabelValues(kind.String()).Add(float64(n))
}

func (m *Metrics) messageReceived(kind messageKind, n int) {
	if m == nil {
		return
	}
	m.messagesReceived.WithLabelValues(kind.String()).Inc()
	m.bytesReceived.WithLabelValues(kind.String()).Add(float64(n))
}

func (m *Metrics) sendFailed(kind messageKind) {
	if m == nil {
		return
	}
	m.sendErrors.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) readFailed() {
	if m == nil {
		return
	}
	m.readErrors.Inc()
}

func (m *Metrics) handlerPanicked() {
	if m == nil {
		return
	}
	m.handlerPanics.Inc()
}

func (m *Metrics) observeDispatch(kind messageKind, d time.Duration) {
	if m == nil {
		return
	}
	m.dispatchDuration.WithLabelValues(kind.String()).Observe(d.Seconds())
}
