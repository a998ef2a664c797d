package wsio

import (
	"bytes"
	"log/slog"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

type fakeMessage struct {
	messageType int
	data        []byte
}

// fakeConn is an in-memory Conn. Incoming messages are queued with deliver;
// writes are recorded.
type fakeConn struct {
	mu       sync.Mutex
	writes   []fakeMessage
	controls int
	writeErr error

	in        chan fakeMessage
	closed    chan struct{}
	closeOnce sync.Once
	addr      net.Addr
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan fakeMessage, 16),
		closed: make(chan struct{}),
		addr:   &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40001},
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case m := <-c.in:
		return m.messageType, m.data, nil
	case <-c.closed:
		return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
	}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.writes = append(c.writes, fakeMessage{messageType, append([]byte(nil), data...)})
	return nil
}

func (c *fakeConn) WriteControl(int, []byte, time.Time) error {
	c.mu.Lock()
	c.controls++
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (c *fakeConn) SetReadLimit(int64)               {}
func (c *fakeConn) RemoteAddr() net.Addr             { return c.addr }

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) deliver(messageType int, data string) {
	c.in <- fakeMessage{messageType, []byte(data)}
}

func (c *fakeConn) sent() []fakeMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]fakeMessage(nil), c.writes...)
}

func (c *fakeConn) sentText() []string {
	var out []string
	for _, m := range c.sent() {
		out = append(out, string(m.data))
	}
	return out
}

// logBuffer collects log output from several goroutines.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *logBuffer) count(substr string) int {
	return strings.Count(b.String(), substr)
}

type testEnv struct {
	conn    *fakeConn
	logs    *logBuffer
	clock   *clock.Mock
	metrics *Metrics
	cfg     *Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logs := &logBuffer{}
	mock := clock.NewMock()
	metrics := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	return &testEnv{
		conn:    newFakeConn(),
		logs:    logs,
		clock:   mock,
		metrics: metrics,
		cfg: &Config{
			Logger:  slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
			Metrics: metrics,
			Clock:   mock,
		},
	}
}

// socket returns an open socket on the fake connection. The read loop is not
// started; tests feed messages through dispatch.
func (e *testEnv) socket(t *testing.T) *Socket {
	t.Helper()
	s := NewSocket(e.conn, e.cfg)
	t.Cleanup(s.Close)
	if !s.Open(nil) {
		t.Fatal("Open() = false, want true")
	}
	return s
}

func announce(s *Socket, name, alias string) {
	s.dispatch(websocket.TextMessage,
		[]byte(`{"f":"0000","d":{"listener":"`+name+`","alias":"`+alias+`"}}`))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	if m.Gauge == nil {
		t.Fatal("expected gauge metric to have Gauge field")
	}
	return m.GetGauge().GetValue()
}

func histogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}
