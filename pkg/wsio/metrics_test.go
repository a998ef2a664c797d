package wsio

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	m.socketOpened()
	m.socketClosed()
	m.listenerRegistered()
	m.announcementReceived()
	m.messageDropped(dropMalformed)
	m.retryScheduled()
	m.messageSent(kindText, 10)
	m.messageReceived(kindBinary, 10)
	m.sendFailed(kindText)
	m.readFailed()
	m.handlerPanicked()
	m.observeDispatch(kindText, time.Millisecond)
}

func TestMetrics_Options(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(
		WithRegistry(reg),
		WithNamespace("demo"),
		WithSubsystem("sock"),
		WithConstLabels(prometheus.Labels{"app": "test"}),
		WithBuckets([]float64{0.001, 0.01}),
	)

	m.messageSent(kindBinary, 14)
	m.messageReceived(kindText, 30)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"demo_sock_messages_sent_total",
		"demo_sock_bytes_sent_total",
		"demo_sock_messages_received_total",
		"demo_sock_open_sockets",
	} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}

	if got := counterValue(t, m.bytesSent.WithLabelValues("binary")); got != 14 {
		t.Errorf("bytes_sent_total{binary} = %v, want 14", got)
	}
	if got := counterValue(t, m.bytesReceived.WithLabelValues("text")); got != 30 {
		t.Errorf("bytes_received_total{text} = %v, want 30", got)
	}
}
