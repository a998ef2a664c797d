package wsiotest

import (
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/wsio/pkg/wsio"
)

// Event is one message captured by a Recorder.
type Event struct {
	Name   string
	Text   wsio.Payload // set for structured events
	Binary []byte       // set for binary events
}

// Recorder captures events delivered to the listeners it registers.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	notify chan struct{}
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan struct{}, 1)}
}

// On registers a recording structured listener on s for each name.
func (r *Recorder) On(s *wsio.Socket, names ...string) {
	for _, name := range names {
		name := name
		s.On(name, func(_ *wsio.Socket, data wsio.Payload) {
			r.add(Event{Name: name, Text: append(wsio.Payload(nil), data...)})
		})
	}
}

// OnBinary registers a recording binary listener on s for each name.
func (r *Recorder) OnBinary(s *wsio.Socket, names ...string) {
	for _, name := range names {
		name := name
		s.OnBinary(name, func(_ *wsio.Socket, data []byte) {
			r.add(Event{Name: name, Binary: append([]byte(nil), data...)})
		})
	}
}

func (r *Recorder) add(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Events returns the captured events in arrival order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count returns how many events named name were captured.
func (r *Recorder) Count(name string) int {
	n := 0
	for _, ev := range r.Events() {
		if ev.Name == name {
			n++
		}
	}
	return n
}

// Wait returns the first captured event named name, waiting up to timeout
// for it to arrive.
func (r *Recorder) Wait(tb testing.TB, name string, timeout time.Duration) Event {
	tb.Helper()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		for _, ev := range r.Events() {
			if ev.Name == name {
				return ev
			}
		}
		select {
		case <-r.notify:
		case <-deadline.C:
			tb.Fatalf("wsiotest: no %q event within %s", name, timeout)
			return Event{}
		}
	}
}

// ExpectNone fails if any event named name arrives within d.
func (r *Recorder) ExpectNone(tb testing.TB, name string, d time.Duration) {
	tb.Helper()
	time.Sleep(d)
	if n := r.Count(name); n > 0 {
		tb.Errorf("wsiotest: got %d unexpected %q events", n, name)
	}
}
