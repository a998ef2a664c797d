package wsio

import "sync"

// State is the connection state of a Socket.
type State int

const (
	StateConnecting State = iota // Not yet open
	StateOpen                    // Sends allowed
	StateClosed                  // Closed or failed; terminal
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateOpen:
		return "Open"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// lifecycle guards the state transitions Connecting → Open → Closed and
// Connecting → Closed.
type lifecycle struct {
	mu    sync.Mutex
	state State
}

func (l *lifecycle) get() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// open moves Connecting to Open. It reports whether the transition happened.
func (l *lifecycle) open() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateConnecting {
		return false
	}
	l.state = StateOpen
	return true
}

// close moves any state to Closed and returns the previous state.
// changed is false when the state was already Closed.
func (l *lifecycle) close() (prev State, changed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	prev = l.state
	if prev == StateClosed {
		return prev, false
	}
	l.state = StateClosed
	return prev, true
}
