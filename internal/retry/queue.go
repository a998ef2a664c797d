// Package retry provides a delayed-task queue keyed by name.
//
// A Queue owns the items scheduled on it until they fire, are taken back with
// Take, or are discarded by Stop. It runs one goroutine and one timer for its
// whole lifetime regardless of how many items are waiting. The goroutine starts
// with the first Schedule, so an unused queue holds no resources.
package retry

import (
	"container/heap"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Queue delivers each scheduled item to its fire function once its delay
// has elapsed. Items with the same due time fire in scheduling order.
type Queue[T any] struct {
	clock clock.Clock
	fire  func(T)

	mu     sync.Mutex
	items  entries[T]
	firing []*entry[T] // popped as due, not yet handed to fire
	seq    uint64

	wake      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// New returns a queue that calls fire for each due item on the queue's own
// goroutine. A nil clk uses the wall clock.
func New[T any](clk clock.Clock, fire func(T)) *Queue[T] {
	if clk == nil {
		clk = clock.New()
	}
	q := &Queue[T]{
		clock: clk,
		fire:  fire,
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	return q
}

// Schedule queues item under key to fire after delay.
// It reports false, dropping item, once the queue is stopped.
func (q *Queue[T]) Schedule(key string, delay time.Duration, item T) bool {
	q.mu.Lock()
	select {
	case <-q.done:
		q.mu.Unlock()
		return false
	default:
	}
	q.seq++
	heap.Push(&q.items, &entry[T]{
		key:  key,
		due:  q.clock.Now().Add(delay),
		seq:  q.seq,
		item: item,
	})
	q.mu.Unlock()

	q.startOnce.Do(func() { go q.run() })
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// Take removes every waiting item scheduled under key and returns them in
// scheduling order. Items that fell due but have not been handed to fire yet
// are taken too; an item already inside fire is not.
func (q *Queue[T]) Take(key string) []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	var taken []*entry[T]
	firing := q.firing[:0]
	for _, e := range q.firing {
		if e.key == key {
			taken = append(taken, e)
		} else {
			firing = append(firing, e)
		}
	}
	for i := len(firing); i < len(q.firing); i++ {
		q.firing[i] = nil
	}
	q.firing = firing

	kept := q.items[:0]
	for _, e := range q.items {
		if e.key == key {
			taken = append(taken, e)
		} else {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(q.items); i++ {
		q.items[i] = nil
	}
	q.items = kept
	heap.Init(&q.items)
	if len(taken) == 0 {
		return nil
	}

	sortBySeq(taken)
	out := make([]T, len(taken))
	for i, e := range taken {
		out[i] = e.item
	}
	return out
}

// Len returns the number of waiting items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) + len(q.firing)
}

// Stop terminates the queue goroutine and discards waiting items.
// It returns the number of items discarded. Safe to call more than once and
// from inside fire; it does not wait for the goroutine to exit.
func (q *Queue[T]) Stop() int {
	discarded := 0
	q.stopOnce.Do(func() {
		close(q.done)

		q.mu.Lock()
		discarded = len(q.items) + len(q.firing)
		q.items = nil
		q.firing = nil
		q.mu.Unlock()
	})
	return discarded
}

func (q *Queue[T]) run() {
	timer := q.clock.Timer(time.Hour)
	stopTimer(timer)
	armed := false

	for {
		q.mu.Lock()
		next, ok := q.items.peek()
		q.mu.Unlock()

		if armed {
			stopTimer(timer)
			armed = false
		}
		var fired <-chan time.Time
		if ok {
			d := next.Sub(q.clock.Now())
			if d < 0 {
				d = 0
			}
			timer.Reset(d)
			armed = true
			fired = timer.C
		}

		select {
		case <-fired:
			armed = false
			q.fireDue()
		case <-q.wake:
		case <-q.done:
			stopTimer(timer)
			return
		}
	}
}

// fireDue moves every item whose due time has passed to the firing batch and
// fires them one at a time outside the lock so fire may schedule again.
func (q *Queue[T]) fireDue() {
	now := q.clock.Now()

	q.mu.Lock()
	for len(q.items) > 0 && !q.items[0].due.After(now) {
		q.firing = append(q.firing, heap.Pop(&q.items).(*entry[T]))
	}
	q.mu.Unlock()

	for {
		q.mu.Lock()
		if len(q.firing) == 0 {
			q.mu.Unlock()
			return
		}
		e := q.firing[0]
		q.firing[0] = nil
		q.firing = q.firing[1:]
		q.mu.Unlock()

		select {
		case <-q.done:
			return
		default:
		}
		q.fire(e.item)
	}
}

func stopTimer(t *clock.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
