package retry

import (
	"sort"
	"time"
)

type entry[T any] struct {
	key  string
	due  time.Time
	seq  uint64
	item T
}

// entries is a min-heap ordered by due time, then scheduling order.
type entries[T any] []*entry[T]

func (h entries[T]) Len() int { return len(h) }

func (h entries[T]) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h entries[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entries[T]) Push(x any) { *h = append(*h, x.(*entry[T])) }

func (h *entries[T]) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

func (h entries[T]) peek() (time.Time, bool) {
	if len(h) == 0 {
		return time.Time{}, false
	}
	return h[0].due, true
}

func sortBySeq[T any](es []*entry[T]) {
	sort.Slice(es, func(i, j int) bool { return es[i].seq < es[j].seq })
}
