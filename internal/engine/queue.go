package engine

import (
	"container/heap"
	"sort"
)

// Entry is one queued item with its scheduled time and sequence number.
type Entry[T any] struct {
	Time float64
	Seq  int64
	Item T
}

// Queue is a min-heap of entries ordered by (Time, Seq).
//
// Seq is assigned at push time from a monotonic Clock, so entries with equal
// times pop in push order and every entry has a unique handle.
type Queue[T any] struct {
	entries entryHeap[T]
	clock   *Clock
}

// NewQueue creates an empty queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{
		entries: make(entryHeap[T], 0, 64),
		clock:   NewClock(),
	}
}

// Push inserts item at time t and returns its sequence number. O(log n).
func (q *Queue[T]) Push(item T, t float64) int64 {
	seq := q.clock.Next()
	heap.Push(&q.entries, Entry[T]{Time: t, Seq: seq, Item: item})
	return seq
}

// Pop removes and returns the minimum entry. O(log n).
// Returns ErrEmptyQueue when the queue is empty.
func (q *Queue[T]) Pop() (Entry[T], error) {
	if len(q.entries) == 0 {
		return Entry[T]{}, ErrEmptyQueue
	}
	return heap.Pop(&q.entries).(Entry[T]), nil
}

// Peek returns the minimum entry without removing it.
func (q *Queue[T]) Peek() (Entry[T], bool) {
	if len(q.entries) == 0 {
		return Entry[T]{}, false
	}
	return q.entries[0], true
}

// PeekTime returns the time of the minimum entry without removing it.
func (q *Queue[T]) PeekTime() (float64, bool) {
	if len(q.entries) == 0 {
		return 0, false
	}
	return q.entries[0].Time, true
}

// Len returns the number of queued entries.
func (q *Queue[T]) Len() int {
	return len(q.entries)
}

// Entries returns a copy of all entries in pop order. The queue is not
// modified.
func (q *Queue[T]) Entries() []Entry[T] {
	out := make([]Entry[T], len(q.entries))
	copy(out, q.entries)
	sort.Slice(out, func(i, j int) bool {
		return entryLess(out[i], out[j])
	})
	return out
}

func entryLess[T any](a, b Entry[T]) bool {
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	return a.Seq < b.Seq
}

// entryHeap implements heap.Interface.
type entryHeap[T any] []Entry[T]

func (h entryHeap[T]) Len() int           { return len(h) }
func (h entryHeap[T]) Less(i, j int) bool { return entryLess(h[i], h[j]) }
func (h entryHeap[T]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *entryHeap[T]) Push(x any) {
	*h = append(*h, x.(Entry[T]))
}

func (h *entryHeap[T]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	// Zero the slot so the backing array does not retain callbacks.
	old[n-1] = Entry[T]{}
	*h = old[:n-1]
	return item
}
