package sample

import "sync"

// DefaultQueueCapacity is the initial capacity of a Queue buffer.
const DefaultQueueCapacity = 4096

// Queue bridges the acquisition goroutine and the render loop.
// Append and Drain only hold the lock for the copy and the swap.
type Queue struct {
	mu  sync.Mutex
	buf []Reading
}

// NewQueue creates a Queue with the given initial capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{
		buf: make([]Reading, 0, capacity),
	}
}

// Append adds readings in arrival order.
func (q *Queue) Append(readings []Reading) {
	if len(readings) == 0 {
		return
	}

	q.mu.Lock()
	q.buf = append(q.buf, readings...)
	q.mu.Unlock()
}

// Drain returns everything appended since the previous Drain and leaves the
// queue empty. The spare slice, if any, becomes the new internal buffer, so
// the caller must not use it afterwards.
func (q *Queue) Drain(spare []Reading) []Reading {
	if spare == nil {
		spare = make([]Reading, 0, DefaultQueueCapacity)
	}

	q.mu.Lock()
	out := q.buf
	q.buf = spare[:0]
	q.mu.Unlock()

	return out
}

// Len returns the number of readings waiting to be drained.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}
