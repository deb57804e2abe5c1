package progress

import (
	"context"
	"io"
	"sync"
)

// Queue is an unbounded FIFO of Events. Report never blocks and never drops;
// consumers drain on their own schedule with Poll, Drain or Next. It is safe
// for concurrent use by any number of producers and consumers.
type Queue struct {
	mu     sync.Mutex
	items  []Event
	closed bool
	// ready is closed and replaced on every change, waking all Next callers.
	ready chan struct{}
}

// NewQueue returns an empty open Queue.
func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{})}
}

// Report appends e. Events reported after Close are ignored.
func (q *Queue) Report(e Event) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, e)
	q.wakeLocked()
	q.mu.Unlock()
}

// Close marks the end of the stream. Buffered events stay readable.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.wakeLocked()
	}
	q.mu.Unlock()
}

// Poll returns the oldest event without blocking.
func (q *Queue) Poll() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

// Drain returns every buffered event in order.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// Next blocks until an event is available, the queue is closed and empty
// (io.EOF), or ctx is done.
func (q *Queue) Next(ctx context.Context) (Event, error) {
	for {
		q.mu.Lock()
		if e, ok := q.popLocked(); ok {
			q.mu.Unlock()
			return e, nil
		}
		closed, ready := q.closed, q.ready
		q.mu.Unlock()
		if closed {
			return Event{}, io.EOF
		}

		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case <-ready:
		}
	}
}

// Done reports whether the queue is closed and fully drained.
func (q *Queue) Done() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.items) == 0
}

// Len returns the number of buffered events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) popLocked() (Event, bool) {
	if len(q.items) == 0 {
		return Event{}, false
	}
	e := q.items[0]
	q.items[0] = Event{}
	q.items = q.items[1:]
	return e, true
}

func (q *Queue) wakeLocked() {
	close(q.ready)
	q.ready = make(chan struct{})
}
