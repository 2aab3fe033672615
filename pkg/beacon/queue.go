package beacon

import (
	"sync"
	"time"
)

// queueEntry is one unit of work for the worker. Either event holds a
// captured event, or flush is non-nil and marks a flush request whose
// channel is closed once every event ahead of it has been handed to
// the sender.
type queueEntry struct {
	event Event
	flush chan struct{}
}

// isFlush returns true when the entry is a flush marker.
func (e queueEntry) isFlush() bool {
	return e.flush != nil
}

// queue is the unbounded buffer between capture callers and the
// worker. Producers append under a mutex and never block; the worker
// pops entries one at a time and parks on the wake channel when the
// queue is empty.
type queue struct {
	mu      sync.Mutex
	entries []queueEntry

	// wake has capacity 1. A signal is sent after every append and
	// after close so a parked worker observes the change.
	wake chan struct{}

	// closed and deadline are set together under mu by close. Once
	// closed, enqueue rejects new entries and the worker drains what
	// remains until deadline.
	closed   bool
	deadline time.Time
}

func newQueue() *queue {
	return &queue{wake: make(chan struct{}, 1)}
}

// enqueue appends one event. Returns false when the queue is closed.
func (q *queue) enqueue(evt Event) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.entries = append(q.entries, queueEntry{event: evt})
	q.mu.Unlock()

	q.signal()
	return true
}

// enqueueAll appends events under a single lock so they stay
// contiguous in queue order. Returns false when the queue is closed,
// in which case none of the events are admitted.
func (q *queue) enqueueAll(events []Event) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	for _, evt := range events {
		q.entries = append(q.entries, queueEntry{event: evt})
	}
	q.mu.Unlock()

	q.signal()
	return true
}

// pushFlush appends a flush marker. The ack channel is closed by the
// worker once the marker is processed. Returns false when the queue
// is closed.
func (q *queue) pushFlush(ack chan struct{}) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.entries = append(q.entries, queueEntry{flush: ack})
	q.mu.Unlock()

	q.signal()
	return true
}

// close marks the queue closed and records the drain deadline.
// Entries already queued remain poppable. Returns false if the queue
// was already closed.
func (q *queue) close(deadline time.Time) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.closed = true
	q.deadline = deadline
	q.mu.Unlock()

	q.signal()
	return true
}

// pop removes and returns the head entry. ok reports whether an entry
// was returned; closed reports the queue state observed under the
// same lock, so ok=false with closed=true is a reliable
// drain-complete signal.
func (q *queue) pop() (entry queueEntry, ok, closed bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return queueEntry{}, false, q.closed
	}

	entry = q.entries[0]
	q.entries[0] = queueEntry{} // release the event reference
	q.entries = q.entries[1:]
	if len(q.entries) == 0 {
		q.entries = nil // let the backing array be collected
	}
	return entry, true, q.closed
}

// len returns the number of entries waiting in the queue, flush
// markers included.
func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// drainDeadline returns the deadline recorded by close. Zero until
// the queue is closed.
func (q *queue) drainDeadline() time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.deadline
}

// signal wakes a parked worker. The send is non-blocking; a pending
// signal already covers every entry appended before the worker next
// runs.
func (q *queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
