package beacon

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestQueueFIFO(t *testing.T) {
	q := newQueue()

	for i := 0; i < 5; i++ {
		if !q.enqueue(NewEvent(fmt.Sprintf("event-%d", i), "user-1")) {
			t.Fatalf("enqueue %d rejected on open queue", i)
		}
	}

	if q.len() != 5 {
		t.Fatalf("expected 5 queued entries, got %d", q.len())
	}

	for i := 0; i < 5; i++ {
		entry, ok, closed := q.pop()
		if !ok {
			t.Fatalf("pop %d returned no entry", i)
		}
		if closed {
			t.Fatalf("pop %d reported closed on open queue", i)
		}
		want := fmt.Sprintf("event-%d", i)
		if entry.event.Name != want {
			t.Errorf("pop %d: expected %q, got %q", i, want, entry.event.Name)
		}
	}

	if _, ok, _ := q.pop(); ok {
		t.Error("expected empty queue after popping all entries")
	}
}

func TestQueueEnqueueAllKeepsOrder(t *testing.T) {
	q := newQueue()

	batch := []Event{
		NewEvent("first", "u"),
		NewEvent("second", "u"),
		NewEvent("third", "u"),
	}
	if !q.enqueueAll(batch) {
		t.Fatal("enqueueAll rejected on open queue")
	}

	for _, want := range []string{"first", "second", "third"} {
		entry, ok, _ := q.pop()
		if !ok {
			t.Fatalf("expected entry %q, queue empty", want)
		}
		if entry.event.Name != want {
			t.Errorf("expected %q, got %q", want, entry.event.Name)
		}
	}
}

func TestQueuePopEmpty(t *testing.T) {
	q := newQueue()

	entry, ok, closed := q.pop()
	if ok {
		t.Error("expected ok=false on empty queue")
	}
	if closed {
		t.Error("expected closed=false on open queue")
	}
	if entry.event.Name != "" {
		t.Errorf("expected zero entry, got event %q", entry.event.Name)
	}
}

func TestQueueClose(t *testing.T) {
	q := newQueue()
	q.enqueue(NewEvent("queued-before-close", "u"))

	deadline := time.Now().Add(2 * time.Second)
	if !q.close(deadline) {
		t.Fatal("first close returned false")
	}
	if q.close(deadline.Add(time.Second)) {
		t.Error("second close should return false")
	}
	if !q.drainDeadline().Equal(deadline) {
		t.Errorf("expected deadline %v, got %v", deadline, q.drainDeadline())
	}

	// New entries are rejected after close.
	if q.enqueue(NewEvent("late", "u")) {
		t.Error("enqueue accepted after close")
	}
	if q.enqueueAll([]Event{NewEvent("late", "u")}) {
		t.Error("enqueueAll accepted after close")
	}
	if q.pushFlush(make(chan struct{})) {
		t.Error("pushFlush accepted after close")
	}

	// Entries queued before close remain poppable.
	entry, ok, closed := q.pop()
	if !ok {
		t.Fatal("expected pre-close entry to remain poppable")
	}
	if !closed {
		t.Error("expected closed=true after close")
	}
	if entry.event.Name != "queued-before-close" {
		t.Errorf("expected pre-close event, got %q", entry.event.Name)
	}

	// Empty and closed is the drain-complete signal.
	_, ok, closed = q.pop()
	if ok {
		t.Error("expected empty queue after draining")
	}
	if !closed {
		t.Error("expected closed=true on drained queue")
	}
}

func TestQueueFlushMarkerOrdering(t *testing.T) {
	q := newQueue()

	q.enqueue(NewEvent("before", "u"))
	ack := make(chan struct{})
	if !q.pushFlush(ack) {
		t.Fatal("pushFlush rejected on open queue")
	}
	q.enqueue(NewEvent("after", "u"))

	entry, _, _ := q.pop()
	if entry.isFlush() {
		t.Fatal("first entry should be an event, got flush marker")
	}
	if entry.event.Name != "before" {
		t.Errorf("expected %q, got %q", "before", entry.event.Name)
	}

	entry, _, _ = q.pop()
	if !entry.isFlush() {
		t.Fatal("second entry should be the flush marker")
	}
	if entry.flush != ack {
		t.Error("flush marker carries the wrong ack channel")
	}

	entry, _, _ = q.pop()
	if entry.event.Name != "after" {
		t.Errorf("expected %q, got %q", "after", entry.event.Name)
	}
}

func TestQueueWakeSignal(t *testing.T) {
	q := newQueue()

	// No signal pending on a fresh queue.
	select {
	case <-q.wake:
		t.Fatal("unexpected wake signal on fresh queue")
	default:
	}

	q.enqueue(NewEvent("e", "u"))

	select {
	case <-q.wake:
	case <-time.After(time.Second):
		t.Fatal("expected wake signal after enqueue")
	}

	// Multiple appends coalesce into a single pending signal.
	q.enqueue(NewEvent("e1", "u"))
	q.enqueue(NewEvent("e2", "u"))

	select {
	case <-q.wake:
	case <-time.After(time.Second):
		t.Fatal("expected coalesced wake signal")
	}
	select {
	case <-q.wake:
		t.Fatal("expected signals to coalesce, got a second one")
	default:
	}

	// Close also wakes a parked worker.
	q.close(time.Now())
	select {
	case <-q.wake:
	case <-time.After(time.Second):
		t.Fatal("expected wake signal after close")
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	q := newQueue()

	const producers = 8
	const perProducer = 200

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.enqueue(NewEvent(fmt.Sprintf("p%d-e%d", p, i), "u"))
			}
		}(p)
	}
	wg.Wait()

	if q.len() != producers*perProducer {
		t.Fatalf("expected %d entries, got %d", producers*perProducer, q.len())
	}

	// Per-producer order is preserved even though producers interleave.
	lastSeen := make(map[int]int, producers)
	for p := 0; p < producers; p++ {
		lastSeen[p] = -1
	}
	for {
		entry, ok, _ := q.pop()
		if !ok {
			break
		}
		var p, i int
		if _, err := fmt.Sscanf(entry.event.Name, "p%d-e%d", &p, &i); err != nil {
			t.Fatalf("unexpected event name %q: %v", entry.event.Name, err)
		}
		if i <= lastSeen[p] {
			t.Fatalf("producer %d order violated: saw %d after %d", p, i, lastSeen[p])
		}
		lastSeen[p] = i
	}
}
