// Package feedback carries user-facing notices from the core to the presentation layer
// as structured events instead of rendered strings.
package feedback

import "sync"

// Kind classifies an event for display.
type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// DefaultCapacity bounds a queue created with a non-positive capacity.
const DefaultCapacity = 32

// Event is a single notice.
type Event struct {
	ID      int64  `json:"id"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Queue is a bounded FIFO of events. When full, the oldest event is dropped.
type Queue struct {
	mu       sync.Mutex
	events   []Event
	capacity int
	nextID   int64
	dropped  int
}

// NewQueue creates a queue holding at most capacity events.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		events:   make([]Event, 0, capacity),
		capacity: capacity,
		nextID:   1,
	}
}

// Push appends an event and returns it with its assigned id.
func (q *Queue) Push(kind Kind, message string) Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	ev := Event{ID: q.nextID, Kind: kind, Message: message}
	q.nextID++

	if len(q.events) == q.capacity {
		q.events = q.events[1:]
		q.dropped++
	}
	q.events = append(q.events, ev)
	return ev
}

// Pending returns a copy of the queued events, oldest first.
func (q *Queue) Pending() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Event(nil), q.events...)
}

// Drain returns and removes every queued event.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.events
	q.events = make([]Event, 0, q.capacity)
	return out
}

// Dismiss removes the event with id. It reports whether it was present.
func (q *Queue) Dismiss(id int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, ev := range q.events {
		if ev.ID == id {
			q.events = append(q.events[:i], q.events[i+1:]...)
			return true
		}
	}
	return false
}

// Dropped returns how many events were evicted because the queue was full.
func (q *Queue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
