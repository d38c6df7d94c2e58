package perception

import "sync"

const eventQueueCap = 50

// EventQueue buffers platform events until the next cycle drains them.
// Capacity is bounded; the oldest event is dropped on overflow.
type EventQueue struct {
	mu     sync.Mutex
	events []Event
}

func NewEventQueue() *EventQueue {
	return &EventQueue{}
}

func (q *EventQueue) Add(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) >= eventQueueCap {
		q.events = q.events[1:]
	}
	q.events = append(q.events, ev)
}

func (q *EventQueue) AddDonation(username string, amount float64, message string) {
	q.Add(Event{Type: EventDonation, Username: username, Amount: amount, Message: message})
}

func (q *EventQueue) AddSubscription(username string) {
	q.Add(Event{Type: EventSubscription, Username: username})
}

func (q *EventQueue) AddFollow(username string) {
	q.Add(Event{Type: EventFollow, Username: username})
}

// SignalStreamStart enqueues the stream_start event that triggers the
// opening greeting.
func (q *EventQueue) SignalStreamStart() {
	q.Add(Event{Type: EventStreamStart})
}

// Drain removes and returns all pending events in arrival order.
func (q *EventQueue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.events
	q.events = nil
	return out
}

func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
