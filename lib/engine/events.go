package engine

import (
	"sync"
	"time"
)

// EventType classifies engine lifecycle events.
type EventType int

const (
	// EventStarted is published once the engine is operational.
	EventStarted EventType = iota
	// EventSAMReady is published when the SAM bridge has bound its endpoints.
	EventSAMReady
	// EventClientConnected is published for each accepted SAM control connection.
	EventClientConnected
	// EventStopped is published when the engine terminates.
	EventStopped
)

// Event is a single lifecycle notification from the engine.
type Event struct {
	Type   EventType
	Detail string
	Time   time.Time
}

// Subscription is an owned stream of engine lifecycle events. The holder is
// not required to drain it; publication never blocks and drops events when
// the buffer is full. Closing the subscription detaches it from the engine.
type Subscription struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// NewSubscription creates a subscription with the given buffer size (a
// non-positive size selects the default). Builders create one per engine and
// publish into it; the lifecycle shim holds it only to keep it alive.
func NewSubscription(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 16
	}
	return &Subscription{ch: make(chan Event, buffer)}
}

// Events returns the receive side of the stream. The channel is closed when
// the subscription is closed.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Publish delivers an event without blocking. Events are dropped when the
// subscriber is full or already closed.
func (s *Subscription) Publish(t EventType, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- Event{Type: t, Detail: detail, Time: time.Now()}:
	default:
	}
}
