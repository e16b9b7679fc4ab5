package embedded

import (
	"github.com/go-i2p/embedded-router/lib/engine"
)

// stateKind tags the active lifecycle variant.
type stateKind int

const (
	stateStopped stateKind = iota
	stateStarting
	stateRunning
	stateStopping
	stateError
)

// routerState holds exactly one lifecycle variant. The events, shutdown, and
// sched fields belong to the Running variant alone; they are nil in every
// other state and are released precisely when the state leaves Running.
type routerState struct {
	kind stateKind

	// engine lifecycle event stream, held only to keep it alive
	events *engine.Subscription
	// single-slot shutdown signal to the supervising task
	shutdown chan struct{}
	// retained reference to the worker scheduler
	sched *scheduler
}

// release destroys the Running variant's owned resources. Closing the
// shutdown channel is the destruction of the sender: the supervising task
// wakes on it even when no explicit signal was sent, as on the Error paths.
// Calling release on a non-Running variant is a no-op since the fields are
// nil there.
func (s routerState) release() {
	if s.events != nil {
		s.events.Close()
	}
	if s.shutdown != nil {
		close(s.shutdown)
	}
	if s.sched != nil {
		s.sched.Release()
	}
}

// status maps the variant to its externally visible status code.
func (s routerState) status() Status {
	switch s.kind {
	case stateStopped:
		return StatusStopped
	case stateStarting:
		return StatusStarting
	case stateRunning:
		return StatusRunning
	case stateStopping:
		return StatusStopping
	default:
		return StatusError
	}
}
