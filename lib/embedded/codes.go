package embedded

// Code is the integer result of a lifecycle operation, the only error
// currency that crosses the foreign boundary.
type Code int32

const (
	// Success indicates the operation took effect as requested.
	Success Code = 0
	// ErrGeneric covers internal faults, caught panics, and state-machine
	// states with no more specific code.
	ErrGeneric Code = -1
	// ErrInvalidParam indicates a caller contract violation, i.e. a null
	// or stale handle.
	ErrInvalidParam Code = -2
	// -3 is reserved for wire compatibility with existing embedders.
	// ErrAlreadyStarted is returned by Start on a Starting or Running router.
	ErrAlreadyStarted Code = -4
	// ErrNotStarted is returned by Stop on a router that never reached Running.
	ErrNotStarted Code = -5
	// ErrNetwork indicates engine construction failed.
	ErrNetwork Code = -6
	// ErrResource indicates the worker scheduler could not be created.
	ErrResource Code = -7
)

// Status is the externally visible lifecycle state of a router.
type Status int32

const (
	StatusStopped  Status = 0
	StatusStarting Status = 1
	StatusRunning  Status = 2
	StatusStopping Status = 3
	StatusError    Status = 4
)

// String implements fmt.Stringer for log output.
func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusStarting:
		return "starting"
	case StatusRunning:
		return "running"
	case StatusStopping:
		return "stopping"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}
