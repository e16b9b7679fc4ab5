// Package embedded provides a foreign-call-safe lifecycle shim around an
// embeddable I2P router engine.
//
// The package has two surfaces. The Go-native surface is Router: create with
// New, drive with Start/Stop/Status and the SAM port queries, release with
// Close. The C-shaped surface (Init, Start, Stop, Destroy, GetStatus,
// SamAvailable, GetSamTCPPort, GetSamUDPPort) operates on opaque nonzero
// handle tokens and speaks only integer codes, so it can sit directly behind
// cgo exports; the ffi directory does exactly that.
//
// # Lifecycle
//
// A router moves through five states: Stopped, Starting, Running, Stopping,
// Error. Start transitions Stopped to Running by creating a worker scheduler,
// driving the engine's construction to completion on it, discovering the SAM
// bridge ports, and detaching a supervising task that races engine completion
// against the shutdown signal. Stop sends the shutdown signal and returns
// without waiting for teardown. An operation that fails internally leaves the
// router in Error; the only way out of Error is Close (or Destroy) followed
// by a fresh router.
//
// # Thread Safety
//
// All operations are safe to call concurrently. State transitions are
// serialized by a mutex that is never held across blocking work, so status
// and port queries stay responsive during a multi-second start. Port fields
// are guarded independently of the state lock.
//
// # Boundary Safety
//
// Every operation on the C-shaped surface tolerates the zero handle and
// translates any internal panic into the Generic error code. No fault
// propagates past the boundary as anything but an integer.
package embedded
