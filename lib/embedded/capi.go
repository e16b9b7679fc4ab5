package embedded

import (
	"github.com/go-i2p/logger"
)

// The C-shaped surface. Each function takes an opaque handle token, checks
// it before touching anything, and returns only integer codes. The cgo
// exports in the ffi directory forward here one to one, which keeps this
// whole surface testable without cgo.

// Init allocates a new router with the default configuration and returns its
// handle token, or 0 if construction fails. The token is the caller's only
// capability; every other operation re-borrows the router through it.
func Init() uintptr {
	defer func() {
		if rec := recover(); rec != nil {
			log.WithFields(logger.Fields{
				"at":    "embedded.Init",
				"panic": rec,
			}).Error("panic caught at boundary")
		}
	}()
	return handles.add(New())
}

// Start starts the router behind the handle.
func Start(handle uintptr) int32 {
	r := handles.get(handle)
	if r == nil {
		return int32(ErrInvalidParam)
	}
	return int32(r.Start())
}

// Stop stops the router behind the handle.
func Stop(handle uintptr) int32 {
	r := handles.get(handle)
	if r == nil {
		return int32(ErrInvalidParam)
	}
	return int32(r.Stop())
}

// Destroy stops the router if necessary and invalidates the handle. A null
// or stale handle is a no-op. After Destroy returns, the token is dead and
// all further calls on it report ErrInvalidParam.
func Destroy(handle uintptr) {
	r := handles.remove(handle)
	if r == nil {
		return
	}
	// Stop errors on an already stopped router are expected here.
	_ = r.Close()
}

// GetStatus reports the router's lifecycle status code, or a negative error.
func GetStatus(handle uintptr) int32 {
	r := handles.get(handle)
	if r == nil {
		return int32(ErrInvalidParam)
	}
	return int32(r.Status())
}

// SamAvailable reports 1 when the SAM bridge is usable, 0 when it is not,
// or a negative error.
func SamAvailable(handle uintptr) int32 {
	r := handles.get(handle)
	if r == nil {
		return int32(ErrInvalidParam)
	}
	if r.SamAvailable() {
		return 1
	}
	return 0
}

// GetSamTCPPort returns the discovered SAM TCP port, 0 when unset, or a
// negative error.
func GetSamTCPPort(handle uintptr) int32 {
	r := handles.get(handle)
	if r == nil {
		return int32(ErrInvalidParam)
	}
	return int32(r.SamTCPPort())
}

// GetSamUDPPort returns the discovered SAM UDP port, 0 when unset, or a
// negative error.
func GetSamUDPPort(handle uintptr) int32 {
	r := handles.get(handle)
	if r == nil {
		return int32(ErrInvalidParam)
	}
	return int32(r.SamUDPPort())
}
