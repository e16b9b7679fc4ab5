package embedded

import (
	"github.com/go-i2p/logger"
)

// guardCode runs a state-mutating operation behind the panic boundary. A
// panic is translated to ErrGeneric and the router is marked Error on a
// best-effort basis, so no fault ever crosses the foreign boundary as
// anything but an integer code.
func (r *Router) guardCode(at string, op func() Code) (code Code) {
	defer func() {
		if rec := recover(); rec != nil {
			log.WithFields(logger.Fields{
				"at":    at,
				"panic": rec,
			}).Error("panic caught at boundary")
			r.poison()
			code = ErrGeneric
		}
	}()
	return op()
}

// guardValue runs a read-only query behind the panic boundary. Queries do
// not poison the state; they only report the generic error value.
func (r *Router) guardValue(at string, op func() int32) (value int32) {
	defer func() {
		if rec := recover(); rec != nil {
			log.WithFields(logger.Fields{
				"at":    at,
				"panic": rec,
			}).Error("panic caught at boundary")
			value = int32(ErrGeneric)
		}
	}()
	return op()
}

// poison force-transitions the router to Error after a caught panic. TryLock
// keeps the boundary from deadlocking when the panic unwound past a held
// state lock; in that case the state is left as the panicking operation set
// it, which is the same best-effort contract the Error reset has everywhere.
func (r *Router) poison() {
	if !r.stateMu.TryLock() {
		return
	}
	defer r.stateMu.Unlock()
	prev := r.state
	r.state = routerState{kind: stateError}
	prev.release()
}
