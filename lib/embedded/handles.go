package embedded

import (
	"sync"
)

// handleRegistry maps opaque nonzero tokens to live routers. Go cannot hand
// raw heap addresses across the C boundary, so the "address" an embedder
// holds is a registry key: zero is the null handle, and a destroyed token
// fails closed on lookup instead of dereferencing freed memory.
type handleRegistry struct {
	mu      sync.Mutex
	next    uintptr
	routers map[uintptr]*Router
}

var handles = &handleRegistry{
	next:    1,
	routers: make(map[uintptr]*Router),
}

// add publishes a router and returns its token.
func (h *handleRegistry) add(r *Router) uintptr {
	h.mu.Lock()
	defer h.mu.Unlock()
	token := h.next
	h.next++
	h.routers[token] = r
	return token
}

// get returns the router for a token, or nil for the null handle and any
// token that was never issued or was already destroyed.
func (h *handleRegistry) get(token uintptr) *Router {
	if token == 0 {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.routers[token]
}

// remove withdraws a token and returns its router, or nil if the token was
// not live. Removal is what makes a double destroy a safe no-op.
func (h *handleRegistry) remove(token uintptr) *Router {
	if token == 0 {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	r := h.routers[token]
	delete(h.routers, token)
	return r
}
