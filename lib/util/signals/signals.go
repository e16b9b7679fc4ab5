package signals

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
)

// sigChan is buffered to avoid missing signals delivered while no receiver is ready.
var sigChan = make(chan os.Signal, 1)

// Handler is a function called when a signal is received.
type Handler func()

// HandlerID is a unique identifier returned by registration functions,
// used to deregister individual handlers.
type HandlerID int

// kind distinguishes the two handler lists.
type kind int

const (
	kindReload kind = iota
	kindInterrupt
)

// registeredHandler pairs a handler with its unique ID.
type registeredHandler struct {
	id HandlerID
	fn Handler
}

var (
	mu       sync.RWMutex
	handlers = map[kind][]registeredHandler{}
	nextID   HandlerID
	stopOnce sync.Once
)

func register(k kind, f Handler) HandlerID {
	if f == nil {
		return -1
	}
	mu.Lock()
	defer mu.Unlock()
	id := nextID
	nextID++
	handlers[k] = append(handlers[k], registeredHandler{id: id, fn: f})
	return id
}

func deregister(k kind, id HandlerID) {
	mu.Lock()
	defer mu.Unlock()
	list := handlers[k]
	for i, h := range list {
		if h.id == id {
			handlers[k] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// run invokes every handler of a kind against a snapshot of the list, so a
// handler may register or deregister without deadlocking, and protects each
// invocation against panics.
func run(k kind) {
	mu.RLock()
	snapshot := make([]registeredHandler, len(handlers[k]))
	copy(snapshot, handlers[k])
	mu.RUnlock()
	for _, h := range snapshot {
		func() {
			defer func() {
				if r := recover(); r != nil {
					// The signals package has no logger; write directly to stderr
					// so panicking handlers are visible in logs/console.
					fmt.Fprintf(os.Stderr, "signals: panic in handler: %v\n", r)
				}
			}()
			h.fn()
		}()
	}
}

// RegisterReloadHandler registers a handler called on SIGHUP (config reload).
// Returns a HandlerID that can be passed to DeregisterReloadHandler.
// Nil handlers are silently ignored and return -1.
func RegisterReloadHandler(f Handler) HandlerID {
	return register(kindReload, f)
}

// DeregisterReloadHandler removes a previously registered reload handler by ID.
func DeregisterReloadHandler(id HandlerID) {
	deregister(kindReload, id)
}

// RegisterInterruptHandler registers a handler called on SIGINT/SIGTERM (shutdown).
// Returns a HandlerID that can be passed to DeregisterInterruptHandler.
// Nil handlers are silently ignored and return -1.
func RegisterInterruptHandler(f Handler) HandlerID {
	return register(kindInterrupt, f)
}

// DeregisterInterruptHandler removes a previously registered interrupt handler by ID.
func DeregisterInterruptHandler(id HandlerID) {
	deregister(kindInterrupt, id)
}

func handleReload() {
	run(kindReload)
}

func handleInterrupted() {
	run(kindInterrupt)
}

// StopHandle closes the signal channel, causing Handle() to return.
// It first calls signal.Stop to prevent signal delivery to the closed channel.
// Safe to call multiple times; only the first call takes effect.
func StopHandle() {
	stopOnce.Do(func() {
		signal.Stop(sigChan)
		close(sigChan)
	})
}
