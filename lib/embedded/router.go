package embedded

import (
	"context"
	"sync"

	"github.com/go-i2p/embedded-router/lib/config"
	"github.com/go-i2p/embedded-router/lib/engine"
	"github.com/go-i2p/logger"
)

var log = logger.GetGoI2PLogger()

// portSlot is an independently guarded optional port number. The SAM port
// queries read these without ever touching the state lock, so they stay
// lock-compatible with a concurrent start or stop.
type portSlot struct {
	mu   sync.RWMutex
	port uint16
	set  bool
}

func (p *portSlot) store(port uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.port = port
	p.set = true
}

func (p *portSlot) load() (uint16, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.port, p.set
}

// Router is one embeddable router instance. All mutable state lives on the
// instance; multiple routers are independent and each is safe for concurrent
// use from any number of goroutines.
type Router struct {
	// stateMu serializes every lifecycle transition. It is never held
	// across blocking work.
	stateMu sync.Mutex
	state   routerState

	configMu sync.RWMutex
	config   *config.RouterConfig

	// SAM bridge ports, populated during a successful start
	samTCP portSlot
	samUDP portSlot

	builder engine.Builder

	// newScheduler is the execution-context factory, replaceable in tests
	// to inject resource failures.
	newScheduler func(workers int) (*scheduler, error)
}

// Option customizes a Router at construction.
type Option func(*Router)

// WithBuilder substitutes the engine builder used at the next start.
func WithBuilder(b engine.Builder) Option {
	return func(r *Router) {
		if b != nil {
			r.builder = b
		}
	}
}

// WithConfig substitutes the configuration used at the next start.
func WithConfig(cfg *config.RouterConfig) Option {
	return func(r *Router) {
		if cfg != nil {
			r.config = cfg
		}
	}
}

// New creates a stopped router with the default embedding configuration:
// SAM bridge on loopback with OS-assigned ports, transit disabled, insecure
// tunnels enabled.
func New(opts ...Option) *Router {
	r := &Router{
		state:        routerState{kind: stateStopped},
		config:       config.DefaultRouterConfig(),
		builder:      engine.NewSAMBridgeBuilder(),
		newScheduler: newScheduler,
	}
	for _, opt := range opts {
		opt(r)
	}
	log.WithFields(logger.Fields{
		"at":     "embedded.New",
		"phase":  "initialization",
		"reason": "creating router instance",
	}).Debug("created embedded router")
	return r
}

// SetConfig replaces the configuration used at the next start. A running
// router is unaffected until it is stopped and started again.
func (r *Router) SetConfig(cfg *config.RouterConfig) {
	if cfg == nil {
		return
	}
	r.configMu.Lock()
	defer r.configMu.Unlock()
	r.config = cfg
}

// Start transitions the router from Stopped to Running. It creates the
// worker scheduler, drives the engine's construction to completion on it
// while the caller blocks, records the discovered SAM bridge ports, and
// detaches a supervising task that races engine completion against the
// shutdown signal. Every failure path leaves the router in Error.
func (r *Router) Start() Code {
	return r.guardCode("embedded.Router.Start", r.start)
}

func (r *Router) start() Code {
	r.stateMu.Lock()
	switch r.state.kind {
	case stateRunning, stateStarting:
		r.stateMu.Unlock()
		return ErrAlreadyStarted
	case stateStopping, stateError:
		r.stateMu.Unlock()
		return ErrGeneric
	}
	r.state = routerState{kind: stateStarting}
	r.stateMu.Unlock()

	log.WithFields(logger.Fields{
		"at":    "embedded.Router.start",
		"phase": "startup",
	}).Info("starting embedded router")

	sched, err := r.newScheduler(defaultSchedulerWorkers)
	if err != nil {
		log.WithError(err).WithFields(logger.Fields{
			"at":    "embedded.Router.start",
			"phase": "startup",
		}).Error("failed to create scheduler")
		r.fail()
		return ErrResource
	}

	// Snapshot the configuration so concurrent SetConfig never affects a
	// start already in flight.
	r.configMu.RLock()
	cfg := r.config.Copy()
	r.configMu.RUnlock()

	// Drive engine construction to completion on the scheduler while this
	// thread blocks.
	var (
		eng      engine.Engine
		events   *engine.Subscription
		buildErr error
	)
	sched.RunBlocking(func() {
		eng, events, buildErr = r.builder.Build(context.Background(), cfg)
	})
	if buildErr != nil {
		log.WithError(buildErr).WithFields(logger.Fields{
			"at":    "embedded.Router.start",
			"phase": "startup",
		}).Error("engine construction failed")
		sched.Release()
		r.fail()
		return ErrNetwork
	}

	info := eng.ProtocolAddressInfo()
	if info.SAMTCP != nil {
		r.samTCP.store(uint16(info.SAMTCP.Port))
	}
	if info.SAMUDP != nil {
		r.samUDP.store(uint16(info.SAMUDP.Port))
	}

	// Detach the supervising task: it keeps the engine alive until either
	// the engine completes on its own or stop signals shutdown.
	shutdown := make(chan struct{}, 1)
	sched.Retain()
	accepted := sched.Spawn(func() {
		defer sched.Release()
		select {
		case <-eng.Done():
			log.WithFields(logger.Fields{
				"at": "embedded.Router.start",
			}).Debug("engine completed on its own")
		case <-shutdown:
			log.WithFields(logger.Fields{
				"at": "embedded.Router.start",
			}).Debug("shutdown signal received")
		}
		eng.Close()
	})
	if !accepted {
		// drop the supervisor's retain and the start reference
		sched.Release()
		sched.Release()
		if events != nil {
			events.Close()
		}
		eng.Close()
		r.fail()
		return ErrGeneric
	}

	r.stateMu.Lock()
	r.state = routerState{
		kind:     stateRunning,
		events:   events,
		shutdown: shutdown,
		sched:    sched,
	}
	r.stateMu.Unlock()

	log.WithFields(logger.Fields{
		"at":    "embedded.Router.start",
		"phase": "running",
	}).Info("embedded router started")
	return Success
}

// fail records an unrecoverable startup fault.
func (r *Router) fail() {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	prev := r.state
	r.state = routerState{kind: stateError}
	prev.release()
}

// Stop signals the supervising task to shut the engine down and returns once
// the signal is sent, without waiting for teardown to finish. Stopping an
// already stopping router is an idempotent success.
func (r *Router) Stop() Code {
	return r.guardCode("embedded.Router.Stop", r.stop)
}

func (r *Router) stop() Code {
	r.stateMu.Lock()
	prev := r.state
	r.state = routerState{kind: stateStopping}

	switch prev.kind {
	case stateRunning:
		r.stateMu.Unlock()

		// Best-effort, non-blocking: a full or closed slot means the task
		// is already on its way down.
		select {
		case prev.shutdown <- struct{}{}:
		default:
		}
		prev.release()

		r.stateMu.Lock()
		r.state = routerState{kind: stateStopped}
		r.stateMu.Unlock()

		log.WithFields(logger.Fields{
			"at":    "embedded.Router.stop",
			"phase": "shutdown",
		}).Info("embedded router stopped")
		return Success

	case stateStopped:
		r.state = prev
		r.stateMu.Unlock()
		return ErrNotStarted

	case stateStarting:
		r.state = prev
		r.stateMu.Unlock()
		return ErrNotStarted

	case stateStopping:
		r.state = prev
		r.stateMu.Unlock()
		return Success

	default: // stateError
		r.state = prev
		r.stateMu.Unlock()
		return ErrGeneric
	}
}

// Close stops the router if necessary and releases it. Errors from stopping
// an already stopped router are expected and discarded. After Close the
// router must not be used again.
func (r *Router) Close() error {
	_ = r.Stop()
	return nil
}

// Status reports the current lifecycle state.
func (r *Router) Status() Status {
	return Status(r.guardValue("embedded.Router.Status", func() int32 {
		r.stateMu.Lock()
		defer r.stateMu.Unlock()
		return int32(r.state.status())
	}))
}

// SamAvailable reports whether the SAM bridge is usable: the router must be
// Running and both bridge ports must have been discovered. A Running router
// whose configuration disabled the bridge reports false.
func (r *Router) SamAvailable() bool {
	v := r.guardValue("embedded.Router.SamAvailable", func() int32 {
		r.stateMu.Lock()
		running := r.state.kind == stateRunning
		r.stateMu.Unlock()
		if !running {
			return 0
		}
		if _, tcpSet := r.samTCP.load(); !tcpSet {
			return 0
		}
		if _, udpSet := r.samUDP.load(); !udpSet {
			return 0
		}
		return 1
	})
	return v == 1
}

// SamTCPPort returns the discovered SAM TCP port, or 0 if none was
// discovered yet. It never takes the state lock.
func (r *Router) SamTCPPort() uint16 {
	v := r.guardValue("embedded.Router.SamTCPPort", func() int32 {
		port, _ := r.samTCP.load()
		return int32(port)
	})
	if v < 0 {
		return 0
	}
	return uint16(v)
}

// SamUDPPort returns the discovered SAM UDP port, or 0 if none was
// discovered yet. It never takes the state lock.
func (r *Router) SamUDPPort() uint16 {
	v := r.guardValue("embedded.Router.SamUDPPort", func() int32 {
		port, _ := r.samUDP.load()
		return int32(port)
	})
	if v < 0 {
		return 0
	}
	return uint16(v)
}
