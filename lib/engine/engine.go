package engine

import (
	"context"
	"net"

	"github.com/go-i2p/embedded-router/lib/config"
)

// ProtocolAddressInfo reports the client-facing endpoints a running engine
// actually bound. Fields are nil when the corresponding sub-service was not
// configured, so callers can distinguish "disabled" from "port 0 requested".
type ProtocolAddressInfo struct {
	// bound SAM v3 TCP control endpoint, nil if the bridge is disabled
	SAMTCP *net.TCPAddr
	// bound SAM v3 UDP datagram endpoint, nil if the bridge is disabled
	SAMUDP *net.UDPAddr
}

// Engine is a running router engine. The lifecycle shim owns exactly one
// Engine per start and interacts with it only through this surface: address
// discovery right after construction, Done for natural completion, Close for
// cooperative teardown.
type Engine interface {
	// ProtocolAddressInfo returns the endpoints bound during construction.
	ProtocolAddressInfo() ProtocolAddressInfo

	// Done is closed when the engine terminates on its own, whether through
	// Close or an internal fatal error.
	Done() <-chan struct{}

	// Close stops the engine and releases its sockets. Safe to call more
	// than once; subsequent calls are no-ops.
	Close() error
}

// Builder constructs a running Engine from a configuration snapshot. Build
// blocks until the engine is operational or construction has failed; the
// returned Subscription carries the engine's lifecycle events and stays
// valid until closed.
type Builder interface {
	Build(ctx context.Context, cfg *config.RouterConfig) (Engine, *Subscription, error)
}
