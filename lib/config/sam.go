package config

import (
	"net"
	"strconv"
)

// SAMConfig configures the SAM v3 client bridge exposed by the router.
type SAMConfig struct {
	// host the bridge listens on; loopback by default
	Host string
	// TCP control port; 0 requests an OS-assigned port
	TCPPort uint16
	// UDP datagram port; 0 requests an OS-assigned port
	UDPPort uint16
}

// DefaultSAMConfig enables the bridge on loopback with OS-assigned ports,
// which is the right policy for embedders that discover the bound ports
// through the handle's port queries.
var DefaultSAMConfig = SAMConfig{
	Host:    "127.0.0.1",
	TCPPort: 0,
	UDPPort: 0,
}

// TCPAddr returns the bridge's TCP listen address in host:port form.
func (s *SAMConfig) TCPAddr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(int(s.TCPPort)))
}

// UDPAddr returns the bridge's UDP listen address in host:port form.
func (s *SAMConfig) UDPAddr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(int(s.UDPPort)))
}
