package config

import (
	"path/filepath"
)

// router.config options
type RouterConfig struct {
	// the path to the base config directory where per-system defaults are stored
	BaseDir string
	// the path to the working config directory where files are changed
	WorkingDir string
	// SAM v3 bridge configuration; nil disables the bridge
	SAM *SAMConfig
	// transit tunnel configuration; nil disables transit relaying
	Transit *TransitConfig
	// allow reduced-hop tunnels for faster startup at the cost of anonymity
	InsecureTunnels bool
}

func defaultBase() string {
	return filepath.Join(BuildRouterDirPath(), "base")
}

func defaultConfig() string {
	return filepath.Join(BuildRouterDirPath(), "config")
}

// defaults for router
var defaultRouterConfig = &RouterConfig{
	BaseDir:         defaultBase(),
	WorkingDir:      defaultConfig(),
	SAM:             &DefaultSAMConfig,
	Transit:         nil,
	InsecureTunnels: true,
}

// DefaultRouterConfig returns a copy of the default embedding policy: SAM
// bridge on loopback with OS-assigned ports, no transit, insecure tunnels on.
// Callers receive their own copy and may mutate it freely.
func DefaultRouterConfig() *RouterConfig {
	return defaultRouterConfig.Copy()
}

// Copy returns a deep copy of the configuration. Start reads a snapshot of
// the handle's configuration through this, so later mutation of the original
// never affects a running router.
func (c *RouterConfig) Copy() *RouterConfig {
	if c == nil {
		return nil
	}
	out := *c
	if c.SAM != nil {
		sam := *c.SAM
		out.SAM = &sam
	}
	if c.Transit != nil {
		transit := *c.Transit
		out.Transit = &transit
	}
	return &out
}
