package config

// TransitConfig configures participation in other routers' tunnels. A nil
// TransitConfig on RouterConfig disables transit entirely, which is the
// default for embedded use to keep resource consumption minimal.
type TransitConfig struct {
	// upper bound on concurrently accepted transit tunnels
	MaxTunnels int
}

// DefaultTransitConfig is the policy applied when transit is explicitly
// enabled through the config file without further tuning.
var DefaultTransitConfig = TransitConfig{
	MaxTunnels: 64,
}
