// Package config defines the router configuration consumed at start time and
// its viper-backed loading.
//
// A RouterConfig describes everything the embedded router needs before it can
// be started: where its working files live, whether the SAM v3 bridge is
// enabled and on which endpoints, whether transit relaying is allowed, and
// whether reduced-security tunnels may be used for faster startup.
//
// The default policy favors embedding: the SAM bridge is enabled on loopback
// with OS-assigned ports, transit relaying is disabled, and insecure tunnels
// are enabled. Use DefaultRouterConfig for that policy, or InitConfig +
// NewRouterConfigFromViper to load overrides from a YAML config file.
package config
