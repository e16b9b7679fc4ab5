// Package engine defines the contract between the lifecycle shim and the
// router engine it manages, plus the default engine implementation.
//
// The shim never looks inside an engine: it builds one through a Builder,
// reads the bound protocol addresses once, races the engine's completion
// against a shutdown signal, and closes it. Anything implementing Engine and
// Builder can be managed, which is also how the tests substitute doubles.
//
// The default engine, built by SAMBridgeBuilder, is a loopback SAM v3 bridge:
// it binds real TCP and UDP endpoints on OS-assigned ports and answers the
// SAM HELLO handshake, giving embedders live endpoints to discover and probe.
package engine
