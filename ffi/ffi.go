// C bindings for the embedded I2P router lifecycle shim.
// Build with -buildmode=c-shared to produce libembedded_router.so; the
// hand-maintained header is embedded_router.h.
package main

// #include <stdint.h>
import "C"

import (
	"github.com/go-i2p/embedded-router/lib/embedded"
)

// main is required for c-shared build mode but is not called.
func main() {}

//export embedded_router_init
func embedded_router_init() C.uintptr_t {
	return C.uintptr_t(embedded.Init())
}

//export embedded_router_start
func embedded_router_start(handle C.uintptr_t) C.int32_t {
	return C.int32_t(embedded.Start(uintptr(handle)))
}

//export embedded_router_stop
func embedded_router_stop(handle C.uintptr_t) C.int32_t {
	return C.int32_t(embedded.Stop(uintptr(handle)))
}

//export embedded_router_destroy
func embedded_router_destroy(handle C.uintptr_t) {
	embedded.Destroy(uintptr(handle))
}

//export embedded_router_get_status
func embedded_router_get_status(handle C.uintptr_t) C.int32_t {
	return C.int32_t(embedded.GetStatus(uintptr(handle)))
}

//export embedded_router_sam_available
func embedded_router_sam_available(handle C.uintptr_t) C.int32_t {
	return C.int32_t(embedded.SamAvailable(uintptr(handle)))
}

//export embedded_router_get_sam_tcp_port
func embedded_router_get_sam_tcp_port(handle C.uintptr_t) C.int32_t {
	return C.int32_t(embedded.GetSamTCPPort(uintptr(handle)))
}

//export embedded_router_get_sam_udp_port
func embedded_router_get_sam_udp_port(handle C.uintptr_t) C.int32_t {
	return C.int32_t(embedded.GetSamUDPPort(uintptr(handle)))
}
