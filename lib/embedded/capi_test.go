package embedded

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The C-shaped surface defaults to the real SAM bridge engine, so these
// tests bind actual loopback sockets and observe OS-assigned ports.

func TestCAPIFullScenario(t *testing.T) {
	handle := Init()
	require.NotZero(t, handle, "init must return a nonzero handle")
	defer Destroy(handle)

	assert.Equal(t, int32(StatusStopped), GetStatus(handle))
	assert.Equal(t, int32(0), SamAvailable(handle))
	assert.Equal(t, int32(0), GetSamTCPPort(handle))
	assert.Equal(t, int32(0), GetSamUDPPort(handle))

	require.Equal(t, int32(Success), Start(handle))
	assert.Equal(t, int32(StatusRunning), GetStatus(handle))
	assert.Equal(t, int32(1), SamAvailable(handle))

	tcpPort := GetSamTCPPort(handle)
	udpPort := GetSamUDPPort(handle)
	assert.Positive(t, tcpPort, "OS must have assigned a TCP port")
	assert.Positive(t, udpPort, "OS must have assigned a UDP port")

	assert.Equal(t, int32(Success), Stop(handle))
	assert.Equal(t, int32(StatusStopped), GetStatus(handle))
	assert.Equal(t, int32(0), SamAvailable(handle))
}

func TestCAPINullHandle(t *testing.T) {
	assert.Equal(t, int32(ErrInvalidParam), Start(0))
	assert.Equal(t, int32(ErrInvalidParam), Stop(0))
	assert.Equal(t, int32(ErrInvalidParam), GetStatus(0))
	assert.Equal(t, int32(ErrInvalidParam), SamAvailable(0))
	assert.Equal(t, int32(ErrInvalidParam), GetSamTCPPort(0))
	assert.Equal(t, int32(ErrInvalidParam), GetSamUDPPort(0))
	assert.NotPanics(t, func() { Destroy(0) })
}

func TestCAPIDestroyInvalidatesHandle(t *testing.T) {
	handle := Init()
	require.NotZero(t, handle)
	require.Equal(t, int32(Success), Start(handle))

	// Destroy performs the implicit stop.
	Destroy(handle)

	assert.Equal(t, int32(ErrInvalidParam), GetStatus(handle), "stale token must fail closed")
	assert.Equal(t, int32(ErrInvalidParam), Start(handle))
	assert.NotPanics(t, func() { Destroy(handle) }, "double destroy is a no-op")
}

func TestCAPIStopBeforeStart(t *testing.T) {
	handle := Init()
	require.NotZero(t, handle)
	defer Destroy(handle)

	assert.Equal(t, int32(ErrNotStarted), Stop(handle))
	assert.Equal(t, int32(StatusStopped), GetStatus(handle))
}

func TestCAPIHandlesAreDistinct(t *testing.T) {
	h1 := Init()
	h2 := Init()
	require.NotZero(t, h1)
	require.NotZero(t, h2)
	defer Destroy(h1)
	defer Destroy(h2)

	assert.NotEqual(t, h1, h2)

	require.Equal(t, int32(Success), Start(h1))
	assert.Equal(t, int32(StatusRunning), GetStatus(h1))
	assert.Equal(t, int32(StatusStopped), GetStatus(h2), "instances are independent")
	assert.Equal(t, int32(Success), Stop(h1))
}

func TestCAPIDoubleStart(t *testing.T) {
	handle := Init()
	require.NotZero(t, handle)
	defer Destroy(handle)

	require.Equal(t, int32(Success), Start(handle))
	assert.Equal(t, int32(ErrAlreadyStarted), Start(handle))
	assert.Equal(t, int32(Success), Stop(handle))

	// A stopped router can be started again.
	require.Equal(t, int32(Success), Start(handle))
	assert.Equal(t, int32(Success), Stop(handle))
}
