package embedded

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/go-i2p/embedded-router/lib/config"
	"github.com/go-i2p/embedded-router/lib/engine"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine satisfies engine.Engine without touching the network.
type fakeEngine struct {
	info      engine.ProtocolAddressInfo
	done      chan struct{}
	closeOnce sync.Once
}

func newFakeEngine(tcpPort, udpPort int) *fakeEngine {
	e := &fakeEngine{done: make(chan struct{})}
	if tcpPort > 0 {
		e.info.SAMTCP = &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: tcpPort}
	}
	if udpPort > 0 {
		e.info.SAMUDP = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: udpPort}
	}
	return e
}

func (e *fakeEngine) ProtocolAddressInfo() engine.ProtocolAddressInfo { return e.info }
func (e *fakeEngine) Done() <-chan struct{}                           { return e.done }
func (e *fakeEngine) Close() error {
	e.closeOnce.Do(func() { close(e.done) })
	return nil
}

func (e *fakeEngine) closed() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// fakeBuilder is the configurable test double for engine.Builder.
type fakeBuilder struct {
	tcpPort int
	udpPort int

	buildErr   error
	buildPanic bool
	// gate, when non-nil, blocks Build until closed so tests can hold the
	// router in Starting
	gate chan struct{}

	mu    sync.Mutex
	built []*fakeEngine
}

func (b *fakeBuilder) Build(ctx context.Context, cfg *config.RouterConfig) (engine.Engine, *engine.Subscription, error) {
	if b.gate != nil {
		<-b.gate
	}
	if b.buildPanic {
		panic("builder exploded")
	}
	if b.buildErr != nil {
		return nil, nil, b.buildErr
	}
	e := newFakeEngine(b.tcpPort, b.udpPort)
	b.mu.Lock()
	b.built = append(b.built, e)
	b.mu.Unlock()
	sub := engine.NewSubscription(4)
	return e, sub, nil
}

func (b *fakeBuilder) lastEngine() *fakeEngine {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.built) == 0 {
		return nil
	}
	return b.built[len(b.built)-1]
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting: %s", msg)
}

func TestNewRouterIsStopped(t *testing.T) {
	r := New()
	assert.Equal(t, StatusStopped, r.Status())
	assert.False(t, r.SamAvailable(), "SAM must not be available before start")
	assert.Equal(t, uint16(0), r.SamTCPPort())
	assert.Equal(t, uint16(0), r.SamUDPPort())
}

func TestStartStopLifecycle(t *testing.T) {
	fb := &fakeBuilder{tcpPort: 7656, udpPort: 7655}
	r := New(WithBuilder(fb))

	require.Equal(t, Success, r.Start())
	assert.Equal(t, StatusRunning, r.Status())
	assert.True(t, r.SamAvailable())
	assert.Equal(t, uint16(7656), r.SamTCPPort())
	assert.Equal(t, uint16(7655), r.SamUDPPort())

	require.Equal(t, Success, r.Stop())
	assert.Equal(t, StatusStopped, r.Status())
	assert.False(t, r.SamAvailable(), "SAM availability is gated on Running")

	// The supervising task must tear the engine down after the signal.
	eng := fb.lastEngine()
	require.NotNil(t, eng)
	waitFor(t, eng.closed, "engine closed by supervising task")
}

func TestPortsRemainReadableAfterStop(t *testing.T) {
	fb := &fakeBuilder{tcpPort: 7656, udpPort: 7655}
	r := New(WithBuilder(fb))
	require.Equal(t, Success, r.Start())
	require.Equal(t, Success, r.Stop())

	// Stale values stay readable; only SamAvailable is gated on state.
	assert.Equal(t, uint16(7656), r.SamTCPPort())
	assert.Equal(t, uint16(7655), r.SamUDPPort())
	assert.False(t, r.SamAvailable())
}

func TestStartAlreadyStarted(t *testing.T) {
	fb := &fakeBuilder{tcpPort: 7656, udpPort: 7655}
	r := New(WithBuilder(fb))
	require.Equal(t, Success, r.Start())
	defer r.Stop()

	assert.Equal(t, ErrAlreadyStarted, r.Start())
}

func TestConcurrentStartExactlyOneSuccess(t *testing.T) {
	gate := make(chan struct{})
	fb := &fakeBuilder{tcpPort: 7656, udpPort: 7655, gate: gate}
	r := New(WithBuilder(fb))

	codes := make(chan Code, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes <- r.Start()
		}()
	}

	// One goroutine is blocked inside Build; the other must have already
	// bounced off Starting. Release the builder and collect both codes.
	waitFor(t, func() bool { return r.Status() == StatusStarting }, "router entered Starting")
	close(gate)
	wg.Wait()
	close(codes)

	var got []Code
	for c := range codes {
		got = append(got, c)
	}
	assert.ElementsMatch(t, []Code{Success, ErrAlreadyStarted}, got)
	assert.Equal(t, StatusRunning, r.Status())
	r.Stop()
}

func TestStopNotStarted(t *testing.T) {
	r := New()
	assert.Equal(t, ErrNotStarted, r.Stop())
	assert.Equal(t, StatusStopped, r.Status(), "failed stop must leave state Stopped")
}

func TestStopWhileStarting(t *testing.T) {
	gate := make(chan struct{})
	fb := &fakeBuilder{tcpPort: 7656, udpPort: 7655, gate: gate}
	r := New(WithBuilder(fb))

	startDone := make(chan Code, 1)
	go func() { startDone <- r.Start() }()
	waitFor(t, func() bool { return r.Status() == StatusStarting }, "router entered Starting")

	assert.Equal(t, ErrNotStarted, r.Stop())
	assert.Equal(t, StatusStarting, r.Status(), "stop must restore Starting")

	close(gate)
	assert.Equal(t, Success, <-startDone)
	assert.Equal(t, StatusRunning, r.Status())
	r.Stop()
}

func TestConcurrentStopNeverOscillates(t *testing.T) {
	fb := &fakeBuilder{tcpPort: 7656, udpPort: 7655}
	r := New(WithBuilder(fb))
	require.Equal(t, Success, r.Start())

	codes := make(chan Code, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes <- r.Stop()
		}()
	}
	wg.Wait()
	close(codes)

	success := 0
	for c := range codes {
		switch c {
		case Success:
			success++
		case ErrNotStarted:
			// the loser arrived after the winner already reached Stopped
		default:
			t.Fatalf("unexpected stop code %d", c)
		}
	}
	assert.GreaterOrEqual(t, success, 1, "at least one stop must succeed")
	assert.Equal(t, StatusStopped, r.Status(), "state must settle on Stopped, never back to Running")
}

func TestStartEngineFailure(t *testing.T) {
	fb := &fakeBuilder{buildErr: oops.Errorf("no reachable peers")}
	r := New(WithBuilder(fb))

	assert.Equal(t, ErrNetwork, r.Start())
	assert.Equal(t, StatusError, r.Status())

	// Error is terminal for both operations.
	assert.Equal(t, ErrGeneric, r.Stop())
	assert.Equal(t, ErrGeneric, r.Start())
}

func TestStartSchedulerFailure(t *testing.T) {
	fb := &fakeBuilder{tcpPort: 7656, udpPort: 7655}
	r := New(WithBuilder(fb))
	r.newScheduler = func(workers int) (*scheduler, error) {
		return nil, oops.Errorf("injected resource failure")
	}

	assert.Equal(t, ErrResource, r.Start())
	assert.Equal(t, StatusError, r.Status())
	assert.Equal(t, ErrGeneric, r.Stop())
}

func TestStartPanickingBuilder(t *testing.T) {
	fb := &fakeBuilder{buildPanic: true}
	r := New(WithBuilder(fb))

	assert.Equal(t, ErrGeneric, r.Start(), "panic must surface as the generic code")
	assert.Equal(t, StatusError, r.Status(), "panic must leave state Error")
}

func TestSamUnavailableWithoutBridge(t *testing.T) {
	// An engine that bound no bridge endpoints: running, but samAvailable
	// stays false and the ports stay unset.
	fb := &fakeBuilder{}
	r := New(WithBuilder(fb))

	require.Equal(t, Success, r.Start())
	assert.Equal(t, StatusRunning, r.Status())
	assert.False(t, r.SamAvailable())
	assert.Equal(t, uint16(0), r.SamTCPPort())
	assert.Equal(t, uint16(0), r.SamUDPPort())
	r.Stop()
}

func TestCloseStopsRunningRouter(t *testing.T) {
	fb := &fakeBuilder{tcpPort: 7656, udpPort: 7655}
	r := New(WithBuilder(fb))
	require.Equal(t, Success, r.Start())

	require.NoError(t, r.Close())
	assert.Equal(t, StatusStopped, r.Status())

	eng := fb.lastEngine()
	require.NotNil(t, eng)
	waitFor(t, eng.closed, "engine closed during Close")
}

func TestConfigSnapshotIsolation(t *testing.T) {
	gate := make(chan struct{})
	fb := &fakeBuilder{tcpPort: 7656, udpPort: 7655, gate: gate}
	cfg := config.DefaultRouterConfig()
	r := New(WithBuilder(fb), WithConfig(cfg))

	startDone := make(chan Code, 1)
	go func() { startDone <- r.Start() }()
	waitFor(t, func() bool { return r.Status() == StatusStarting }, "router entered Starting")

	// Swapping the config mid-start must not affect the start in flight.
	r.SetConfig(&config.RouterConfig{InsecureTunnels: false})
	close(gate)
	assert.Equal(t, Success, <-startDone)
	r.Stop()
}

func TestConcurrentStatusDuringStart(t *testing.T) {
	gate := make(chan struct{})
	fb := &fakeBuilder{tcpPort: 7656, udpPort: 7655, gate: gate}
	r := New(WithBuilder(fb))

	startDone := make(chan Code, 1)
	go func() { startDone <- r.Start() }()
	waitFor(t, func() bool { return r.Status() == StatusStarting }, "router entered Starting")

	// Status and port queries must stay responsive while Build blocks.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s := r.Status()
				assert.Contains(t,
					[]Status{StatusStopped, StatusStarting, StatusRunning, StatusStopping, StatusError}, s)
				r.SamTCPPort()
				r.SamUDPPort()
				r.SamAvailable()
			}
		}()
	}
	wg.Wait()

	close(gate)
	assert.Equal(t, Success, <-startDone)
	r.Stop()
}

func TestIndependentInstances(t *testing.T) {
	fb1 := &fakeBuilder{tcpPort: 7656, udpPort: 7655}
	fb2 := &fakeBuilder{tcpPort: 17656, udpPort: 17655}
	r1 := New(WithBuilder(fb1))
	r2 := New(WithBuilder(fb2))

	require.Equal(t, Success, r1.Start())
	assert.Equal(t, StatusStopped, r2.Status(), "instances must not share state")

	require.Equal(t, Success, r2.Start())
	assert.Equal(t, uint16(7656), r1.SamTCPPort())
	assert.Equal(t, uint16(17656), r2.SamTCPPort())

	require.Equal(t, Success, r1.Stop())
	assert.Equal(t, StatusRunning, r2.Status())
	r2.Stop()
}
