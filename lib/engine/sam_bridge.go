package engine

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/go-i2p/embedded-router/lib/config"
	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

var log = logger.GetGoI2PLogger()

// samVersion is the highest SAM protocol version the bridge greets with.
const samVersion = "3.3"

// samHandshakeTimeout bounds how long an accepted control connection may
// take to complete the HELLO exchange before being dropped.
const samHandshakeTimeout = 30 * time.Second

// SAMBridgeBuilder builds the default engine: a loopback SAM v3 bridge that
// binds real TCP and UDP endpoints (OS-assigned when the configured port is
// zero) and answers the SAM HELLO handshake. It implements enough of the
// bridge for an embedder to discover and probe the API endpoints.
type SAMBridgeBuilder struct{}

// NewSAMBridgeBuilder returns a builder for the default SAM bridge engine.
func NewSAMBridgeBuilder() *SAMBridgeBuilder {
	return &SAMBridgeBuilder{}
}

// Build binds the configured SAM endpoints and starts the bridge loops.
// When cfg.SAM is nil the bridge is disabled and the returned engine reports
// no protocol addresses but is otherwise operational.
func (b *SAMBridgeBuilder) Build(ctx context.Context, cfg *config.RouterConfig) (Engine, *Subscription, error) {
	if cfg == nil {
		return nil, nil, oops.Errorf("cannot build engine from nil config")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, oops.Wrapf(err, "engine construction canceled")
	}

	e := &samBridgeEngine{
		sub:  NewSubscription(16),
		done: make(chan struct{}),
	}

	if cfg.SAM != nil {
		var lc net.ListenConfig

		tcp, err := lc.Listen(ctx, "tcp", cfg.SAM.TCPAddr())
		if err != nil {
			log.WithError(err).WithFields(logger.Fields{
				"at":   "engine.SAMBridgeBuilder.Build",
				"addr": cfg.SAM.TCPAddr(),
			}).Error("failed to bind SAM TCP endpoint")
			return nil, nil, oops.Wrapf(err, "binding SAM TCP endpoint %s", cfg.SAM.TCPAddr())
		}

		udp, err := lc.ListenPacket(ctx, "udp", cfg.SAM.UDPAddr())
		if err != nil {
			tcp.Close()
			log.WithError(err).WithFields(logger.Fields{
				"at":   "engine.SAMBridgeBuilder.Build",
				"addr": cfg.SAM.UDPAddr(),
			}).Error("failed to bind SAM UDP endpoint")
			return nil, nil, oops.Wrapf(err, "binding SAM UDP endpoint %s", cfg.SAM.UDPAddr())
		}

		e.tcp = tcp
		e.udp = udp

		e.wg.Add(2)
		go e.acceptLoop()
		go e.datagramLoop()

		log.WithFields(logger.Fields{
			"at":  "engine.SAMBridgeBuilder.Build",
			"tcp": tcp.Addr().String(),
			"udp": udp.LocalAddr().String(),
		}).Info("SAM bridge listening")
		e.sub.Publish(EventSAMReady, tcp.Addr().String())
	}

	e.sub.Publish(EventStarted, "")
	return e, e.sub, nil
}

// samBridgeEngine is the running bridge. Lifetime is one start of the
// lifecycle shim: constructed by Build, torn down by Close.
type samBridgeEngine struct {
	tcp net.Listener
	udp net.PacketConn
	sub *Subscription

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func (e *samBridgeEngine) ProtocolAddressInfo() ProtocolAddressInfo {
	var info ProtocolAddressInfo
	if e.tcp != nil {
		if addr, ok := e.tcp.Addr().(*net.TCPAddr); ok {
			info.SAMTCP = addr
		}
	}
	if e.udp != nil {
		if addr, ok := e.udp.LocalAddr().(*net.UDPAddr); ok {
			info.SAMUDP = addr
		}
	}
	return info
}

func (e *samBridgeEngine) Done() <-chan struct{} {
	return e.done
}

func (e *samBridgeEngine) Close() error {
	e.closeOnce.Do(func() {
		log.WithFields(logger.Fields{
			"at": "engine.samBridgeEngine.Close",
		}).Debug("closing SAM bridge")
		if e.tcp != nil {
			e.tcp.Close()
		}
		if e.udp != nil {
			e.udp.Close()
		}
		close(e.done)
		e.sub.Publish(EventStopped, "")
	})
	return nil
}

func (e *samBridgeEngine) acceptLoop() {
	defer e.wg.Done()
	defer func() {
		// Recover from any panic during shutdown to keep the bridge from
		// taking the process down with it.
		if r := recover(); r != nil {
			log.WithFields(logger.Fields{
				"at":    "engine.samBridgeEngine.acceptLoop",
				"panic": r,
			}).Error("panic in accept loop")
		}
	}()

	for {
		conn, err := e.tcp.Accept()
		if err != nil {
			select {
			case <-e.done:
				return
			default:
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			// Listener is gone for a reason other than Close; the engine
			// has completed on its own.
			log.WithError(err).WithFields(logger.Fields{
				"at": "engine.samBridgeEngine.acceptLoop",
			}).Error("SAM accept failed, terminating bridge")
			e.Close()
			return
		}

		log.WithFields(logger.Fields{
			"at":         "engine.samBridgeEngine.acceptLoop",
			"remoteAddr": conn.RemoteAddr().String(),
		}).Debug("accepted SAM connection")
		e.sub.Publish(EventClientConnected, conn.RemoteAddr().String())

		e.wg.Add(1)
		go e.handleConnection(conn)
	}
}

// handleConnection performs the SAM HELLO exchange and closes the
// connection. Session establishment beyond the greeting is the province of
// the full protocol stack, not this bridge.
func (e *samBridgeEngine) handleConnection(conn net.Conn) {
	defer e.wg.Done()
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(samHandshakeTimeout))

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		log.WithError(err).WithFields(logger.Fields{
			"at": "engine.samBridgeEngine.handleConnection",
		}).Debug("SAM handshake read failed")
		return
	}

	reply := helloReply(line)
	if _, err := conn.Write([]byte(reply)); err != nil {
		log.WithError(err).WithFields(logger.Fields{
			"at": "engine.samBridgeEngine.handleConnection",
		}).Debug("SAM handshake write failed")
	}
}

// helloReply maps one SAM control line to its handshake reply.
func helloReply(line string) string {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) >= 2 && fields[0] == "HELLO" && fields[1] == "VERSION" {
		return "HELLO REPLY RESULT=OK VERSION=" + samVersion + "\n"
	}
	return "HELLO REPLY RESULT=I2P_ERROR MESSAGE=\"expected HELLO VERSION\"\n"
}

// datagramLoop drains the SAM UDP endpoint. Datagram forwarding requires an
// established session, so without one the bridge only keeps the socket warm
// for port discovery.
func (e *samBridgeEngine) datagramLoop() {
	defer e.wg.Done()

	buf := make([]byte, 64*1024)
	for {
		if _, _, err := e.udp.ReadFrom(buf); err != nil {
			select {
			case <-e.done:
			default:
				log.WithError(err).WithFields(logger.Fields{
					"at": "engine.samBridgeEngine.datagramLoop",
				}).Debug("SAM datagram read failed")
			}
			return
		}
	}
}
