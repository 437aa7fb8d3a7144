// Package resp3hub provides a high-performance RESP3 server framework.
// It is built on top of the gnet library and uses the same event-driven,
// multi-threaded architecture as its RESP2 predecessor, but drives one
// *resp3.Parser per connection instead of a byte.Buffer plus a one-shot
// command scanner.
//
// Hub is designed to help developers create RESP3-speaking servers with
// minimal code.
//
// # Basic Usage
//
//	hub := resp3hub.NewHub(
//	    func(c *resp3hub.Conn) (out []byte, action resp3hub.Action) {
//	        return nil, resp3hub.None
//	    },
//	    func(c *resp3hub.Conn, err error) (action resp3hub.Action) {
//	        return resp3hub.None
//	    },
//	    func(c *resp3hub.Conn, v resp3.Value, out []byte) ([]byte, resp3hub.Action) {
//	        out = resp3.Append(out, resp3.NewSimpleString("OK"))
//	        return out, resp3hub.None
//	    },
//	)
//
//	err := resp3hub.ListenAndServe("tcp://127.0.0.1:6380", resp3hub.Options{
//	    Multicore:   true,
//	    MaxDepth:    32,
//	    MaxElements: 1 << 20,
//	}, hub)
//
// # Architecture
//
// Hub implements an event-driven architecture using multiple event loops
// that run in parallel (in multi-core mode). Each connection owns one
// *resp3.Parser; incoming bytes are fed to it and drained in a loop until
// the parser reports incomplete input, at which point the remaining bytes
// stay buffered inside the parser itself for the next OnTraffic call.
package resp3hub

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/gnet/v2"
	"go.uber.org/zap"

	"github.com/IceFireDB/redhub/pkg/resp3"
)

// Hub represents the main server structure that manages connections and
// value dispatch. It implements the gnet.EventHandler interface and is
// typically created using NewHub.
type Hub struct {
	onOpened    func(c *Conn) (out []byte, action Action)
	onClosed    func(c *Conn, err error) (action Action)
	handler     Handler
	conns       map[gnet.Conn]*Conn
	connSync    *sync.RWMutex
	mu          sync.Mutex
	addr        string
	tcpAddr     string
	running     bool
	engine      gnet.Engine
	tlsListener net.Listener
	maxDepth    int
	maxElements int
	log         *zap.Logger
}

// NewHub creates a new Hub instance with the specified event handlers.
//
// Parameters:
//   - onOpened: called when a new connection is established.
//   - onClosed: called when a connection is closed.
//   - handler: called for each fully-parsed resp3.Value read from a
//     connection.
func NewHub(
	onOpened func(c *Conn) (out []byte, action Action),
	onClosed func(c *Conn, err error) (action Action),
	handler Handler,
) *Hub {
	return &Hub{
		conns:    make(map[gnet.Conn]*Conn),
		connSync: &sync.RWMutex{},
		onOpened: onOpened,
		onClosed: onClosed,
		handler:  handler,
		log:      zap.NewNop(),
	}
}

// OnBoot is called by gnet when the server is ready to accept connections.
func (h *Hub) OnBoot(eng gnet.Engine) (action gnet.Action) {
	h.mu.Lock()
	h.engine = eng
	h.mu.Unlock()
	return gnet.None
}

// OnShutdown is called by gnet when the server is shutting down.
func (h *Hub) OnShutdown(eng gnet.Engine) {}

// OnOpen is called by gnet when a new connection is opened. A fresh
// *resp3.Parser is created for the connection before the application's
// onOpened handler runs.
func (h *Hub) OnOpen(c gnet.Conn) (out []byte, action gnet.Action) {
	wrapped := &Conn{Conn: c, parser: resp3.New(h.maxDepth, h.maxElements)}
	h.connSync.Lock()
	h.conns[c] = wrapped
	h.connSync.Unlock()
	if h.onOpened == nil {
		return nil, gnet.None
	}
	out, act := h.onOpened(wrapped)
	return out, gnet.Action(act)
}

// OnClose is called by gnet when a connection is closed.
func (h *Hub) OnClose(c gnet.Conn, err error) (action gnet.Action) {
	h.connSync.Lock()
	wrapped, ok := h.conns[c]
	delete(h.conns, c)
	h.connSync.Unlock()
	if h.onClosed == nil {
		return gnet.None
	}
	if !ok {
		wrapped = &Conn{Conn: c}
	}
	return gnet.Action(h.onClosed(wrapped, err))
}

// OnTraffic is called by gnet when data is received from a connection. It
// feeds the bytes to the connection's parser and drains every complete
// top-level value through the handler, matching the teacher's "accumulate,
// parse, dispatch, keep leftover" pipeline but with the accumulation and
// resumption owned by resp3.Parser instead of a connBuffer.
func (h *Hub) OnTraffic(c gnet.Conn) (action gnet.Action) {
	h.connSync.RLock()
	wrapped, ok := h.conns[c]
	h.connSync.RUnlock()

	if !ok {
		_, _ = c.Write(resp3.Append(nil, resp3.NewSimpleError("ERR client is closed")))
		return gnet.None
	}

	buf, _ := c.Next(-1)
	if len(buf) == 0 {
		return gnet.None
	}
	wrapped.parser.Feed(buf)

	var out []byte
	for {
		v, _, err := wrapped.parser.TryParse()
		if err != nil {
			var pe *resp3.ParseError
			if errors.As(err, &pe) && !pe.Kind.Terminal() {
				break
			}
			h.log.Warn("resp3hub: terminal parse error", zap.Error(err), zap.Uintptr("fd", uintptr(c.Fd())))
			out = resp3.Append(out, resp3.NewSimpleError("ERR "+errorString(err)))
			if len(out) > 0 {
				_, _ = c.Write(out)
			}
			wrapped.parser.Reset()
			return gnet.Close
		}

		var status Action
		out, status = h.handler(wrapped, v, out)
		if status == Close {
			if len(out) > 0 {
				_, _ = c.Write(out)
			}
			return gnet.Close
		}
		if status == Shutdown {
			if len(out) > 0 {
				_, _ = c.Write(out)
			}
			return gnet.Shutdown
		}
	}
	if len(out) > 0 {
		_, _ = c.Write(out)
	}

	return gnet.None
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// OnTick is called by gnet on a periodic timer when Ticker is enabled.
func (h *Hub) OnTick() (delay time.Duration, action gnet.Action) {
	return 0, gnet.None
}

// deriveTLSAddr derives a TLS address from the TCP address by incrementing
// the port.
func deriveTLSAddr(tcpAddr string) string {
	if !strings.HasPrefix(tcpAddr, "tcp://") {
		return ""
	}

	hostPort := strings.TrimPrefix(tcpAddr, "tcp://")
	host, portStr, err := net.SplitHostPort(hostPort)
	if err != nil {
		return ""
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return ""
	}

	return "tcp://" + net.JoinHostPort(host, strconv.Itoa(port+1))
}

// startTLSListener starts the TLS listener that proxies connections to the
// TCP server.
func (h *Hub) startTLSListener(options Options) error {
	cert, err := tls.LoadX509KeyPair(options.TLSCertFile, options.TLSKeyFile)
	if err != nil {
		return err
	}

	tlsAddr := options.TLSAddr
	if tlsAddr == "" {
		tlsAddr = deriveTLSAddr(h.tcpAddr)
		if tlsAddr == "" {
			return errors.New("failed to derive TLS address from TCP address")
		}
	}

	listenAddr := tlsAddr
	if strings.HasPrefix(tlsAddr, "tcp://") {
		listenAddr = strings.TrimPrefix(tlsAddr, "tcp://")
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
	}

	h.tlsListener, err = tls.Listen("tcp", listenAddr, tlsConfig)
	if err != nil {
		return err
	}

	tcpForwardAddr := h.tcpAddr
	if strings.HasPrefix(tcpForwardAddr, "tcp://") {
		tcpForwardAddr = strings.TrimPrefix(tcpForwardAddr, "tcp://")
	}

	go h.acceptTLSConnections(tcpForwardAddr)

	return nil
}

// acceptTLSConnections accepts TLS connections and forwards them to the TCP
// server.
func (h *Hub) acceptTLSConnections(tcpAddr string) {
	for {
		tlsConn, err := h.tlsListener.Accept()
		if err != nil {
			if !h.running {
				return
			}
			continue
		}

		go h.handleTLSConn(tlsConn, tcpAddr)
	}
}

// handleTLSConn handles a single TLS connection by forwarding data to the
// TCP server.
func (h *Hub) handleTLSConn(tlsConn net.Conn, tcpAddr string) {
	defer tlsConn.Close()

	tcpConn, err := net.Dial("tcp", tcpAddr)
	if err != nil {
		return
	}
	defer tcpConn.Close()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		buf := make([]byte, 4096)
		for {
			n, err := tlsConn.Read(buf)
			if err != nil {
				return
			}
			if _, err = tcpConn.Write(buf[:n]); err != nil {
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		buf := make([]byte, 4096)
		for {
			n, err := tcpConn.Read(buf)
			if err != nil {
				return
			}
			if _, err = tlsConn.Write(buf[:n]); err != nil {
				return
			}
		}
	}()

	wg.Wait()
}

// ListenAndServe starts the Hub server on the specified address with the
// given options. The address should be in the format "tcp://host:port".
//
// Blocks until the server is stopped, either by a Shutdown action or by an
// error.
func ListenAndServe(addr string, options Options, h *Hub) error {
	if err := options.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(options)
	if err != nil {
		return err
	}

	var opts []gnet.Option

	if options.Multicore {
		opts = append(opts, gnet.WithMulticore(true))
	}
	if options.LockOSThread {
		opts = append(opts, gnet.WithLockOSThread(true))
	}
	if options.ReadBufferCap > 0 {
		opts = append(opts, gnet.WithReadBufferCap(options.ReadBufferCap))
	}
	if options.NumEventLoop > 0 {
		opts = append(opts, gnet.WithNumEventLoop(options.NumEventLoop))
	}
	if options.LB != gnet.RoundRobin {
		opts = append(opts, gnet.WithLoadBalancing(options.LB))
	}
	if options.ReusePort {
		opts = append(opts, gnet.WithReusePort(true))
	}
	if options.Ticker {
		opts = append(opts, gnet.WithTicker(true))
	}
	if options.TCPKeepAlive > 0 {
		opts = append(opts, gnet.WithTCPKeepAlive(options.TCPKeepAlive))
	}
	if options.TCPKeepCount > 0 {
		opts = append(opts, gnet.WithTCPKeepCount(options.TCPKeepCount))
	}
	if options.TCPKeepInterval > 0 {
		opts = append(opts, gnet.WithTCPKeepInterval(options.TCPKeepInterval))
	}
	opts = append(opts, gnet.WithTCPNoDelay(options.TCPNoDelay))
	if options.SocketRecvBuffer > 0 {
		opts = append(opts, gnet.WithSocketRecvBuffer(options.SocketRecvBuffer))
	}
	if options.SocketSendBuffer > 0 {
		opts = append(opts, gnet.WithSocketSendBuffer(options.SocketSendBuffer))
	}
	if options.EdgeTriggeredIO {
		opts = append(opts, gnet.WithEdgeTriggeredIO(true))
	}

	h.mu.Lock()
	h.addr = addr
	h.tcpAddr = addr
	h.running = true
	h.maxDepth = options.MaxDepth
	h.maxElements = options.MaxElements
	h.log = logger
	h.mu.Unlock()

	if options.TLSListenEnable {
		if err := h.startTLSListener(options); err != nil {
			h.mu.Lock()
			h.running = false
			h.mu.Unlock()
			return err
		}
	}

	logger.Info("resp3hub: listening", zap.String("addr", addr), zap.Bool("multicore", options.Multicore))
	err = gnet.Run(h, addr, opts...)

	h.mu.Lock()
	h.running = false
	h.mu.Unlock()

	if h.tlsListener != nil {
		h.tlsListener.Close()
	}

	return err
}

// Close gracefully shuts down the Hub server. Safe to call multiple times.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return errors.New("server not running")
	}

	h.running = false

	if h.tlsListener != nil {
		_ = h.tlsListener.Close()
	}

	return h.engine.Stop(context.Background())
}
