package resp3hub

import (
	"errors"
	"time"

	"github.com/panjf2000/gnet/v2"
	"go.uber.org/multierr"
)

// Options defines the configuration options for the Hub server. Its
// transport fields mirror the teacher framework's knobs field-for-field,
// since the event-loop and socket machinery is unaffected by the
// wire-format upgrade from RESP2 commands to RESP3 values; MaxDepth and
// MaxElements carry the per-connection parser limits, and the Log* fields
// configure the hub's logger.
type Options struct {
	// Multicore enables multi-core support. When true, multiple event loops
	// are created and connections are distributed across them using the
	// configured load balancing strategy.
	// Default: false
	Multicore bool

	// LockOSThread locks the OS thread for each event loop.
	// Default: false
	LockOSThread bool

	// ReadBufferCap sets the capacity of the read buffer in bytes.
	// Default: 64KB
	ReadBufferCap int

	// LB specifies the load balancing strategy used to distribute
	// connections across event loops when Multicore is enabled.
	// Default: gnet.RoundRobin
	LB gnet.LoadBalancing

	// NumEventLoop specifies the number of event loops to create. If 0, the
	// number of CPU cores is used. Only effective when Multicore is true.
	// Default: 0 (runtime.NumCPU())
	NumEventLoop int

	// ReusePort enables the SO_REUSEPORT socket option.
	// Default: false
	ReusePort bool

	// Ticker enables periodic ticker events.
	// Default: false
	Ticker bool

	// TCPKeepAlive sets the TCP keep-alive interval.
	// Default: 0 (disabled)
	TCPKeepAlive time.Duration

	// TCPKeepCount sets the number of unacknowledged keep-alive probes
	// before considering the connection dead.
	TCPKeepCount int

	// TCPKeepInterval sets the interval between keep-alive probes.
	TCPKeepInterval time.Duration

	// TCPNoDelay sets the TCP_NODELAY socket option.
	// Default: gnet.TCPNoDelay (the zero value; enabled)
	TCPNoDelay gnet.TCPSocketOpt

	// SocketRecvBuffer sets the size of the socket receive buffer in bytes.
	SocketRecvBuffer int

	// SocketSendBuffer sets the size of the socket send buffer in bytes.
	SocketSendBuffer int

	// EdgeTriggeredIO enables edge-triggered I/O mode when available.
	EdgeTriggeredIO bool

	// TLSListenEnable enables TLS support. When true, a TLS listener is
	// started alongside the TCP listener, proxying decrypted bytes into the
	// same TCP server.
	TLSListenEnable bool

	// TLSCertFile specifies the path to the TLS certificate file. Required
	// when TLSListenEnable is true.
	TLSCertFile string

	// TLSKeyFile specifies the path to the TLS private key file. Required
	// when TLSListenEnable is true.
	TLSKeyFile string

	// TLSAddr specifies the address for the TLS listener. If empty, it is
	// derived from the main TCP address by incrementing the port.
	TLSAddr string

	// MaxDepth bounds aggregate nesting depth for every connection's parser.
	// Passed straight through to resp3.New. A zero value is rejected by
	// Validate, and so by ListenAndServe.
	MaxDepth int

	// MaxElements bounds the cumulative element count per top-level value
	// for every connection's parser. Passed straight through to resp3.New.
	// A zero value is rejected by Validate, and so by ListenAndServe.
	MaxElements int

	// LogFilePath, when non-empty, rotates the hub's structured log output
	// through lumberjack instead of writing to stderr.
	LogFilePath string

	// LogMaxSizeMB is lumberjack's max file size, in megabytes, before
	// rotating. Only consulted when LogFilePath is set. Default: 100.
	LogMaxSizeMB int

	// LogMaxBackups is lumberjack's retained rotated-file count. Only
	// consulted when LogFilePath is set. Default: 3.
	LogMaxBackups int
}

// Validate checks the multi-field invariants ListenAndServe depends on,
// collecting every violation rather than stopping at the first (the teacher
// itself only ever surfaces one failure at a time via plain errors.New; this
// generalizes that pattern across Options' several independently-checkable
// fields).
func (o Options) Validate() error {
	var err error
	if o.TLSListenEnable && (o.TLSCertFile == "" || o.TLSKeyFile == "") {
		err = multierr.Append(err, errors.New("resp3hub: TLSListenEnable requires TLSCertFile and TLSKeyFile"))
	}
	if o.MaxDepth <= 0 {
		err = multierr.Append(err, errors.New("resp3hub: MaxDepth must be positive"))
	}
	if o.MaxElements <= 0 {
		err = multierr.Append(err, errors.New("resp3hub: MaxElements must be positive"))
	}
	return err
}
