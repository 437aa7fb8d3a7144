package resp3hub

import (
	"github.com/panjf2000/gnet/v2"

	"github.com/IceFireDB/redhub/pkg/resp3"
)

// Action represents the type of action to be taken after an event handler
// completes.
type Action int

const (
	// None indicates that no action should be taken following an event. The
	// connection remains open and the server continues processing.
	None Action = iota

	// Close indicates that the connection should be closed.
	Close

	// Shutdown indicates that the entire server should be shut down.
	Shutdown
)

// Conn wraps a gnet.Conn and the *resp3.Parser driving it. It is passed to
// every handler so application code can store connection-specific data via
// SetContext, same as the teacher's Conn, plus reach the connection's parser
// directly (for example to inspect Parser state on a protocol error before
// closing).
type Conn struct {
	gnet.Conn
	parser *resp3.Parser
}

// SetContext sets the connection-specific context data.
func (c *Conn) SetContext(ctx interface{}) {
	c.Conn.SetContext(ctx)
}

// Context returns the connection-specific context data.
func (c *Conn) Context() interface{} {
	return c.Conn.Context()
}

// Parser returns the *resp3.Parser driving this connection's incoming
// stream. Handlers normally never need this directly — the hub drains it —
// but it is exposed for diagnostics (e.g. logging the Kind of a terminal
// ParseError).
func (c *Conn) Parser() *resp3.Parser {
	return c.parser
}

// Handler processes one fully-parsed top-level RESP3 value received on a
// connection. It is the structural replacement for the teacher's
// func(cmd resp.Command, out []byte) ([]byte, Action): instead of a
// RESP2 command with pre-split Args, it receives the complete resp3.Value
// the connection's parser just produced, letting caller code branch on
// v.Kind directly (including resp3.Push, see the Open Questions in
// DESIGN.md).
type Handler func(c *Conn, v resp3.Value, out []byte) ([]byte, Action)
