package pool

import (
	"bufio"
	"net"
	"time"
)

// Connection is a pooled TCP or TLS-over-TCP connection, owned
// exclusively by at most one in-flight request at a time. Its
// known-good flag, once cleared, permanently excludes it from
// re-pooling.
type Connection struct {
	Conn      net.Conn
	BR        *bufio.Reader
	BW        *bufio.Writer
	Origin    OriginKey
	CreatedAt time.Time
	LastUsed  time.Time

	knownGood bool
}

func newConnection(c net.Conn, origin OriginKey) *Connection {
	return NewConnection(c, origin)
}

// NewConnection wraps an already-established net.Conn as a pooled
// Connection for origin, marked known-good. It is exported so tests
// outside this package can construct a Connection (e.g. over a
// net.Pipe) without going through Pool.Acquire's dial path.
func NewConnection(c net.Conn, origin OriginKey) *Connection {
	now := time.Now()
	return &Connection{
		Conn:      c,
		BR:        bufio.NewReader(c),
		BW:        bufio.NewWriter(c),
		Origin:    origin,
		CreatedAt: now,
		LastUsed:  now,
		knownGood: true,
	}
}

// MarkBad clears the known-good flag. A connection so marked is closed
// by Pool.Release rather than returned to the free list.
func (c *Connection) MarkBad() {
	c.knownGood = false
}

// KnownGood reports whether the connection is still eligible for reuse.
func (c *Connection) KnownGood() bool {
	return c.knownGood
}

func (c *Connection) Close() error {
	return c.Conn.Close()
}

// stale peeks for EOF or unsolicited data on an idle connection without
// blocking, per §4.5's acquire algorithm ("if the transport indicates
// readable data or EOF pending, discard it"). It restores the read
// deadline before returning.
func (c *Connection) stale() bool {
	_ = c.Conn.SetReadDeadline(time.Now().Add(time.Millisecond))
	defer c.Conn.SetReadDeadline(time.Time{})
	_, err := c.BR.Peek(1)
	if err == nil {
		// Data arrived on an idle connection; something is wrong with it.
		return true
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		// No data pending: the healthy, expected case for an idle conn.
		return false
	}
	// Any other error (EOF, closed, reset) means the peer is gone.
	return true
}
