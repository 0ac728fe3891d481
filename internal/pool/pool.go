// Package pool implements the per-origin connection pool described by
// the client core's data model: a mapping from origin key to an ordered
// free list of connections, plus per-origin counters, with three
// invariants — no connection appears in two lists, a connection marked
// not-known-good is never re-pooled, and a free list never exceeds its
// cap.
package pool

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned by Acquire once Close has been called.
var ErrClosed = errors.New("pool: closed")

// DialFunc establishes a new connection for an origin. It is supplied
// by the caller (the pipeline/redirect layer) so this package stays
// ignorant of TLS configuration and DNS policy.
type DialFunc func(ctx context.Context) (net.Conn, error)

// Outcome tells Release how to dispose of a connection after use.
type Outcome int

const (
	// OutcomeReuse returns a known-good connection to its origin's free
	// list, subject to the free-list cap.
	OutcomeReuse Outcome = iota
	// OutcomeClose closes the connection unconditionally (it is never
	// re-pooled even if still known-good).
	OutcomeClose
)

const (
	// DefaultIdleWindow is the default maximum time a pooled connection
	// may sit idle before Acquire dials fresh instead of reusing it.
	DefaultIdleWindow = 90 * time.Second
	// DefaultMaxFreePerOrigin is the default per-origin free-list cap.
	DefaultMaxFreePerOrigin = 8
)

// Pool is a keyed pool of live connections, safe for concurrent use by
// multiple goroutines (unlike the Session that owns it, which is not).
type Pool struct {
	IdleWindow       time.Duration
	MaxFreePerOrigin int

	mu     sync.Mutex
	free   map[OriginKey][]*Connection
	counts map[OriginKey]int
	sems   map[OriginKey]*semaphore.Weighted
	closed bool
}

// New returns an empty Pool. A zero IdleWindow or MaxFreePerOrigin is
// replaced by the package default.
func New() *Pool {
	return &Pool{
		free:   make(map[OriginKey][]*Connection),
		counts: make(map[OriginKey]int),
		sems:   make(map[OriginKey]*semaphore.Weighted),
	}
}

func (p *Pool) idleWindow() time.Duration {
	if p.IdleWindow > 0 {
		return p.IdleWindow
	}
	return DefaultIdleWindow
}

func (p *Pool) maxFree() int {
	if p.MaxFreePerOrigin > 0 {
		return p.MaxFreePerOrigin
	}
	return DefaultMaxFreePerOrigin
}

// Acquire returns a connection for origin: the most recently used
// known-good idle connection for that origin if one exists and passes
// the staleness check, or else a freshly dialed connection.
//
// Concurrent dials for the same origin are bounded by a per-origin
// semaphore sized to the free-list cap, so a burst of requests hitting
// an empty free list cannot open an unbounded number of simultaneous
// handshakes against one host; this does not change when Acquire dials
// versus reuses, only how many dials may race.
func (p *Pool) Acquire(ctx context.Context, origin OriginKey, dial DialFunc) (*Connection, error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, ErrClosed
		}
		list := p.free[origin]
		if len(list) == 0 {
			p.mu.Unlock()
			break
		}
		c := list[len(list)-1]
		p.free[origin] = list[:len(list)-1]
		p.mu.Unlock()

		if !c.KnownGood() || time.Since(c.LastUsed) > p.idleWindow() || c.stale() {
			_ = c.Close()
			p.decr(origin)
			continue
		}
		return c, nil
	}

	sem := p.semFor(origin)
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	conn, err := dial(ctx)
	sem.Release(1)
	if err != nil {
		return nil, err
	}
	c := newConnection(conn, origin)
	p.mu.Lock()
	p.counts[origin]++
	p.mu.Unlock()
	return c, nil
}

// Release disposes of a connection acquired from this pool. A clean
// outcome on a known-good connection returns it to the free list
// (subject to the cap); anything else closes it.
func (p *Pool) Release(c *Connection, outcome Outcome) {
	if c == nil {
		return
	}
	if outcome == OutcomeClose || !c.KnownGood() {
		_ = c.Close()
		p.decr(c.Origin)
		return
	}
	c.LastUsed = time.Now()
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = c.Close()
		p.decr(c.Origin)
		return
	}
	list := p.free[c.Origin]
	if len(list) >= p.maxFree() {
		p.mu.Unlock()
		_ = c.Close()
		p.decr(c.Origin)
		return
	}
	p.free[c.Origin] = append(list, c)
	p.mu.Unlock()
}

// Close drops all free connections and forbids further acquisition.
// Connections currently checked out by in-flight requests are not
// forcibly closed; their eventual Release will close them because the
// pool is marked closed.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	free := p.free
	p.free = make(map[OriginKey][]*Connection)
	p.mu.Unlock()
	for _, list := range free {
		for _, c := range list {
			_ = c.Close()
		}
	}
}

func (p *Pool) decr(origin OriginKey) {
	p.mu.Lock()
	if p.counts[origin] > 0 {
		p.counts[origin]--
	}
	p.mu.Unlock()
}

func (p *Pool) semFor(origin OriginKey) *semaphore.Weighted {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sems[origin]
	if !ok {
		s = semaphore.NewWeighted(int64(p.maxFree()))
		p.sems[origin] = s
	}
	return s
}

// FreeLen returns the number of idle connections currently pooled for
// origin. It exists for tests that assert on pool invariants.
func (p *Pool) FreeLen(origin OriginKey) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free[origin])
}

// Count returns the number of live connections (idle + in-use) for
// origin. It exists for tests that assert dial counts indirectly.
func (p *Pool) Count(origin OriginKey) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[origin]
}
