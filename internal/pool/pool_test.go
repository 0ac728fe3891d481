package pool

import (
	"context"
	"net"
	"testing"
	"time"
)

func pipeDialer(t *testing.T) (DialFunc, func()) {
	server, client := net.Pipe()
	closeServer := func() { server.Close() }
	go func() {
		buf := make([]byte, 512)
		for {
			if _, err := server.Read(buf); err != nil {
				return
			}
		}
	}()
	return func(ctx context.Context) (net.Conn, error) { return client, nil }, closeServer
}

func TestAcquireDialsWhenFreeListEmpty(t *testing.T) {
	p := New()
	dial, closeServer := pipeDialer(t)
	defer closeServer()

	origin := OriginKey{Host: "h", Port: 80}
	c, err := p.Acquire(context.Background(), origin, dial)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if c == nil {
		t.Fatal("expected a connection")
	}
	if p.Count(origin) != 1 {
		t.Fatalf("Count = %d, want 1", p.Count(origin))
	}
}

func TestReleaseThenAcquireReusesConnection(t *testing.T) {
	p := New()
	dial, closeServer := pipeDialer(t)
	defer closeServer()

	origin := OriginKey{Host: "h", Port: 80}
	c1, err := p.Acquire(context.Background(), origin, dial)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	p.Release(c1, OutcomeReuse)
	if p.FreeLen(origin) != 1 {
		t.Fatalf("FreeLen = %d, want 1", p.FreeLen(origin))
	}

	c2, err := p.Acquire(context.Background(), origin, dial)
	if err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	if c2 != c1 {
		t.Fatalf("expected the pooled connection to be reused")
	}
	if p.FreeLen(origin) != 0 {
		t.Fatalf("FreeLen after reacquire = %d, want 0", p.FreeLen(origin))
	}
}

func TestReleaseCloseDiscardsConnection(t *testing.T) {
	p := New()
	dial, closeServer := pipeDialer(t)
	defer closeServer()

	origin := OriginKey{Host: "h", Port: 80}
	c, _ := p.Acquire(context.Background(), origin, dial)
	p.Release(c, OutcomeClose)
	if p.FreeLen(origin) != 0 {
		t.Fatalf("FreeLen = %d, want 0 after OutcomeClose", p.FreeLen(origin))
	}
	if p.Count(origin) != 0 {
		t.Fatalf("Count = %d, want 0 after OutcomeClose", p.Count(origin))
	}
}

func TestReleaseMarkBadDiscardsConnection(t *testing.T) {
	p := New()
	dial, closeServer := pipeDialer(t)
	defer closeServer()

	origin := OriginKey{Host: "h", Port: 80}
	c, _ := p.Acquire(context.Background(), origin, dial)
	c.MarkBad()
	p.Release(c, OutcomeReuse)
	if p.FreeLen(origin) != 0 {
		t.Fatalf("a not-known-good connection must never be re-pooled")
	}
}

func TestCloseRejectsFurtherAcquire(t *testing.T) {
	p := New()
	dial, closeServer := pipeDialer(t)
	defer closeServer()
	p.Close()

	origin := OriginKey{Host: "h", Port: 80}
	if _, err := p.Acquire(context.Background(), origin, dial); err != ErrClosed {
		t.Fatalf("got %v, want ErrClosed", err)
	}
}

func TestAcquireRespectsContextCancellation(t *testing.T) {
	p := New()
	origin := OriginKey{Host: "h", Port: 80}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	dial := func(ctx context.Context) (net.Conn, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	if _, err := p.Acquire(ctx, origin, dial); err == nil {
		t.Fatalf("expected context deadline error")
	}
}

func TestAcquireDiscardsStaleIdleConnectionAndRedials(t *testing.T) {
	p := New()
	origin := OriginKey{Host: "h", Port: 80}

	server, client := net.Pipe()
	dials := 0
	dial := func(ctx context.Context) (net.Conn, error) {
		dials++
		return client, nil
	}

	c1, err := p.Acquire(context.Background(), origin, dial)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	p.Release(c1, OutcomeReuse)
	if p.FreeLen(origin) != 1 {
		t.Fatalf("FreeLen = %d, want 1", p.FreeLen(origin))
	}

	// Close the peer so the idle connection's staleness peek observes
	// EOF instead of a read timeout.
	server.Close()

	server2, client2 := net.Pipe()
	defer server2.Close()
	go func() {
		buf := make([]byte, 512)
		for {
			if _, err := server2.Read(buf); err != nil {
				return
			}
		}
	}()
	dial = func(ctx context.Context) (net.Conn, error) {
		dials++
		return client2, nil
	}

	c2, err := p.Acquire(context.Background(), origin, dial)
	if err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	if c2 == c1 {
		t.Fatalf("expected the stale connection to be discarded, not reused")
	}
	if dials != 2 {
		t.Fatalf("dials = %d, want 2 (original + fresh dial after discarding the stale conn)", dials)
	}
	if p.FreeLen(origin) != 0 {
		t.Fatalf("FreeLen = %d, want 0 after discarding the stale conn", p.FreeLen(origin))
	}
}
