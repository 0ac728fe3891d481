package burl

import (
	"io"

	"github.com/vinniefalco/burl/internal/pool"
)

// connReleasingBody couples a streamed response body's lifetime to the
// connection it was read from: draining to EOF releases the connection
// for reuse (subject to keepAlive), while an early Close discards it,
// since the pipeline cannot know how much of the wire is unread.
type connReleasingBody struct {
	inner     io.ReadCloser
	pool      *pool.Pool
	conn      *pool.Connection
	keepAlive bool
	drained   bool
	released  bool
}

func (b *connReleasingBody) Read(p []byte) (int, error) {
	n, err := b.inner.Read(p)
	if err == io.EOF {
		b.drained = true
		if !b.released {
			outcome := pool.OutcomeClose
			if b.keepAlive {
				outcome = pool.OutcomeReuse
			}
			b.pool.Release(b.conn, outcome)
			b.released = true
		}
	}
	return n, err
}

func (b *connReleasingBody) Close() error {
	err := b.inner.Close()
	if !b.released {
		outcome := pool.OutcomeClose
		if b.drained && b.keepAlive {
			outcome = pool.OutcomeReuse
		}
		b.pool.Release(b.conn, outcome)
		b.released = true
	}
	return err
}
