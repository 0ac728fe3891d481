// Package auth implements the credential applicators attached to a
// session or a single request: Basic, Bearer, and RFC 7616 Digest.
package auth

import (
	"context"

	"github.com/vinniefalco/burl/internal/wire"
)

// ChallengeResponse is the minimal view of an HTTP response a Scheme
// needs to absorb a 401 challenge. The root response type satisfies
// this structurally; auth has no import on it, which keeps auth and
// the root package from forming a cycle.
type ChallengeResponse interface {
	StatusCode() int
	ResponseHeader() wire.Header
}

// Scheme is a polymorphic credential applicator. Basic and Bearer
// ignore HandleChallenge entirely (their implementations always return
// false); Digest uses it to capture server challenge state.
type Scheme interface {
	// Apply attaches credentials to req, mutating its Header.
	Apply(ctx context.Context, req *wire.Request) error

	// HandleChallenge inspects a 401 response and reports whether the
	// caller should retry the same request now that state has been
	// updated. It is called only when the response status is 401.
	HandleChallenge(resp ChallengeResponse) (needsRetry bool)

	// Clone returns an independent copy of the scheme, including any
	// captured challenge state, so a caller can hand the same
	// credentials to a session default and a per-request override
	// without either mutating the other's retry state.
	Clone() Scheme
}
