package auth

import (
	"context"

	"github.com/vinniefalco/burl/internal/wire"
)

// Bearer implements RFC 6750 bearer-token authentication.
type Bearer struct {
	Token string
}

// NewBearer returns a Bearer scheme for the given token.
func NewBearer(token string) *Bearer {
	return &Bearer{Token: token}
}

func (b *Bearer) Apply(ctx context.Context, req *wire.Request) error {
	req.Header.Set("Authorization", "Bearer "+b.Token)
	return nil
}

// HandleChallenge is a no-op: Bearer carries no server-issued state.
func (b *Bearer) HandleChallenge(resp ChallengeResponse) bool {
	return false
}

// Clone returns an independent copy of b.
func (b *Bearer) Clone() Scheme {
	return &Bearer{Token: b.Token}
}
