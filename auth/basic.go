package auth

import (
	"context"
	"encoding/base64"

	"github.com/vinniefalco/burl/internal/wire"
)

// Basic implements RFC 7617 Basic authentication.
type Basic struct {
	Username string
	Password string
}

// NewBasic returns a Basic scheme for the given credentials.
func NewBasic(username, password string) *Basic {
	return &Basic{Username: username, Password: password}
}

func (b *Basic) Apply(ctx context.Context, req *wire.Request) error {
	token := base64.StdEncoding.EncodeToString([]byte(b.Username + ":" + b.Password))
	req.Header.Set("Authorization", "Basic "+token)
	return nil
}

// HandleChallenge is a no-op: Basic carries no server-issued state.
func (b *Basic) HandleChallenge(resp ChallengeResponse) bool {
	return false
}

// Clone returns an independent copy of b.
func (b *Basic) Clone() Scheme {
	return &Basic{Username: b.Username, Password: b.Password}
}
