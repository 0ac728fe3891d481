package auth

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinniefalco/burl/internal/wire"
)

type fakeChallenge struct {
	status int
	header wire.Header
}

func (f *fakeChallenge) StatusCode() int            { return f.status }
func (f *fakeChallenge) ResponseHeader() wire.Header { return f.header }

func TestDigestHandleChallengeThenApply(t *testing.T) {
	d := NewDigest("u", "p")
	challenge := &fakeChallenge{
		status: 401,
		header: wire.Header{"Www-Authenticate": {`Digest realm="r", nonce="n", qop="auth"`}},
	}

	require.True(t, d.HandleChallenge(challenge))

	req := &wire.Request{Method: "GET", Target: "/a", Header: wire.Header{}}
	require.NoError(t, d.Apply(context.Background(), req))

	got := req.Header.Get("Authorization")
	re := regexp.MustCompile(`cnonce="([0-9a-f]{16})"`)
	m := re.FindStringSubmatch(got)
	require.Len(t, m, 2, "expected a 16-hex cnonce in %q", got)
	cnonce := m[1]

	ha1 := md5hex("u:r:p")
	ha2 := md5hex("GET:/a")
	wantResponse := md5hex(ha1 + ":n:00000001:" + cnonce + ":auth:" + ha2)

	assert.Contains(t, got, `response="`+wantResponse+`"`)
	assert.Contains(t, got, `username="u"`)
	assert.Contains(t, got, `realm="r"`)
	assert.Contains(t, got, `nonce="n"`)
	assert.Contains(t, got, "nc=00000001")
}

func TestDigestApplyWithoutChallengeIsNoop(t *testing.T) {
	d := NewDigest("u", "p")
	req := &wire.Request{Method: "GET", Target: "/a", Header: wire.Header{}}
	require.NoError(t, d.Apply(context.Background(), req))
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestDigestHandleChallengeIgnoresNon401(t *testing.T) {
	d := NewDigest("u", "p")
	challenge := &fakeChallenge{status: 200, header: wire.Header{}}
	assert.False(t, d.HandleChallenge(challenge))
}

func TestDigestRepeatedChallengeSameNonceDoesNotResetCounter(t *testing.T) {
	d := NewDigest("u", "p")
	challenge := &fakeChallenge{
		status: 401,
		header: wire.Header{"Www-Authenticate": {`Digest realm="r", nonce="n", qop="auth"`}},
	}
	require.True(t, d.HandleChallenge(challenge))
	req := &wire.Request{Method: "GET", Target: "/a", Header: wire.Header{}}
	require.NoError(t, d.Apply(context.Background(), req))
	assert.False(t, d.HandleChallenge(challenge), "same nonce should not be treated as a fresh challenge")
	require.NoError(t, d.Apply(context.Background(), req))
	assert.Contains(t, req.Header.Get("Authorization"), "nc=00000002")
}

func TestDigestCloneCarriesChallengeStateIndependently(t *testing.T) {
	d := NewDigest("u", "p")
	challenge := &fakeChallenge{
		status: 401,
		header: wire.Header{"Www-Authenticate": {`Digest realm="r", nonce="n", qop="auth"`}},
	}
	require.True(t, d.HandleChallenge(challenge))

	clone := d.Clone().(*Digest)

	req := &wire.Request{Method: "GET", Target: "/a", Header: wire.Header{}}
	require.NoError(t, clone.Apply(context.Background(), req))
	assert.NotEmpty(t, req.Header.Get("Authorization"), "clone should carry the captured challenge state")

	freshChallenge := &fakeChallenge{status: 401, header: wire.Header{"Www-Authenticate": {`Digest realm="r", nonce="n2", qop="auth"`}}}
	require.True(t, clone.HandleChallenge(freshChallenge))
	require.False(t, d.HandleChallenge(challenge), "original's nonce tracking must be unaffected by the clone's challenge")
}

func md5hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
