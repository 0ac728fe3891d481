package cookiejar

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestCookieRoundTrip(t *testing.T) {
	j := New()
	j.Set(Cookie{Name: "s", Value: "1", Domain: "h", Path: "/", HostOnly: true})

	header := j.SerializeHeader(mustURL(t, "http://h/"))
	assert.Equal(t, "s=1", header)
}

func TestDomainSuffixMatching(t *testing.T) {
	j := New()
	j.Set(Cookie{Name: "a", Value: "1", Domain: "example.com", Path: "/"})

	assert.NotEmpty(t, j.GetFor(mustURL(t, "http://example.com/")))
	assert.NotEmpty(t, j.GetFor(mustURL(t, "http://api.example.com/")))
	assert.Empty(t, j.GetFor(mustURL(t, "http://notexample.com/")))
	assert.Empty(t, j.GetFor(mustURL(t, "http://example.com.evil.com/")))
}

func TestSecureCookieRequiresHTTPS(t *testing.T) {
	j := New()
	j.Set(Cookie{Name: "s", Value: "1", Domain: "h", Path: "/", Secure: true, HostOnly: true})

	assert.Empty(t, j.GetFor(mustURL(t, "http://h/")))
	assert.NotEmpty(t, j.GetFor(mustURL(t, "https://h/")))
}

func TestInsertionReplacesSameTriple(t *testing.T) {
	j := New()
	j.Set(Cookie{Name: "a", Value: "1", Domain: "h", Path: "/", HostOnly: true})
	j.Set(Cookie{Name: "a", Value: "2", Domain: "h", Path: "/", HostOnly: true})

	require.Equal(t, 1, j.Size())
	assert.Equal(t, "a=2", j.SerializeHeader(mustURL(t, "http://h/")))
}

func TestOrderingByPathLengthThenInsertion(t *testing.T) {
	j := New()
	j.Set(Cookie{Name: "first", Value: "1", Domain: "h", Path: "/", HostOnly: true})
	j.Set(Cookie{Name: "second", Value: "2", Domain: "h", Path: "/a", HostOnly: true})
	j.Set(Cookie{Name: "third", Value: "3", Domain: "h", Path: "/a", HostOnly: true})

	got := j.SerializeHeader(mustURL(t, "http://h/a/b"))
	assert.Equal(t, "second=2; third=3; first=1", got)
}

func TestSetFromHeaderParsesAttributes(t *testing.T) {
	j := New()
	err := j.SetFromHeader(`token=abc; Path=/api; Secure; HttpOnly; SameSite=Strict`, mustURL(t, "http://h/x/y"))
	require.NoError(t, err)

	cookies := j.GetFor(mustURL(t, "https://h/api/thing"))
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "abc", c.Value)
	assert.True(t, c.Secure)
	assert.True(t, c.HTTPOnly)
	assert.Equal(t, SameSiteStrict, c.SameSite)
}

func TestSetFromHeaderDefaultsSameSiteLax(t *testing.T) {
	j := New()
	require.NoError(t, j.SetFromHeader("a=1", mustURL(t, "http://h/")))
	cookies := j.GetFor(mustURL(t, "http://h/"))
	require.Len(t, cookies, 1)
	assert.Equal(t, SameSiteLax, cookies[0].SameSite)
}

func TestSetFromHeaderRejectsForeignDomain(t *testing.T) {
	j := New()
	err := j.SetFromHeader("a=1; Domain=evil.com", mustURL(t, "http://h/"))
	require.NoError(t, err) // malformed-domain rejection is silent, not an error
	assert.Zero(t, j.Size())
}

func TestSetFromHeaderMaxAgeNegativeExpiresImmediately(t *testing.T) {
	j := New()
	require.NoError(t, j.SetFromHeader("a=1; Max-Age=-1", mustURL(t, "http://h/"))) //nolint:errcheck
	assert.Empty(t, j.GetFor(mustURL(t, "http://h/")))
}

func TestRemoveExpired(t *testing.T) {
	j := New()
	j.Set(Cookie{Name: "a", Value: "1", Domain: "h", Path: "/", Expires: time.Now().Add(-time.Hour)})
	j.Set(Cookie{Name: "b", Value: "2", Domain: "h", Path: "/"})
	j.RemoveExpired()
	assert.Equal(t, 1, j.Size())
}

func TestClearEmptiesJar(t *testing.T) {
	j := New()
	j.Set(Cookie{Name: "a", Value: "1", Domain: "h", Path: "/"})
	j.Clear()
	assert.Zero(t, j.Size())
}
