// Package cookiejar implements an RFC 6265 cookie store: parsing of
// Set-Cookie response headers, domain/path matching against outgoing
// request URLs, and serialization back into a Cookie request header.
package cookiejar

import "time"

// SameSite is the SameSite cookie attribute.
type SameSite int

const (
	SameSiteLax SameSite = iota
	SameSiteStrict
	SameSiteNone
)

// Cookie is one stored cookie. Expires is the zero Time for a session
// cookie (no Expires/Max-Age attribute was present).
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  time.Time
	Secure   bool
	HTTPOnly bool
	SameSite SameSite

	// HostOnly records whether Domain came from the request host (no
	// Domain attribute, or one that stripped to the host itself) rather
	// than an explicit Domain attribute, which changes domain matching.
	HostOnly bool

	created time.Time // insertion order tiebreak for serialization
}

// Expired reports whether the cookie has passed its expiry time. A
// session cookie (zero Expires) is never expired by this check.
func (c *Cookie) Expired(now time.Time) bool {
	return !c.Expires.IsZero() && now.After(c.Expires)
}

// key identifies a cookie for the jar's uniqueness constraint: the
// triple (name, domain, path).
type key struct {
	name, domain, path string
}

func (c *Cookie) key() key {
	return key{name: c.Name, domain: c.Domain, path: c.Path}
}
