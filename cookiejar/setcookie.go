package cookiejar

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// parseSetCookie parses one Set-Cookie header value per RFC 6265 §5.2.
// It returns (nil, nil) when the cookie is well-formed but rejected by
// the domain check, and a non-nil error only for a structurally
// malformed value (missing name=value pair).
func parseSetCookie(raw string, reqURL *url.URL) (*Cookie, error) {
	parts := strings.Split(raw, ";")
	nv := strings.TrimSpace(parts[0])
	eq := strings.IndexByte(nv, '=')
	if eq < 0 {
		return nil, errMalformedSetCookie
	}
	c := &Cookie{
		Name:  strings.TrimSpace(nv[:eq]),
		Value: strings.TrimSpace(nv[eq+1:]),
		// SameSite defaults to Lax per RFC 6265bis when the attribute is
		// absent, matching the behavior of modern browsers.
		SameSite: SameSiteLax,
	}

	var maxAgeSeen bool
	for _, attr := range parts[1:] {
		attr = strings.TrimSpace(attr)
		if attr == "" {
			continue
		}
		var name, val string
		if eq := strings.IndexByte(attr, '='); eq >= 0 {
			name = strings.TrimSpace(attr[:eq])
			val = strings.TrimSpace(attr[eq+1:])
		} else {
			name = attr
		}
		switch strings.ToLower(name) {
		case "expires":
			if maxAgeSeen {
				continue // Max-Age takes precedence over Expires.
			}
			if t, err := parseCookieDate(val); err == nil {
				c.Expires = t
			}
		case "max-age":
			n, err := strconv.Atoi(val)
			if err != nil {
				continue
			}
			maxAgeSeen = true
			if n <= 0 {
				c.Expires = time.Unix(0, 1) // immediately expired
			} else {
				c.Expires = time.Now().Add(time.Duration(n) * time.Second)
			}
		case "domain":
			d := strings.TrimPrefix(val, ".")
			c.Domain = strings.ToLower(d)
		case "path":
			c.Path = val
		case "secure":
			c.Secure = true
		case "httponly":
			c.HTTPOnly = true
		case "samesite":
			switch strings.ToLower(val) {
			case "strict":
				c.SameSite = SameSiteStrict
			case "none":
				c.SameSite = SameSiteNone
			default:
				c.SameSite = SameSiteLax
			}
		}
	}

	host := strings.ToLower(reqURL.Hostname())
	if c.Domain == "" {
		c.Domain = host
		c.HostOnly = true
	} else if c.Domain == host {
		c.HostOnly = true
	} else {
		if !strings.HasSuffix(host, "."+c.Domain) {
			// Domain is not a suffix of the request host: reject per
			// §5.3 step 11.
			return nil, nil
		}
		c.HostOnly = false
	}

	if c.Path == "" {
		c.Path = defaultPath(reqURL.Path)
	}

	return c, nil
}

// defaultPath implements RFC 6265 §5.1.4's default-path algorithm.
func defaultPath(uriPath string) string {
	if uriPath == "" || uriPath[0] != '/' {
		return "/"
	}
	i := strings.LastIndexByte(uriPath, '/')
	if i == 0 {
		return "/"
	}
	return uriPath[:i]
}

// parseCookieDate accepts the three formats permitted by RFC 6265
// §5.1.1 (IMF-fixdate, RFC 850, and ANSI C asctime), delegating to
// net/http's cookie-date parser since it already covers exactly that
// set and no third-party library in use elsewhere in this module
// narrows or improves on it.
func parseCookieDate(s string) (time.Time, error) {
	return http.ParseTime(s)
}

var errMalformedSetCookie = &malformedError{"cookiejar: malformed Set-Cookie value"}

type malformedError struct{ msg string }

func (e *malformedError) Error() string { return e.msg }
