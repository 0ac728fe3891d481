package cookiejar

import (
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// Jar is a thread-safe RFC 6265 cookie store, keyed by (name, domain,
// path). Inserting a cookie that collides on that triple replaces the
// existing entry in place, preserving neither's original insertion
// time: the replacement is treated as newly inserted.
type Jar struct {
	mu      sync.Mutex
	entries map[key]*Cookie
	seq     int64
}

// New returns an empty Jar.
func New() *Jar {
	return &Jar{entries: make(map[key]*Cookie)}
}

// Set inserts or replaces c.
func (j *Jar) Set(c Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.seq++
	c.created = time.Unix(0, j.seq)
	j.entries[c.key()] = &c
}

// SetFromHeader parses one Set-Cookie header value as seen in a
// response to reqURL and stores the resulting cookie, unless RFC 6265
// §5.3's domain rejection applies. A parse error returns a non-nil
// error and stores nothing.
func (j *Jar) SetFromHeader(raw string, reqURL *url.URL) error {
	c, err := parseSetCookie(raw, reqURL)
	if err != nil {
		return err
	}
	if c == nil {
		// Rejected by a domain check; RFC 6265 says to silently ignore.
		return nil
	}
	j.Set(*c)
	return nil
}

// GetFor returns the cookies applicable to reqURL, ordered by path
// length descending, ties broken by insertion order (oldest first).
func (j *Jar) GetFor(reqURL *url.URL) []Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	host := strings.ToLower(reqURL.Hostname())
	path := reqURL.Path
	if path == "" {
		path = "/"
	}
	isHTTPS := strings.EqualFold(reqURL.Scheme, "https")

	var out []*Cookie
	for _, c := range j.entries {
		if c.Expired(now) {
			continue
		}
		if !domainMatch(host, c.Domain, c.HostOnly) {
			continue
		}
		if !pathMatch(path, c.Path) {
			continue
		}
		if c.Secure && !isHTTPS {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, k int) bool {
		if len(out[i].Path) != len(out[k].Path) {
			return len(out[i].Path) > len(out[k].Path)
		}
		return out[i].created.Before(out[k].created)
	})
	res := make([]Cookie, len(out))
	for i, c := range out {
		res[i] = *c
	}
	return res
}

// SerializeHeader joins the cookies applicable to reqURL into a Cookie
// header value. It returns the empty string when nothing matches, in
// which case the caller should omit the header entirely.
func (j *Jar) SerializeHeader(reqURL *url.URL) string {
	cookies := j.GetFor(reqURL)
	if len(cookies) == 0 {
		return ""
	}
	parts := make([]string, len(cookies))
	for i, c := range cookies {
		parts[i] = c.Name + "=" + c.Value
	}
	return strings.Join(parts, "; ")
}

// Remove deletes the cookie matching (name, domain, path). If path is
// empty, every cookie matching (name, domain) regardless of path is
// removed.
func (j *Jar) Remove(name, domain, path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if path != "" {
		delete(j.entries, key{name: name, domain: domain, path: path})
		return
	}
	for k := range j.entries {
		if k.name == name && k.domain == domain {
			delete(j.entries, k)
		}
	}
}

// RemoveExpired drops every cookie that has expired as of now.
func (j *Jar) RemoveExpired() {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	for k, c := range j.entries {
		if c.Expired(now) {
			delete(j.entries, k)
		}
	}
}

// Clear empties the jar.
func (j *Jar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = make(map[key]*Cookie)
}

// Size returns the number of cookies currently stored, expired or not.
func (j *Jar) Size() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

// domainMatch implements RFC 6265 §5.1.3: exact match for a host-only
// cookie, or suffix-with-leading-dot match otherwise.
func domainMatch(host, cookieDomain string, hostOnly bool) bool {
	if hostOnly {
		return strings.EqualFold(host, cookieDomain)
	}
	if strings.EqualFold(host, cookieDomain) {
		return true
	}
	return strings.HasSuffix(strings.ToLower(host), "."+strings.ToLower(cookieDomain))
}

// pathMatch implements RFC 6265 §5.1.4.
func pathMatch(reqPath, cookiePath string) bool {
	if reqPath == cookiePath {
		return true
	}
	if strings.HasPrefix(reqPath, cookiePath) {
		if strings.HasSuffix(cookiePath, "/") {
			return true
		}
		if strings.HasPrefix(reqPath[len(cookiePath):], "/") {
			return true
		}
	}
	return false
}
