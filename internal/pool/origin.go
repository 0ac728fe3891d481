package pool

import (
	"net/url"
	"strconv"
	"strings"
)

// OriginKey partitions the connection pool by (host, port, TLS), per the
// data model's "Origin key". Equality is case-insensitive on host; the
// default port is derived from scheme when the URL does not specify one.
type OriginKey struct {
	Host string
	Port int
	TLS  bool
}

// NewOriginKey derives the origin key for u, case-folding the host and
// defaulting the port to 80 (http) or 443 (https) when absent.
func NewOriginKey(u *url.URL) OriginKey {
	host := strings.ToLower(u.Hostname())
	tls := strings.EqualFold(u.Scheme, "https")
	port := 0
	if p := u.Port(); p != "" {
		port, _ = strconv.Atoi(p)
	}
	if port == 0 {
		if tls {
			port = 443
		} else {
			port = 80
		}
	}
	return OriginKey{Host: host, Port: port, TLS: tls}
}

// Addr returns the "host:port" dial address for the origin.
func (k OriginKey) Addr() string {
	return k.Host + ":" + strconv.Itoa(k.Port)
}

func (k OriginKey) String() string {
	scheme := "http"
	if k.TLS {
		scheme = "https"
	}
	return scheme + "://" + k.Addr()
}
