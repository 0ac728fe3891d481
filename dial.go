package burl

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/url"
	"time"

	"github.com/vinniefalco/burl/internal/pool"
)

// dialError tags a dial-time failure with the Kind its phase maps to,
// so runRedirects can classify a pool.Acquire error without the pool
// package knowing anything about the taxonomy.
type dialError struct {
	kind  Kind
	cause error
}

func (e *dialError) Error() string { return e.cause.Error() }
func (e *dialError) Unwrap() error { return e.cause }

var errProxyNotImplemented = errors.New("burl: proxying is not implemented")

// dialerFor returns a pool.DialFunc that resolves and opens a TCP
// connection to origin, wrapping it in a TLS client handshake with SNI
// set to the origin's host when origin.TLS is true. verify overrides
// the session's certificate verification for this call only; it never
// mutates s.tlsConfig.
func (s *Session) dialerFor(origin pool.OriginKey, verify bool) pool.DialFunc {
	return func(ctx context.Context) (net.Conn, error) {
		if s.Proxy != nil {
			target := &url.URL{Scheme: schemeFor(origin), Host: origin.Addr()}
			proxyURL, err := s.Proxy(target)
			if err != nil {
				return nil, &dialError{kind: KindConnectionFailed, cause: err}
			}
			if proxyURL != nil {
				return nil, &dialError{kind: KindNotImplemented, cause: errProxyNotImplemented}
			}
		}

		if _, err := net.DefaultResolver.LookupHost(ctx, origin.Host); err != nil {
			return nil, &dialError{kind: KindResolveFailed, cause: err}
		}

		d := net.Dialer{Timeout: s.dialTimeout()}
		conn, err := d.DialContext(ctx, "tcp", origin.Addr())
		if err != nil {
			return nil, &dialError{kind: KindConnectionFailed, cause: err}
		}
		if !origin.TLS {
			return conn, nil
		}

		cfg := s.tlsConfigFor(origin, verify)
		tlsConn := tls.Client(conn, cfg)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = conn.Close()
			return nil, &dialError{kind: KindTLSHandshakeFailed, cause: err}
		}
		return tlsConn, nil
	}
}

// tlsConfigFor builds the TLS configuration for one dial: a clone of
// the session's configured tls.Config (or a fresh zero-value one) with
// SNI and ALPN filled in if unset, and InsecureSkipVerify set from
// verify without ever touching the session's shared config.
func (s *Session) tlsConfigFor(origin pool.OriginKey, verify bool) *tls.Config {
	var cfg *tls.Config
	if s.tlsConfig != nil {
		cfg = s.tlsConfig.Clone()
	} else {
		cfg = &tls.Config{}
	}
	if cfg.ServerName == "" {
		cfg.ServerName = origin.Host
	}
	if len(cfg.NextProtos) == 0 {
		// The core speaks HTTP/1.1 only; pin ALPN so a server that
		// would otherwise negotiate h2 doesn't surprise the codec.
		cfg.NextProtos = []string{"http/1.1"}
	}
	cfg.InsecureSkipVerify = !verify
	return cfg
}

func (s *Session) dialTimeout() time.Duration {
	if s.DialTimeout > 0 {
		return s.DialTimeout
	}
	return 30 * time.Second
}

func schemeFor(origin pool.OriginKey) string {
	if origin.TLS {
		return "https"
	}
	return "http"
}

// wrapDialErr classifies the error returned by pool.Acquire (which may
// be a *dialError from dialerFor, pool.ErrClosed, a context error, or
// anything else a custom DialFunc might one day return) into a *Error
// with the right Kind.
func wrapDialErr(rawURL string, err error) error {
	var de *dialError
	if errors.As(err, &de) {
		return newError(de.kind, rawURL, de.cause)
	}
	switch {
	case errors.Is(err, pool.ErrClosed):
		return newError(KindConnectionClosed, rawURL, err)
	case errors.Is(err, context.DeadlineExceeded):
		return newError(KindTimeout, rawURL, err)
	case errors.Is(err, context.Canceled):
		return newError(KindCancelled, rawURL, err)
	}
	return newError(KindConnectionFailed, rawURL, err)
}
