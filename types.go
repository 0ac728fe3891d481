// Package burl is a high-level HTTP/HTTPS client modeled on a
// "requests"-style API: a Session holds a connection pool, a cookie
// jar, and default headers/auth, and exposes method-named convenience
// calls that drive the build → send → parse → integrate pipeline and
// the redirect engine underneath it.
//
// The package does not implement HTTP/2, HTTP/3, multipart bodies,
// response decompression, or forward proxying; those are reserved
// extension points. All I/O is driven synchronously through
// context.Context deadlines rather than a push/callback model.
package burl

import "github.com/vinniefalco/burl/internal/wire"

// Header is a request or response header multimap, keyed by canonical
// MIME header name.
type Header = wire.Header

// NewHeader returns an empty Header.
func NewHeader() Header {
	return make(Header)
}
