package burl

import (
	"net/url"
	"time"

	"github.com/vinniefalco/burl/auth"
)

// RequestOptions carries the per-call overrides accepted by Session's
// request methods. Every field is independent and optional; a zero
// value means "use the session default". Headers are additive unless
// a name already present in the session defaults is repeated here, in
// which case the option's value overrides it.
type RequestOptions struct {
	Headers map[string][]string

	// JSON, if non-empty, becomes the request body with
	// Content-Type: application/json. Mutually exclusive with Data.
	JSON string `validate:"excluded_with=Data"`
	// Data, if non-empty, becomes the request body with
	// Content-Type: application/x-www-form-urlencoded. Mutually
	// exclusive with JSON.
	Data string `validate:"excluded_with=JSON"`

	Timeout      time.Duration `validate:"omitempty,gt=0"`
	MaxRedirects int           `validate:"omitempty,gte=0,lte=1000"`
	// MaxBodyBytes overrides the session's buffered-body cap for this
	// call. A pointer distinguishes "use the session default" (nil)
	// from an explicit 0, which disables the cap.
	MaxBodyBytes  *int64 `validate:"omitempty,gte=0"`
	AllowRedirect *bool
	Verify        *bool

	// Auth overrides the session's default auth scheme for this call
	// only. A non-nil value with a nil interior (*Basic)(nil) is not
	// meaningful and is rejected by validation.
	Auth auth.Scheme
}

// requestPlan is the mutable state threaded through the redirect
// engine: each hop reads and rewrites it in place before handing it to
// the pipeline for a single round trip.
type requestPlan struct {
	Method        string
	URL           *url.URL
	Header        Header
	Body          []byte
	Timeout       time.Duration
	MaxRedirects  int
	MaxBodyBytes  int64
	AllowRedirect bool
	Verify        bool
	Auth          auth.Scheme

	hopCount    int
	deadline    time.Time
	authRetried map[string]bool // per-URL 401-retry-once guard
}

func (p *requestPlan) markAuthRetried(u *url.URL) bool {
	key := u.String()
	if p.authRetried == nil {
		p.authRetried = make(map[string]bool)
	}
	if p.authRetried[key] {
		return false
	}
	p.authRetried[key] = true
	return true
}
