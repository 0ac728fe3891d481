package burl

import (
	"context"
	"crypto/tls"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/vinniefalco/burl/auth"
	"github.com/vinniefalco/burl/cookiejar"
	"github.com/vinniefalco/burl/internal/obs"
	"github.com/vinniefalco/burl/internal/pool"
)

// DefaultMaxRedirects, DefaultTimeout, and DefaultMaxBodyBytes match the
// session defaults described for the client core.
const (
	DefaultMaxRedirects = 30
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = 10 << 20 // 10 MiB
)

// Session owns a connection pool, a cookie jar, and a set of defaults
// shared across calls. It makes no thread-safety promises for
// concurrent use of the same instance beyond Close, which may race
// safely with in-flight requests; callers needing concurrent traffic
// on shared state must serialize their own calls or use one Session
// per goroutine.
type Session struct {
	DialTimeout time.Duration

	pool *pool.Pool
	jar  *cookiejar.Jar

	defaultHeader        Header
	defaultAuth          auth.Scheme
	tlsConfig            *tls.Config
	maxRedirects         int
	defaultTimeout       time.Duration
	maxBodyBytes         int64
	verify               bool
	allowCrossOriginAuth bool
	logger               obs.Logger
	meter                obs.Meter

	// Proxy is a reserved extension point mirroring the teacher's
	// ProxyFromEnvironment-style hook. If set and it resolves a URL to a
	// non-nil proxy for a given request, dialing fails with
	// KindNotImplemented rather than silently connecting directly: this
	// core has no proxy transport. Returning (nil, nil) means "no proxy
	// for this URL" and dialing proceeds normally.
	Proxy func(*url.URL) (*url.URL, error)

	mu     sync.Mutex
	closed bool
}

// Option configures a Session at construction time.
type Option func(*Session)

// WithHeader sets a default header sent with every request unless a
// call's RequestOptions overrides it.
func WithHeader(key, value string) Option {
	return func(s *Session) { s.defaultHeader.Set(key, value) }
}

// WithCookieJar installs j as the session's cookie jar, replacing the
// one created by New.
func WithCookieJar(j *cookiejar.Jar) Option {
	return func(s *Session) { s.jar = j }
}

// WithAuth sets the session's default auth scheme.
func WithAuth(scheme auth.Scheme) Option {
	return func(s *Session) { s.defaultAuth = scheme }
}

// WithTLSConfig sets the TLS configuration used for https origins.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(s *Session) { s.tlsConfig = cfg }
}

// WithMaxRedirects overrides DefaultMaxRedirects.
func WithMaxRedirects(n int) Option {
	return func(s *Session) { s.maxRedirects = n }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.defaultTimeout = d }
}

// WithVerify sets whether TLS server certificates are verified. It
// defaults to true; passing false is equivalent to setting
// InsecureSkipVerify and should be reserved for local testing.
func WithVerify(v bool) Option {
	return func(s *Session) { s.verify = v }
}

// WithDialTimeout overrides the per-dial timeout (default 30s).
func WithDialTimeout(d time.Duration) Option {
	return func(s *Session) { s.DialTimeout = d }
}

// WithCrossOriginAuth allows Authorization headers and plan.Auth to
// survive a cross-origin redirect hop. It defaults to false.
func WithCrossOriginAuth(allow bool) Option {
	return func(s *Session) { s.allowCrossOriginAuth = allow }
}

// WithLogger installs l to receive diagnostic lines for connect
// failures, redirect hops, and auth retries. It defaults to a
// NopLogger.
func WithLogger(l obs.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithMeter installs m to receive request/redirect/error counters. It
// defaults to a NopMeter.
func WithMeter(m obs.Meter) Option {
	return func(s *Session) { s.meter = m }
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes, the cap on a buffered
// response body. A call's RequestOptions.MaxBodyBytes may override this
// per request. Passing 0 disables the cap.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Session) { s.maxBodyBytes = n }
}

// WithProxy installs a proxy resolver. See the Proxy field doc comment.
func WithProxy(p func(*url.URL) (*url.URL, error)) Option {
	return func(s *Session) { s.Proxy = p }
}

// New constructs a Session with the given options applied over the
// package defaults.
func New(opts ...Option) *Session {
	s := &Session{
		pool:           pool.New(),
		jar:            cookiejar.New(),
		defaultHeader:  NewHeader(),
		maxRedirects:   DefaultMaxRedirects,
		defaultTimeout: DefaultTimeout,
		maxBodyBytes:   DefaultMaxBodyBytes,
		verify:         true,
		logger:         obs.NopLogger{},
		meter:          obs.NopMeter{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Jar returns the session's cookie jar, for direct inspection or
// mutation between calls.
func (s *Session) Jar() *cookiejar.Jar { return s.jar }

// Close drops all pooled connections and forbids further requests.
func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.pool.Close()
	return nil
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Request issues one logical call, following redirects per the
// session's MaxRedirects unless overridden, and returns a Response
// with its Body fully buffered.
func (s *Session) Request(ctx context.Context, method, rawURL string, opts *RequestOptions) (*Response, error) {
	return s.doRequest(ctx, method, rawURL, opts, false)
}

// RequestStreamed behaves like Request but returns a Response whose
// Body is a lazy, single-pass sequence of byte chunks coupled to the
// underlying connection; the caller must drain or Close it.
func (s *Session) RequestStreamed(ctx context.Context, method, rawURL string, opts *RequestOptions) (*Response, error) {
	return s.doRequest(ctx, method, rawURL, opts, true)
}

func (s *Session) doRequest(ctx context.Context, method, rawURL string, opts *RequestOptions, streamed bool) (*Response, error) {
	if s.isClosed() {
		return nil, newError(KindConnectionClosed, rawURL, errClosed)
	}
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	plan, err := s.buildPlan(strings.ToUpper(method), rawURL, opts)
	if err != nil {
		return nil, err
	}
	return s.runRedirects(ctx, plan, streamed)
}

func (s *Session) Get(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return s.Request(ctx, "GET", url, opts)
}

func (s *Session) Post(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return s.Request(ctx, "POST", url, opts)
}

func (s *Session) Put(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return s.Request(ctx, "PUT", url, opts)
}

func (s *Session) Patch(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return s.Request(ctx, "PATCH", url, opts)
}

func (s *Session) Delete(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return s.Request(ctx, "DELETE", url, opts)
}

func (s *Session) Head(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return s.Request(ctx, "HEAD", url, opts)
}

func (s *Session) Options(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return s.Request(ctx, "OPTIONS", url, opts)
}

func (s *Session) GetStreamed(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return s.RequestStreamed(ctx, "GET", url, opts)
}

func (s *Session) PostStreamed(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return s.RequestStreamed(ctx, "POST", url, opts)
}

type closedErr struct{}

func (closedErr) Error() string { return "burl: session closed" }

var errClosed error = closedErr{}
