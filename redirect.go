package burl

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vinniefalco/burl/internal/obs"
	"github.com/vinniefalco/burl/internal/pool"
)

type tooManyRedirectsErr struct{}

func (tooManyRedirectsErr) Error() string { return "burl: too many redirects" }

var errTooManyRedirects error = tooManyRedirectsErr{}

// runRedirects drives the redirect engine: it repeatedly asks the pool
// for a connection matching the plan's current origin, runs one hop,
// feeds the response into the cookie jar and auth state (via runHop),
// and either terminates or rewrites the plan for the next hop.
func (s *Session) runRedirects(ctx context.Context, plan *requestPlan, streamed bool) (*Response, error) {
	if plan.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, plan.Timeout)
		defer cancel()
	}

	var history []*Response
	var conn *pool.Connection
	var curOrigin pool.OriginKey
	haveOrigin := false
	attempt := 0

	releaseConn := func(keepAlive bool) {
		if conn == nil {
			return
		}
		outcome := pool.OutcomeClose
		if keepAlive {
			outcome = pool.OutcomeReuse
		}
		s.pool.Release(conn, outcome)
		conn = nil
	}

	for {
		if err := ctx.Err(); err != nil {
			releaseConn(false)
			return nil, classifyCtxErr(ctx, plan.URL.String())
		}

		origin := pool.NewOriginKey(plan.URL)
		if conn == nil || !haveOrigin || origin != curOrigin {
			releaseConn(false)
			var err error
			conn, err = s.pool.Acquire(ctx, origin, s.dialerFor(origin, plan.Verify))
			if err != nil {
				s.logger.Logf(obs.Warn, "connect failed for %s: %v", origin, err)
				s.meter.Counter("burl.connect.errors", 1, obs.Label{Key: "origin", Value: origin.String()})
				return nil, wrapDialErr(plan.URL.String(), err)
			}
			curOrigin = origin
			haveOrigin = true
		}

		attempt++
		hopCtx, span := startAttempt(ctx, plan.Method, plan.URL.String(), attempt)

		result, staleWrite, err := s.runHop(hopCtx, conn, plan, streamed)
		if staleWrite {
			releaseConn(false)
			conn, err = s.pool.Acquire(ctx, origin, s.dialerFor(origin, plan.Verify))
			if err != nil {
				span.End()
				return nil, wrapDialErr(plan.URL.String(), err)
			}
			result, _, err = s.runHop(hopCtx, conn, plan, streamed)
		}
		if err != nil {
			span.End()
			releaseConn(false)
			return nil, err
		}

		resp := result.resp
		span.SetAttributes(attribute.Int("http.status_code", resp.Code))
		span.End()

		if resp.Code == 401 && plan.Auth != nil && plan.markAuthRetried(plan.URL) {
			if plan.Auth.HandleChallenge(resp) {
				s.logger.Logf(obs.Debug, "retrying %s %s after 401 challenge", plan.Method, plan.URL)
				s.meter.Counter("burl.auth.retries", 1)
				if !result.keepAlive {
					releaseConn(false)
					conn, err = s.pool.Acquire(ctx, origin, s.dialerFor(origin, plan.Verify))
					if err != nil {
						return nil, wrapDialErr(plan.URL.String(), err)
					}
				}
				continue
			}
		}

		resp.FinalURL = plan.URL.String()

		if !plan.AllowRedirect || !isRedirectStatus(resp.Code) || resp.Header.Get("Location") == "" {
			s.meter.Counter("burl.requests.completed", 1, obs.Label{Key: "status", Value: resp.Status})
			resp.History = history
			if streamed {
				resp.Body = &connReleasingBody{inner: resp.Body, pool: s.pool, conn: conn, keepAlive: result.keepAlive}
				conn = nil
			} else {
				releaseConn(result.keepAlive)
			}
			return resp, nil
		}

		if plan.hopCount >= plan.MaxRedirects {
			s.meter.Counter("burl.redirects.exceeded", 1)
			releaseConn(false)
			return nil, newError(KindTooManyRedirects, plan.URL.String(), errTooManyRedirects)
		}

		loc := resp.Header.Get("Location")
		nextURL, perr := plan.URL.Parse(loc)
		if perr != nil {
			releaseConn(false)
			return nil, newError(KindInvalidResponse, plan.URL.String(), perr)
		}

		s.logger.Logf(obs.Debug, "%d redirect %s -> %s", resp.Code, plan.URL, nextURL)
		s.meter.Counter("burl.redirects.followed", 1)
		history = append(history, resp)

		crossOrigin := !sameOrigin(plan.URL, nextURL)
		schemeChanged := plan.URL.Scheme != nextURL.Scheme

		rewriteMethodAndBody(plan, resp.Code)

		if crossOrigin && !s.allowCrossOriginAuth {
			plan.Header.Del("Authorization")
			plan.Auth = nil
		}

		newOrigin := pool.NewOriginKey(nextURL)
		plan.URL = nextURL
		plan.hopCount++

		switch {
		case schemeChanged:
			releaseConn(false)
		case newOrigin != origin:
			releaseConn(result.keepAlive)
		case !result.keepAlive:
			releaseConn(false)
		}
		// else: same scheme, same origin, keep-alive — keep conn for reuse.
	}
}

func isRedirectStatus(code int) bool {
	switch code {
	case 301, 302, 303, 307, 308:
		return true
	default:
		return false
	}
}

func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) && strings.EqualFold(a.Host, b.Host)
}

// rewriteMethodAndBody applies the method-rewrite table: 303 always
// becomes GET with no body (HEAD is left alone); a POST redirected by
// 301/302 becomes GET with no body (the long-standing browser-
// compatible default), any other method/status combination is
// preserved verbatim; 307/308 always preserve both.
func rewriteMethodAndBody(plan *requestPlan, code int) {
	switch code {
	case 303:
		if plan.Method != "HEAD" {
			plan.Method = "GET"
		}
		plan.Body = nil
		plan.Header.Del("Content-Type")
		plan.Header.Del("Content-Length")
	case 301, 302:
		if plan.Method == "POST" {
			plan.Method = "GET"
			plan.Body = nil
			plan.Header.Del("Content-Type")
			plan.Header.Del("Content-Length")
		}
	}
}

func classifyCtxErr(ctx context.Context, u string) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, u, err)
	}
	return newError(KindCancelled, u, err)
}
