package burl

import (
	"bytes"
	"context"
	"io"
	"net/url"

	"github.com/vinniefalco/burl/internal/pool"
	"github.com/vinniefalco/burl/internal/wire"
)

// materializeRequest builds the wire-level request for one hop: method,
// target, Host, merged headers, the Cookie header computed from the
// jar (unless the plan already set one), and the body.
func (s *Session) materializeRequest(plan *requestPlan) *wire.Request {
	header := cloneHeader(plan.Header)
	if header.Get("Cookie") == "" {
		if ck := s.jar.SerializeHeader(plan.URL); ck != "" {
			header.Set("Cookie", ck)
		}
	}
	target := plan.URL.RequestURI()
	req := &wire.Request{
		Method: plan.Method,
		Target: target,
		Host:   plan.URL.Host,
		Header: header,
	}
	if len(plan.Body) > 0 {
		req.Body = bytes.NewReader(plan.Body)
		req.ContentLength = int64(len(plan.Body))
	} else {
		req.ContentLength = 0
	}
	return req
}

// writeRequest serializes req onto conn and flushes it. Any error here
// happens before a single byte of the response has been read, which
// is what makes the stale-socket retry in runHop safe: nothing from
// this attempt has been observed by the caller yet.
func writeRequest(conn *pool.Connection, req *wire.Request) error {
	return wire.WriteRequest(conn.BW, req)
}

// hopResult is the outcome of one successful send+receive, before the
// redirect engine decides what to do with the connection.
type hopResult struct {
	resp      *Response
	keepAlive bool
}

func readResponse(req *wire.Request, conn *pool.Connection, streamed bool, maxBodyBytes int64, onHeaders func(Header)) (*hopResult, error) {
	rr := &wire.Reader{BR: conn.BR}
	sl, err := rr.ReadStatusLine()
	if err != nil {
		return nil, newError(KindInvalidResponse, "", err)
	}
	h, err := rr.ReadHeaders()
	if err != nil {
		return nil, newError(KindInvalidResponse, "", err)
	}
	onHeaders(h)
	framing, length, err := wire.DecideFraming(req.Method, sl.Code, h)
	if err != nil {
		return nil, newError(KindInvalidResponse, "", err)
	}
	body := wire.NewBody(framing, length, conn.BR, wire.DefaultMaxHeaderBytes)
	keepAlive := wire.KeepAlive(sl.Proto, req.Header, h) && framing != wire.FramingUntilClose

	resp := &Response{
		Status:        sl.Reason,
		Code:          sl.Code,
		Proto:         sl.Proto,
		Header:        h,
		Body:          body,
		ContentLength: length,
	}

	if !streamed {
		var r io.Reader = body
		if maxBodyBytes > 0 {
			r = io.LimitReader(body, maxBodyBytes+1)
		}
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, newError(KindInvalidResponse, "", err)
		}
		if maxBodyBytes > 0 && int64(len(b)) > maxBodyBytes {
			_ = body.Close()
			return nil, newError(KindBodyTooLarge, "", wire.ErrBodyTooLarge)
		}
		if err := body.Close(); err != nil {
			return nil, newError(KindInvalidResponse, "", err)
		}
		resp.Body = io.NopCloser(bytes.NewReader(b))
		resp.buffered = b
		resp.isBuffer = true
	}

	return &hopResult{resp: resp, keepAlive: keepAlive}, nil
}

// runHop executes exactly one request/response round trip for plan
// against conn: materialize, apply auth, send, receive headers,
// integrate Set-Cookie, and (for buffered calls) receive the body.
//
// If the write fails without any response byte having been read, the
// connection is assumed stale and the caller is told so it can
// transparently reacquire and retry exactly once; this function itself
// never retries.
func (s *Session) runHop(ctx context.Context, conn *pool.Connection, plan *requestPlan, streamed bool) (*hopResult, bool /*staleWrite*/, error) {
	req := s.materializeRequest(plan)
	injectTraceContext(ctx, req.Header)
	if plan.Auth != nil {
		if err := plan.Auth.Apply(ctx, req); err != nil {
			return nil, false, newError(KindUnknown, plan.URL.String(), err)
		}
	}

	if err := writeRequest(conn, req); err != nil {
		conn.MarkBad()
		return nil, true, newError(KindConnectionFailed, plan.URL.String(), err)
	}

	result, err := readResponse(req, conn, streamed, plan.MaxBodyBytes, func(h Header) { s.integrateCookies(h, plan.URL) })
	if err != nil {
		conn.MarkBad()
		return nil, false, err
	}
	return result, false, nil
}

func (s *Session) integrateCookies(h Header, reqURL *url.URL) {
	for _, v := range h["Set-Cookie"] {
		_ = s.jar.SetFromHeader(v, reqURL)
	}
}
