package burl

import (
	"bytes"
	"encoding/json"
	"io"
)

// Response is the result of one logical call (possibly spanning
// several redirect hops). For a buffered call, Body is fully read and
// safe to consume repeatedly via Bytes/Text/JSON; for a *_streamed
// call, Body is a lazy, single-pass sequence of byte chunks coupled to
// the connection that produced it — it is released back to the pool
// only when fully drained or explicitly closed.
type Response struct {
	Status        string
	Code          int
	Proto         string
	Header        Header
	Body          io.ReadCloser
	ContentLength int64

	// FinalURL is the URL that produced this response, after any
	// redirect hops.
	FinalURL string
	// History holds the responses for each redirect hop preceding this
	// one, oldest first. It is empty when no redirect occurred.
	History []*Response

	buffered []byte
	isBuffer bool
}

// StatusCode satisfies auth.ChallengeResponse.
func (r *Response) StatusCode() int { return r.Code }

// ResponseHeader satisfies auth.ChallengeResponse.
func (r *Response) ResponseHeader() Header { return r.Header }

// Raise returns an *HTTPError if Code >= 400, nil otherwise. It never
// consumes or alters the response.
func (r *Response) Raise() error {
	if r.Code < 400 {
		return nil
	}
	return &HTTPError{Status: r.Code, Reason: r.Status, FinalURL: r.FinalURL}
}

// Bytes returns the response body. For a buffered response this
// returns the same bytes on every call; for a streamed response it
// drains and caches Body on first call.
func (r *Response) Bytes() ([]byte, error) {
	if r.isBuffer {
		return r.buffered, nil
	}
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if cerr := r.Body.Close(); cerr != nil && err == nil {
		err = cerr
	}
	r.buffered = b
	r.isBuffer = true
	return b, err
}

// Text returns the response body decoded as UTF-8 text.
func (r *Response) Text() (string, error) {
	b, err := r.Bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// JSON decodes the response body into v.
func (r *Response) JSON(v any) error {
	b, err := r.Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func bufferedResponse(status string, code int, proto string, h Header, body []byte, contentLength int64) *Response {
	return &Response{
		Status:        status,
		Code:          code,
		Proto:         proto,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: contentLength,
		buffered:      body,
		isBuffer:      true,
	}
}
