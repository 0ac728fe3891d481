package wire

import (
	"bufio"
	"fmt"
	"io"

	"golang.org/x/net/http/httpguts"
)

// Request is the wire-level representation of one HTTP/1.1 request. It is
// built by the pipeline from a resolved request plan; this package does
// not know what a plan is.
type Request struct {
	Method string
	// Target is the request-target: origin-form ("path?query") for a
	// direct connection, or absolute-form when writing through an HTTP
	// proxy.
	Target string
	Host   string
	Header Header
	// Body is the request body, or nil for none. Exactly one of
	// ContentLength or Chunked determines how it is framed.
	Body io.Reader
	// ContentLength is the known length of Body. A negative value means
	// the length is unknown and Chunked must be true.
	ContentLength int64
	// Chunked requests Transfer-Encoding: chunked framing. It is only
	// consulted when ContentLength is negative.
	Chunked bool
}

// WriteRequest serializes r onto bw per RFC 7230, following the framing
// and header-insertion rules of the wire codec component: Host is
// inserted if the caller didn't already set it; Content-Length or
// Transfer-Encoding: chunked is inserted automatically based on the
// body framing fields; no header already present in r.Header is ever
// duplicated by this function.
func WriteRequest(bw *bufio.Writer, r *Request) error {
	if !httpguts.ValidHeaderFieldValue(r.Method) || !isValidToken(r.Method) {
		return fmt.Errorf("wire: %w: %q", ErrInvalidMethod, r.Method)
	}
	target := r.Target
	if target == "" {
		target = "/"
	}
	if _, err := fmt.Fprintf(bw, "%s %s HTTP/1.1\r\n", r.Method, target); err != nil {
		return err
	}

	hasBody := r.Body != nil
	skip := map[string]bool{
		"Host":              true,
		"Content-Length":    true,
		"Transfer-Encoding": true,
	}
	if !r.Header.Has("Host") {
		if _, err := fmt.Fprintf(bw, "Host: %s\r\n", r.Host); err != nil {
			return err
		}
	} else {
		skip["Host"] = false
	}

	if hasBody {
		if r.ContentLength >= 0 {
			if _, err := fmt.Fprintf(bw, "Content-Length: %d\r\n", r.ContentLength); err != nil {
				return err
			}
		} else if r.Chunked {
			if _, err := fmt.Fprint(bw, "Transfer-Encoding: chunked\r\n"); err != nil {
				return err
			}
		} else {
			return fmt.Errorf("wire: body with unknown length requires chunked framing")
		}
	}

	for k, vv := range r.Header {
		ck := CanonicalKey(k)
		if ck == "Host" && skip["Host"] {
			continue
		}
		if ck == "Content-Length" || ck == "Transfer-Encoding" {
			continue
		}
		if !httpguts.ValidHeaderFieldName(ck) {
			return fmt.Errorf("wire: %w: %q", ErrInvalidHeaderField, k)
		}
		for _, v := range vv {
			if !httpguts.ValidHeaderFieldValue(v) {
				return fmt.Errorf("wire: %w: %q", ErrInvalidHeaderField, v)
			}
			if _, err := fmt.Fprintf(bw, "%s: %s\r\n", ck, v); err != nil {
				return err
			}
		}
	}

	if _, err := fmt.Fprint(bw, "\r\n"); err != nil {
		return err
	}

	if hasBody {
		if r.ContentLength >= 0 {
			if _, err := io.CopyN(bw, r.Body, r.ContentLength); err != nil {
				return err
			}
		} else {
			if err := writeChunkedBody(bw, r.Body); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func writeChunkedBody(bw *bufio.Writer, body io.Reader) error {
	buf := make([]byte, 32*1024)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := fmt.Fprintf(bw, "%x\r\n", n); werr != nil {
				return werr
			}
			if _, werr := bw.Write(buf[:n]); werr != nil {
				return werr
			}
			if _, werr := fmt.Fprint(bw, "\r\n"); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			_, werr := fmt.Fprint(bw, "0\r\n\r\n")
			return werr
		}
		if err != nil {
			return err
		}
	}
}

func isValidToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !httpguts.IsTokenRune(rune(s[i])) {
			return false
		}
	}
	return true
}
