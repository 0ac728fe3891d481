package wire

import "errors"

var (
	// ErrHeaderTooLarge is returned when a status line or header block
	// exceeds the configured limit.
	ErrHeaderTooLarge = errors.New("wire: header block too large")
	// ErrBodyTooLarge is returned when a buffered response body exceeds
	// the configured limit.
	ErrBodyTooLarge = errors.New("wire: body too large")
	// ErrInvalidResponse is returned for a malformed status line, a
	// malformed header line, or a response that declares both
	// Content-Length and chunked Transfer-Encoding.
	ErrInvalidResponse = errors.New("wire: invalid response")
	// ErrInvalidMethod is returned when a request method is not a valid
	// HTTP token.
	ErrInvalidMethod = errors.New("wire: invalid method")
	// ErrInvalidHeaderField is returned when a header name or value is
	// not wire-safe.
	ErrInvalidHeaderField = errors.New("wire: invalid header field")
)
