package burl

import "context"

type ctxKey int

const ctxKeyRequestID ctxKey = iota

// WithRequestID returns a new context carrying id, which RequestIDFrom
// reads back. The session's log lines and trace spans do not include it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// RequestIDFrom extracts the request ID set by WithRequestID, if any.
func RequestIDFrom(ctx context.Context) (string, bool) {
	v := ctx.Value(ctxKeyRequestID)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}
