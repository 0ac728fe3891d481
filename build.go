package burl

import (
	"net/url"
)

// buildPlan merges opts over the session's defaults into a fresh
// requestPlan. A nil opts uses every default.
func (s *Session) buildPlan(method, rawURL string, opts *RequestOptions) (*requestPlan, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, newError(KindInvalidURL, rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, newError(KindInvalidScheme, rawURL, errUnsupportedScheme)
	}

	header := cloneHeader(s.defaultHeader)
	var body []byte

	if opts != nil {
		for k, vv := range opts.Headers {
			for i, v := range vv {
				if i == 0 {
					header.Set(k, v)
				} else {
					header.Add(k, v)
				}
			}
		}
		switch {
		case opts.JSON != "":
			if header.Get("Content-Type") == "" {
				header.Set("Content-Type", "application/json")
			}
			body = []byte(opts.JSON)
		case opts.Data != "":
			if header.Get("Content-Type") == "" {
				header.Set("Content-Type", "application/x-www-form-urlencoded")
			}
			body = []byte(opts.Data)
		}
	}

	p := &requestPlan{
		Method:        method,
		URL:           u,
		Header:        header,
		Body:          body,
		Timeout:       s.defaultTimeout,
		MaxRedirects:  s.maxRedirects,
		MaxBodyBytes:  s.maxBodyBytes,
		AllowRedirect: true,
		Verify:        s.verify,
		Auth:          s.defaultAuth,
	}
	if opts != nil {
		if opts.Timeout > 0 {
			p.Timeout = opts.Timeout
		}
		if opts.MaxRedirects > 0 {
			p.MaxRedirects = opts.MaxRedirects
		}
		if opts.MaxBodyBytes != nil {
			p.MaxBodyBytes = *opts.MaxBodyBytes
		}
		if opts.AllowRedirect != nil {
			p.AllowRedirect = *opts.AllowRedirect
		}
		if opts.Verify != nil {
			p.Verify = *opts.Verify
		}
		if opts.Auth != nil {
			// Clone a per-call override so retry/challenge state (e.g.
			// a Digest nonce counter) never bleeds into an instance the
			// caller may also be using as the session default or in a
			// concurrent call.
			p.Auth = opts.Auth.Clone()
		}
	}
	return p, nil
}

func cloneHeader(h Header) Header {
	out := NewHeader()
	for k, vv := range h {
		cp := make([]string, len(vv))
		copy(cp, vv)
		out[k] = cp
	}
	return out
}

type unsupportedSchemeErr struct{}

func (unsupportedSchemeErr) Error() string { return "burl: unsupported URL scheme" }

var errUnsupportedScheme error = unsupportedSchemeErr{}
