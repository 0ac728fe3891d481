package auth

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/vinniefalco/burl/internal/wire"
)

// Digest implements RFC 7616 Digest authentication. Its challenge
// state is explicit and mutex-guarded rather than hidden behind a
// const-looking facade, since HandleChallenge mutates it on every
// fresh 401.
type Digest struct {
	Username string
	Password string

	mu        sync.Mutex
	realm     string
	nonce     string
	opaque    string
	qop       string
	algorithm string
	nc        uint32
	have      bool
}

// NewDigest returns a Digest scheme for the given credentials. It
// carries no challenge state until the first 401 is observed.
func NewDigest(username, password string) *Digest {
	return &Digest{Username: username, Password: password}
}

// Apply attaches an Authorization: Digest header if a challenge has
// already been captured; otherwise it sends the request unauthenticated
// so the server can issue the challenge.
func (d *Digest) Apply(ctx context.Context, req *wire.Request) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.have {
		return nil
	}
	d.nc++
	nc := fmt.Sprintf("%08x", d.nc)
	cnonce, err := randomCnonce()
	if err != nil {
		return err
	}
	uri := req.Target
	ha1 := d.ha1(cnonce)
	ha2 := digestHash(d.algorithm, req.Method+":"+uri)
	var response string
	if d.qop != "" {
		response = digestHash(d.algorithm, strings.Join([]string{ha1, d.nonce, nc, cnonce, d.qop, ha2}, ":"))
	} else {
		response = digestHash(d.algorithm, strings.Join([]string{ha1, d.nonce, ha2}, ":"))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `Digest username="%s", realm="%s", nonce="%s", uri="%s"`, d.Username, d.realm, d.nonce, uri)
	if d.opaque != "" {
		fmt.Fprintf(&sb, `, opaque="%s"`, d.opaque)
	}
	if d.algorithm != "" {
		fmt.Fprintf(&sb, `, algorithm=%s`, d.algorithm)
	}
	if d.qop != "" {
		fmt.Fprintf(&sb, `, qop=%s, nc=%s, cnonce="%s"`, d.qop, nc, cnonce)
	}
	fmt.Fprintf(&sb, `, response="%s"`, response)
	req.Header.Set("Authorization", sb.String())
	return nil
}

// HandleChallenge parses a WWW-Authenticate: Digest header and reports
// true when it describes a fresh nonce, meaning the caller should
// retry the request with Apply now able to produce a response.
func (d *Digest) HandleChallenge(resp ChallengeResponse) bool {
	if resp.StatusCode() != 401 {
		return false
	}
	var raw string
	for _, v := range resp.ResponseHeader()["Www-Authenticate"] {
		if strings.HasPrefix(strings.ToLower(v), "digest") {
			raw = v
			break
		}
	}
	if raw == "" {
		return false
	}
	params := parseChallengeParams(raw)

	d.mu.Lock()
	defer d.mu.Unlock()
	if params["nonce"] == d.nonce && d.have {
		return false
	}
	d.realm = params["realm"]
	d.nonce = params["nonce"]
	d.opaque = params["opaque"]
	d.qop = firstQop(params["qop"])
	d.algorithm = strings.ToUpper(params["algorithm"])
	d.nc = 0
	d.have = true
	return true
}

// Clone returns an independent copy of d, including any captured
// challenge state, so the copy's nc counter and nonce can progress
// without racing the original.
func (d *Digest) Clone() Scheme {
	d.mu.Lock()
	defer d.mu.Unlock()
	return &Digest{
		Username:  d.Username,
		Password:  d.Password,
		realm:     d.realm,
		nonce:     d.nonce,
		opaque:    d.opaque,
		qop:       d.qop,
		algorithm: d.algorithm,
		nc:        d.nc,
		have:      d.have,
	}
}

func (d *Digest) ha1(cnonce string) string {
	base := digestHash(d.algorithm, d.Username+":"+d.realm+":"+d.Password)
	if strings.HasSuffix(strings.ToUpper(d.algorithm), "-SESS") {
		return digestHash(d.algorithm, base+":"+d.nonce+":"+cnonce)
	}
	return base
}

func digestHash(algorithm, s string) string {
	if strings.HasPrefix(strings.ToUpper(algorithm), "SHA-256") {
		sum := sha256.Sum256([]byte(s))
		return hex.EncodeToString(sum[:])
	}
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func firstQop(v string) string {
	if v == "" {
		return ""
	}
	parts := strings.Split(v, ",")
	return strings.TrimSpace(parts[0])
}

func randomCnonce() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// parseChallengeParams parses the comma-separated key=value (optionally
// quoted) pairs following the "Digest" scheme token.
func parseChallengeParams(raw string) map[string]string {
	out := make(map[string]string)
	rest := raw
	if i := strings.IndexByte(rest, ' '); i >= 0 {
		rest = rest[i+1:]
	}
	for _, part := range splitParams(rest) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		eq := strings.IndexByte(part, '=')
		if eq < 0 {
			continue
		}
		k := strings.ToLower(strings.TrimSpace(part[:eq]))
		v := strings.TrimSpace(part[eq+1:])
		v = strings.Trim(v, `"`)
		out[k] = v
	}
	return out
}

// splitParams splits on commas that are not inside a quoted string.
func splitParams(s string) []string {
	var out []string
	var cur strings.Builder
	inQuotes := false
	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			cur.WriteRune(r)
		case r == ',' && !inQuotes:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	out = append(out, cur.String())
	return out
}
