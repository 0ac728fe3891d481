package wire

import "testing"

func TestHeaderCanonicalization(t *testing.T) {
	h := Header{}
	h.Add("x-foo", "a")
	h.Add("X-Foo", "b")
	if got := h.Get("X-FOO"); got != "a" {
		t.Fatalf("Get canonical = %q, want %q", got, "a")
	}
	if got := len(h["X-Foo"]); got != 2 {
		t.Fatalf("len values = %d, want 2", got)
	}
	h.Set("content-type", "text/plain")
	if got := h.Get("Content-Type"); got != "text/plain" {
		t.Fatalf("content-type = %q", got)
	}
	h.Del("x-foo")
	if got := h.Get("X-Foo"); got != "" {
		t.Fatalf("after Del, got %q, want empty", got)
	}
}

func TestHeaderClone(t *testing.T) {
	h := Header{"A": {"1", "2"}}
	h2 := h.Clone()
	h2["A"][0] = "changed"
	if h["A"][0] != "1" {
		t.Fatalf("Clone shared backing array: got %q", h["A"][0])
	}
}

func TestCanonicalKey(t *testing.T) {
	cases := map[string]string{
		"www-authenticate": "Www-Authenticate",
		"Content-Length":   "Content-Length",
		"set-cookie":       "Set-Cookie",
		"X":                "X",
	}
	for in, want := range cases {
		if got := CanonicalKey(in); got != want {
			t.Errorf("CanonicalKey(%q) = %q, want %q", in, got, want)
		}
	}
}
