package wire

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func TestWriteRequestInsertsHostAndContentLength(t *testing.T) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	r := &Request{
		Method:        "POST",
		Target:        "/a?b=1",
		Host:          "example.com",
		Header:        Header{"X-Custom": {"v"}},
		Body:          strings.NewReader("k=v"),
		ContentLength: 3,
	}
	if err := WriteRequest(bw, r); err != nil {
		t.Fatalf("WriteRequest: %v", err)
	}
	got := buf.String()
	want := "POST /a?b=1 HTTP/1.1\r\nHost: example.com\r\nContent-Length: 3\r\nX-Custom: v\r\n\r\nk=v"
	if got != want {
		t.Fatalf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestWriteRequestDefaultsTargetToSlash(t *testing.T) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	r := &Request{Method: "GET", Host: "h"}
	if err := WriteRequest(bw, r); err != nil {
		t.Fatalf("WriteRequest: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "GET / HTTP/1.1\r\n") {
		t.Fatalf("got %q", buf.String())
	}
}

func TestWriteRequestChunkedWhenLengthUnknown(t *testing.T) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	r := &Request{
		Method:        "POST",
		Host:          "h",
		Header:        Header{},
		Body:          strings.NewReader("hello"),
		ContentLength: -1,
		Chunked:       true,
	}
	if err := WriteRequest(bw, r); err != nil {
		t.Fatalf("WriteRequest: %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "Transfer-Encoding: chunked\r\n") {
		t.Fatalf("missing chunked header: %q", got)
	}
	if !strings.HasSuffix(got, "5\r\nhello\r\n0\r\n\r\n") {
		t.Fatalf("missing chunk framing: %q", got)
	}
}

func TestWriteRequestRejectsInvalidMethod(t *testing.T) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	r := &Request{Method: "G E T", Host: "h"}
	if err := WriteRequest(bw, r); err == nil {
		t.Fatalf("expected error for invalid method")
	}
}
