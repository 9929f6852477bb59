package httpserving

import (
	"strings"
	"testing"
)

func TestParseRequestSimpleGET(t *testing.T) {
	raw := "GET /index.html HTTP/1.1\r\nHost: example.com\r\n\r\n"
	req, rest, ok, err := parseRequest([]byte(raw))
	if err != nil {
		t.Fatalf("parseRequest error: %v", err)
	}
	if !ok {
		t.Fatal("expected a complete request to parse ok=true")
	}
	if req.method != "GET" || req.path != "/index.html" || req.proto != "HTTP/1.1" {
		t.Fatalf("unexpected request line fields: %+v", req)
	}
	if req.header.Get("Host") != "example.com" {
		t.Fatalf("Host header = %q, want example.com", req.header.Get("Host"))
	}
	if !req.keepAlive {
		t.Fatal("HTTP/1.1 without Connection: close should default keep-alive true")
	}
	if len(rest) != 0 {
		t.Fatalf("rest = %q, want empty", rest)
	}
}

func TestParseRequestIncompleteReturnsNotOk(t *testing.T) {
	raw := "GET /index.html HTTP/1.1\r\nHost: exam"
	_, _, ok, err := parseRequest([]byte(raw))
	if err != nil {
		t.Fatalf("parseRequest error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for a request missing the header terminator")
	}
}

func TestParseRequestPipelinedRequestsLeaveRemainder(t *testing.T) {
	raw := "GET /a HTTP/1.1\r\n\r\nGET /b HTTP/1.1\r\n\r\n"
	first, rest, ok, err := parseRequest([]byte(raw))
	if err != nil || !ok {
		t.Fatalf("first parse failed: ok=%v err=%v", ok, err)
	}
	if first.path != "/a" {
		t.Fatalf("first.path = %q, want /a", first.path)
	}
	second, rest2, ok, err := parseRequest(rest)
	if err != nil || !ok {
		t.Fatalf("second parse failed: ok=%v err=%v", ok, err)
	}
	if second.path != "/b" {
		t.Fatalf("second.path = %q, want /b", second.path)
	}
	if len(rest2) != 0 {
		t.Fatalf("rest2 = %q, want empty", rest2)
	}
}

func TestParseRequestConnectionCloseOverridesDefault(t *testing.T) {
	raw := "GET / HTTP/1.1\r\nConnection: close\r\n\r\n"
	req, _, ok, err := parseRequest([]byte(raw))
	if err != nil || !ok {
		t.Fatalf("parse failed: ok=%v err=%v", ok, err)
	}
	if req.keepAlive {
		t.Fatal("Connection: close must force keepAlive=false")
	}
}

func TestParseRequestHTTP10DefaultsToClose(t *testing.T) {
	raw := "GET / HTTP/1.0\r\n\r\n"
	req, _, ok, err := parseRequest([]byte(raw))
	if err != nil || !ok {
		t.Fatalf("parse failed: ok=%v err=%v", ok, err)
	}
	if req.keepAlive {
		t.Fatal("HTTP/1.0 without Connection: keep-alive must default to close")
	}
}

func TestParseRequestRespectsContentLength(t *testing.T) {
	body := "abcde"
	raw := "POST /submit HTTP/1.1\r\nContent-Length: 5\r\n\r\n" + body
	req, rest, ok, err := parseRequest([]byte(raw))
	if err != nil || !ok {
		t.Fatalf("parse failed: ok=%v err=%v", ok, err)
	}
	if req.method != "POST" {
		t.Fatalf("method = %q, want POST", req.method)
	}
	if len(rest) != 0 {
		t.Fatalf("rest = %q, want empty (body fully consumed)", rest)
	}
}

func TestParseRequestWaitsForFullDeclaredBody(t *testing.T) {
	raw := "POST /submit HTTP/1.1\r\nContent-Length: 10\r\n\r\nabc"
	_, _, ok, err := parseRequest([]byte(raw))
	if err != nil {
		t.Fatalf("parseRequest error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false while body bytes are still missing")
	}
}

func TestParseRequestRejectsMalformedRequestLine(t *testing.T) {
	raw := "NOT A REQUEST LINE AT ALL\r\n\r\n"
	_, _, _, err := parseRequest([]byte(raw))
	if err == nil {
		t.Fatal("expected an error for a malformed request line")
	}
}

func TestParseRequestRejectsUnsupportedProtocol(t *testing.T) {
	raw := "GET / HTTP/2.0\r\n\r\n"
	_, _, _, err := parseRequest([]byte(raw))
	if err == nil {
		t.Fatal("expected an error for an unsupported protocol version")
	}
}

func TestParseRequestHeadersTooLargeErrors(t *testing.T) {
	raw := "GET / HTTP/1.1\r\n" + strings.Repeat("X-Pad: aaaaaaaaaa\r\n", 2000)
	_, _, _, err := parseRequest([]byte(raw))
	if err == nil {
		t.Fatal("expected an error once the header block exceeds the budget without a terminator")
	}
}
