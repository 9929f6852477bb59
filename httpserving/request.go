// Package httpserving implements the external collaborators the spec
// leaves as interfaces: the HTTP/1.x parser and response writer behind
// application.RequestProcessor, the URL trie, MIME lookup, and a static
// file handler.
package httpserving

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"
	"golang.org/x/sys/unix"
)

// parsedRequest is one complete HTTP/1.x request extracted from a
// slot's accumulated read buffer.
type parsedRequest struct {
	method     string
	path       string
	proto      string
	header     http.Header
	keepAlive  bool
}

// maxScratch bounds a connection's total in-memory read buffer, not a
// single read batch: the edge-triggered contract requires draining to
// EAGAIN regardless of how many bytes that takes, so the only safe
// place to cap memory is the accumulated total. A request that grows
// scratch past this is abusive, not merely large; drain reports it as
// an error so the caller closes the connection instead of looping
// forever.
const maxScratch = 1 << 20

// drain reads fd non-blocking until EAGAIN/EWOULDBLOCK or an error,
// appending to buf. Edge-triggered readiness is only reported once per
// transition to readable, so returning before an actual EAGAIN would
// leave bytes sitting in the kernel socket buffer with nothing left to
// re-arm epoll: the next readable byte might not arrive for the
// lifetime of the connection. It returns the peer-closed flag the
// worker's RDHUP handling mostly makes redundant, but a clean EOF on
// read can still arrive before RDHUP is delivered.
func drain(fd int, buf []byte) (out []byte, peerClosed bool, err error) {
	tmp := make([]byte, 4096)
	for {
		n, rerr := unix.Read(fd, tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
			if len(buf) > maxScratch {
				return buf, true, fmt.Errorf("httpserving: connection exceeded %d byte scratch buffer", maxScratch)
			}
		}
		if rerr == nil {
			if n == 0 {
				return buf, true, nil
			}
			continue
		}
		if errors.Is(rerr, unix.EAGAIN) || errors.Is(rerr, unix.EWOULDBLOCK) {
			return buf, false, nil
		}
		if errors.Is(rerr, unix.EINTR) {
			continue
		}
		return buf, true, rerr
	}
}

// parseRequest extracts one full request from buf, if present. ok is
// false when more bytes are needed; err is non-nil when what is present
// is malformed beyond repair (caller should respond 400 and close).
func parseRequest(buf []byte) (req parsedRequest, rest []byte, ok bool, err error) {
	idx := bytes.Index(buf, []byte("\r\n\r\n"))
	if idx < 0 {
		if len(buf) > 16*1024 {
			return parsedRequest{}, buf, false, fmt.Errorf("httpserving: request line/headers exceed 16KiB without terminator")
		}
		return parsedRequest{}, buf, false, nil
	}

	// Include the blank-line terminator (up to and including the second
	// \r\n) so textproto.Reader.ReadMIMEHeader sees proper end-of-headers
	// instead of running off the end of the slice.
	headerBlock := buf[:idx+4]
	reader := textproto.NewReader(bufio.NewReader(bytes.NewReader(headerBlock)))

	requestLine, err := reader.ReadLine()
	if err != nil {
		return parsedRequest{}, buf, false, fmt.Errorf("httpserving: reading request line: %w", err)
	}
	parts := strings.Fields(requestLine)
	if len(parts) != 3 {
		return parsedRequest{}, buf, false, fmt.Errorf("httpserving: malformed request line %q", requestLine)
	}
	method, path, proto := parts[0], parts[1], parts[2]
	if proto != "HTTP/1.0" && proto != "HTTP/1.1" {
		return parsedRequest{}, buf, false, fmt.Errorf("httpserving: unsupported protocol %q", proto)
	}

	mimeHeader, err := reader.ReadMIMEHeader()
	if err != nil {
		return parsedRequest{}, buf, false, fmt.Errorf("httpserving: malformed headers: %w", err)
	}
	header := http.Header(mimeHeader)
	for name, values := range header {
		if !httpguts.ValidHeaderFieldName(name) {
			return parsedRequest{}, buf, false, fmt.Errorf("httpserving: invalid header field name %q", name)
		}
		for _, v := range values {
			if !httpguts.ValidHeaderFieldValue(v) {
				return parsedRequest{}, buf, false, fmt.Errorf("httpserving: invalid header field value for %q", name)
			}
		}
	}

	bodyStart := idx + 4
	contentLength := 0
	if cl := header.Get("Content-Length"); cl != "" {
		contentLength, err = strconv.Atoi(cl)
		if err != nil || contentLength < 0 {
			return parsedRequest{}, buf, false, fmt.Errorf("httpserving: invalid Content-Length %q", cl)
		}
	}
	if len(buf) < bodyStart+contentLength {
		return parsedRequest{}, buf, false, nil // need more bytes for the declared body
	}

	keepAlive := proto == "HTTP/1.1"
	switch strings.ToLower(header.Get("Connection")) {
	case "close":
		keepAlive = false
	case "keep-alive":
		keepAlive = true
	}

	req = parsedRequest{method: method, path: path, proto: proto, header: header, keepAlive: keepAlive}
	return req, buf[bodyStart+contentLength:], true, nil
}
