package httpserving

import (
	"bytes"
	"log"
	"net/http"
	"testing"

	"flywheel/application"

	"golang.org/x/sys/unix"
)

type fakeConn struct {
	fd        int
	buf       bytes.Buffer
	scratch   []byte
	keepAlive bool
}

func (c *fakeConn) FD() int                      { return c.fd }
func (c *fakeConn) ResponseBuffer() *bytes.Buffer { return &c.buf }
func (c *fakeConn) Scratch() *[]byte             { return &c.scratch }
func (c *fakeConn) SetKeepAlive(v bool)           { c.keepAlive = v }

type fakeRouter struct {
	handler application.Handler
	match   bool
}

func (r *fakeRouter) Lookup(path string) (application.Handler, bool) {
	return r.handler, r.match
}

func newSocketpair(t *testing.T) (serverEnd, clientEnd int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	if err := unix.SetNonblock(fds[0], true); err != nil {
		t.Fatalf("setnonblock: %v", err)
	}
	t.Cleanup(func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestProcessRequestDispatchesToRouterAndWritesResponse(t *testing.T) {
	server, client := newSocketpair(t)

	router := &fakeRouter{match: true, handler: func(conn application.Conn, method, path string, header http.Header) error {
		conn.ResponseBuffer().WriteString("HTTP/1.1 200 OK\r\nContent-Length: 2\r\nConnection: close\r\n\r\nhi")
		conn.SetKeepAlive(false)
		return nil
	}}

	p := NewProcessor(router, nil, log.Default())

	request := []byte("GET /hello HTTP/1.1\r\nConnection: close\r\n\r\n")
	if _, err := unix.Write(client, request); err != nil {
		t.Fatalf("write request: %v", err)
	}

	conn := &fakeConn{fd: server}
	if err := p.ProcessRequest(conn); err != nil {
		t.Fatalf("ProcessRequest: %v", err)
	}

	if conn.keepAlive {
		t.Fatal("expected keepAlive=false after Connection: close")
	}

	readBuf := make([]byte, 256)
	n, err := unix.Read(client, readBuf)
	if err != nil {
		t.Fatalf("reading response from client end: %v", err)
	}
	got := string(readBuf[:n])
	if !bytes.Contains([]byte(got), []byte("200 OK")) {
		t.Fatalf("response = %q, want it to contain 200 OK", got)
	}
	if !bytes.Contains([]byte(got), []byte("hi")) {
		t.Fatalf("response = %q, want body 'hi'", got)
	}
}

func TestProcessRequestFallsBackTo404WhenUnmatched(t *testing.T) {
	server, client := newSocketpair(t)

	router := &fakeRouter{match: false}
	p := NewProcessor(router, nil, log.Default())

	request := []byte("GET /missing HTTP/1.1\r\nConnection: close\r\n\r\n")
	if _, err := unix.Write(client, request); err != nil {
		t.Fatalf("write request: %v", err)
	}

	conn := &fakeConn{fd: server}
	if err := p.ProcessRequest(conn); err != nil {
		t.Fatalf("ProcessRequest: %v", err)
	}

	readBuf := make([]byte, 256)
	n, err := unix.Read(client, readBuf)
	if err != nil {
		t.Fatalf("reading response: %v", err)
	}
	if !bytes.Contains(readBuf[:n], []byte("404")) {
		t.Fatalf("response = %q, want 404", readBuf[:n])
	}
}

func TestProcessRequestKeepsPartialRequestInScratch(t *testing.T) {
	server, client := newSocketpair(t)

	router := &fakeRouter{match: false}
	p := NewProcessor(router, nil, log.Default())

	partial := []byte("GET /slow HTTP/1.1\r\nHost: ex")
	if _, err := unix.Write(client, partial); err != nil {
		t.Fatalf("write partial request: %v", err)
	}

	conn := &fakeConn{fd: server}
	if err := p.ProcessRequest(conn); err != nil {
		t.Fatalf("ProcessRequest: %v", err)
	}

	if len(*conn.Scratch()) == 0 {
		t.Fatal("expected the partial request bytes to be retained in scratch")
	}
	if !conn.keepAlive {
		t.Fatal("expected the connection to stay open while awaiting the rest of the request")
	}
}
