package httpserving

import (
	"errors"
	"log"
	"net/http"

	"flywheel/application"

	"golang.org/x/sys/unix"
)

// Processor implements application.RequestProcessor: the single
// external entry point the spec's worker reactor invokes on every
// readiness event (§4.5).
type Processor struct {
	router application.URLMap
	static application.Handler
	logger *log.Logger
}

// NewProcessor wires the URL trie and the static-file fallback handler
// together. router is consulted first; any path it doesn't claim falls
// through to static.
func NewProcessor(router application.URLMap, static application.Handler, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.Default()
	}
	return &Processor{router: router, static: static, logger: logger}
}

// ProcessRequest satisfies application.RequestProcessor. It drains the
// socket, parses as many complete pipelined requests as are buffered,
// dispatches each to the router or the static fallback, and writes every
// response into conn.ResponseBuffer() before a single flush.
func (p *Processor) ProcessRequest(conn application.Conn) error {
	fd := conn.FD()

	buf := append([]byte(nil), (*conn.Scratch())...)
	buf, peerClosed, err := drain(fd, buf)
	if err != nil {
		conn.SetKeepAlive(false)
		*conn.Scratch() = nil
		return err
	}

	keepAlive := false
	handledAny := false
	for {
		req, rest, ok, perr := parseRequest(buf)
		if perr != nil {
			writeStatusOnly(conn.ResponseBuffer(), http.StatusBadRequest, false)
			*conn.Scratch() = nil
			conn.SetKeepAlive(false)
			return p.flush(conn)
		}
		if !ok {
			buf = rest
			break
		}
		handledAny = true
		buf = rest
		keepAlive = req.keepAlive
		p.handle(conn, req)
	}

	if !handledAny {
		// No complete request yet: stay registered if the peer hasn't
		// closed, waiting for the rest on a future readiness event. No
		// per-request timeout exists in the core (spec §5); the
		// keep-alive idle timer is the only backstop against a peer
		// that never finishes sending.
		*conn.Scratch() = buf
		conn.SetKeepAlive(!peerClosed)
		return nil
	}

	*conn.Scratch() = buf
	conn.SetKeepAlive(keepAlive && !peerClosed)
	return p.flush(conn)
}

// handle dispatches one parsed request to the router, falling back to
// the static handler, and finally to a 404 if neither produces a
// response.
func (p *Processor) handle(conn application.Conn, req parsedRequest) {
	handler, ok := p.router.Lookup(req.path)
	if !ok {
		handler = p.static
	}
	if handler == nil {
		writeStatusOnly(conn.ResponseBuffer(), http.StatusNotFound, req.keepAlive)
		return
	}
	if err := handler(conn, req.method, req.path, req.header); err != nil {
		p.logger.Printf("httpserving: handler error for %s %s: %v", req.method, req.path, err)
		writeStatusOnly(conn.ResponseBuffer(), http.StatusInternalServerError, req.keepAlive)
	}
}

// flush writes the accumulated response buffer to fd, looping on
// partial writes until the buffer is fully sent or the socket would
// block. Per spec §4.5 the processor is not responsible for re-arming a
// later EPOLLOUT wait; a write that can't complete immediately is
// logged and the remainder dropped, matching "best-effort" write
// behavior already accepted at this layer.
func (p *Processor) flush(conn application.Conn) error {
	fd := conn.FD()
	data := conn.ResponseBuffer().Bytes()
	for len(data) > 0 {
		n, err := unix.Write(fd, data)
		if n > 0 {
			data = data[n:]
		}
		if err == nil {
			continue
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			p.logger.Printf("httpserving: write(fd=%d) would block with %d bytes unsent, dropping", fd, len(data))
			return nil
		}
		return err
	}
	return nil
}
