// Package static implements the fallback file-serving handler: any
// request the URL trie doesn't claim is resolved against a document
// root on disk, the way lwan falls through to its static file module
// when no registered url_map prefix matches.
package static

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"flywheel/application"
	"flywheel/httpserving/mime"

	"golang.org/x/crypto/blake2b"
)

// Handler serves files rooted at Root. It is not itself an
// application.Handler; Serve is adapted into one with Bind.
type Handler struct {
	Root string
}

// New returns a Handler rooted at root.
func New(root string) *Handler {
	return &Handler{Root: root}
}

// Bind adapts h.Serve into an application.Handler for wiring into a
// router.Trie or passed directly to httpserving.NewProcessor as the
// static fallback.
func (h *Handler) Bind() application.Handler {
	return h.Serve
}

// Serve resolves path against Root, guards against traversal outside
// it, computes a blake2b digest of the file content as an ETag, and
// answers 304 when it matches If-None-Match. Directory requests append
// index.html, matching lwan's default document convention.
func (h *Handler) Serve(conn application.Conn, method, path string, header http.Header) error {
	if method != http.MethodGet && method != http.MethodHead {
		writeStatus(conn, http.StatusMethodNotAllowed, false)
		return nil
	}

	cleaned := filepath.Clean("/" + path)
	full := filepath.Join(h.Root, cleaned)
	rootAbs, err := filepath.Abs(h.Root)
	if err != nil {
		return fmt.Errorf("static: resolving root: %w", err)
	}
	fullAbs, err := filepath.Abs(full)
	if err != nil {
		return fmt.Errorf("static: resolving path: %w", err)
	}
	if !strings.HasPrefix(fullAbs, rootAbs) {
		writeStatus(conn, http.StatusForbidden, false)
		return nil
	}

	info, err := os.Stat(fullAbs)
	if err == nil && info.IsDir() {
		fullAbs = filepath.Join(fullAbs, "index.html")
		info, err = os.Stat(fullAbs)
	}
	if errors.Is(err, os.ErrNotExist) {
		writeStatus(conn, http.StatusNotFound, false)
		return nil
	}
	if err != nil {
		return fmt.Errorf("static: stat %s: %w", fullAbs, err)
	}
	if info.IsDir() {
		writeStatus(conn, http.StatusForbidden, false)
		return nil
	}

	body, err := os.ReadFile(fullAbs)
	if err != nil {
		return fmt.Errorf("static: read %s: %w", fullAbs, err)
	}

	sum := blake2b.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:]) + `"`

	keepAlive := header.Get("Connection") != "close"
	if inm := header.Get("If-None-Match"); inm != "" && inm == etag {
		writeResponse(conn, http.StatusNotModified, "", nil, keepAlive, map[string]string{"ETag": etag})
		return nil
	}

	if method == http.MethodHead {
		body = nil
	}
	writeResponse(conn, http.StatusOK, mime.ForPath(fullAbs), body, keepAlive, map[string]string{"ETag": etag})
	return nil
}

// The following mirror httpserving's unexported response writer so this
// package doesn't need an import cycle back through httpserving; the
// wire format (status line, headers, blank line, body) is identical by
// construction, grounded on the same lwan_http_status_as_string table.

var statusText = map[int]string{
	http.StatusOK:                    "OK",
	http.StatusNotModified:           "Not Modified",
	http.StatusForbidden:             "Forbidden",
	http.StatusNotFound:              "Not Found",
	http.StatusMethodNotAllowed:      "Method Not Allowed",
	http.StatusInternalServerError:   "Internal Server Error",
}

func writeResponse(conn application.Conn, status int, contentType string, body []byte, keepAlive bool, extraHeaders map[string]string) {
	buf := conn.ResponseBuffer()
	text, ok := statusText[status]
	if !ok {
		text = "Unknown"
	}
	var hdr bytes.Buffer
	fmt.Fprintf(&hdr, "HTTP/1.1 %d %s\r\n", status, text)
	if contentType != "" {
		fmt.Fprintf(&hdr, "Content-Type: %s\r\n", contentType)
	}
	fmt.Fprintf(&hdr, "Content-Length: %d\r\n", len(body))
	for k, v := range extraHeaders {
		fmt.Fprintf(&hdr, "%s: %s\r\n", k, v)
	}
	if keepAlive {
		hdr.WriteString("Connection: keep-alive\r\n")
	} else {
		hdr.WriteString("Connection: close\r\n")
	}
	hdr.WriteString("\r\n")
	buf.Write(hdr.Bytes())
	if len(body) > 0 {
		buf.Write(body)
	}
	conn.SetKeepAlive(keepAlive)
}

func writeStatus(conn application.Conn, status int, keepAlive bool) {
	body := []byte(fmt.Sprintf("%d %s", status, statusText[status]))
	writeResponse(conn, status, "text/plain; charset=utf-8", body, keepAlive, nil)
}
