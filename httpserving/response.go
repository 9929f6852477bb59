package httpserving

import (
	"bytes"
	"fmt"
	"net/http"
)

var statusText = map[int]string{
	http.StatusOK:                  "OK",
	http.StatusNotModified:         "Not Modified",
	http.StatusBadRequest:          "Bad Request",
	http.StatusForbidden:           "Forbidden",
	http.StatusNotFound:            "Not Found",
	http.StatusMethodNotAllowed:    "Method Not Allowed",
	http.StatusRequestEntityTooLarge: "Request Entity Too Large",
	http.StatusInternalServerError: "Internal Server Error",
}

// writeResponse appends one full HTTP/1.1 response (status line,
// headers, body) to buf. keepAlive controls the Connection header so
// pipelined responses on the same connection stay consistent with what
// the processor decided for the request that produced them.
func writeResponse(buf *bytes.Buffer, status int, contentType string, body []byte, keepAlive bool, extraHeaders map[string]string) {
	text, ok := statusText[status]
	if !ok {
		text = "Unknown"
	}
	fmt.Fprintf(buf, "HTTP/1.1 %d %s\r\n", status, text)
	if contentType != "" {
		fmt.Fprintf(buf, "Content-Type: %s\r\n", contentType)
	}
	fmt.Fprintf(buf, "Content-Length: %d\r\n", len(body))
	for k, v := range extraHeaders {
		fmt.Fprintf(buf, "%s: %s\r\n", k, v)
	}
	if keepAlive {
		buf.WriteString("Connection: keep-alive\r\n")
	} else {
		buf.WriteString("Connection: close\r\n")
	}
	buf.WriteString("\r\n")
	buf.Write(body)
}

func writeStatusOnly(buf *bytes.Buffer, status int, keepAlive bool) {
	body := []byte(fmt.Sprintf("%d %s", status, statusText[status]))
	writeResponse(buf, status, "text/plain; charset=utf-8", body, keepAlive, nil)
}
