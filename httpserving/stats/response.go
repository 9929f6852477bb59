package stats

import (
	"bytes"
	"fmt"

	"flywheel/application"
)

func writeResponse(conn application.Conn, status int, contentType string, body []byte, keepAlive bool) {
	buf := conn.ResponseBuffer()
	var hdr bytes.Buffer
	fmt.Fprintf(&hdr, "HTTP/1.1 %d OK\r\n", status)
	fmt.Fprintf(&hdr, "Content-Type: %s\r\n", contentType)
	fmt.Fprintf(&hdr, "Content-Length: %d\r\n", len(body))
	if keepAlive {
		hdr.WriteString("Connection: keep-alive\r\n")
	} else {
		hdr.WriteString("Connection: close\r\n")
	}
	hdr.WriteString("\r\n")
	buf.Write(hdr.Bytes())
	buf.Write(body)
	conn.SetKeepAlive(keepAlive)
}
