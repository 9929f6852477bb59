package application

import "net/http"

// Handler answers a single parsed request against a live connection. It
// writes into conn.ResponseBuffer() and returns an error only for
// conditions the caller could not itself turn into a status-line
// response (the processor still guarantees a response is always
// written).
type Handler func(conn Conn, method, path string, header http.Header) error

// URLMap is the routing table handed to Server.SetURLMap. Lookup
// performs longest-prefix matching the way the spec's URL trie is
// described: the most specific registered prefix wins.
type URLMap interface {
	Lookup(path string) (Handler, bool)
}
