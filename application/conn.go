package application

import "bytes"

// Conn is the view of a connection slot the external request processor
// is allowed to touch. It deliberately excludes the death-queue and
// epoll bookkeeping fields from §3 of the spec — those remain private to
// infrastructure/reactor, which is the only thing ever touching a slot
// besides the processor.
type Conn interface {
	// FD is the raw, non-blocking, edge-triggered socket. The processor
	// must drain it until EAGAIN on every readiness notification.
	FD() int

	// ResponseBuffer is reset (length zeroed, capacity retained) before
	// each ProcessRequest call. The processor writes its response here.
	ResponseBuffer() *bytes.Buffer

	// Scratch is an opaque byte slice the processor may use to carry
	// state across ProcessRequest calls on the same slot (e.g. bytes
	// left over from a pipelined request). It is zero-length whenever
	// the slot transitions FREE->ACTIVE.
	Scratch() *[]byte

	// SetKeepAlive must be called before ProcessRequest returns. True
	// retains the connection for further requests; false tells the
	// worker to close it once ProcessRequest returns.
	SetKeepAlive(bool)
}
