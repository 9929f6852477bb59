// Package signal supplies the OS signals that trigger shutdown and the
// self-pipe primitive the acceptor registers in its own epoll set, so a
// signal wakes epoll_wait directly instead of relying on a signal
// handler's non-local jump (spec §9 REDESIGN FLAGS).
package signal

import "os"

// Provider exposes the signals that should initiate graceful shutdown.
type Provider interface {
	ShutdownSignals() []os.Signal
}

// DefaultProvider returns SIGINT, SIGTERM and SIGHUP — the same set the
// teacher's presentation layer listens for, beyond the spec's bare
// SIGINT, since a long-running daemon should also honor orchestrator
// stop signals.
type DefaultProvider struct{}

func NewDefaultProvider() *DefaultProvider {
	return &DefaultProvider{}
}
