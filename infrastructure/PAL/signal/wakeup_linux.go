//go:build linux

package signal

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Wakeup is an eventfd the acceptor registers EPOLLIN on alongside the
// listening socket. Firing it once wakes a blocked epoll_wait
// immediately, regardless of how long the infinite timeout has been
// blocking, which is what lets a plain signal-handler flag replace
// lwan's setjmp/longjmp escape.
type Wakeup struct {
	fd int
}

// NewWakeup creates the eventfd. Its fd is exported via FD for
// epoll_ctl(ADD) by the caller.
func NewWakeup() (*Wakeup, error) {
	fd, err := unix.Eventfd(0, 0)
	if err != nil {
		return nil, fmt.Errorf("eventfd2: %w", err)
	}
	return &Wakeup{fd: fd}, nil
}

// FD is the eventfd, readable for EPOLLIN registration.
func (w *Wakeup) FD() int { return w.fd }

// Fire wakes any epoll_wait blocked on this eventfd's readability.
func (w *Wakeup) Fire() error {
	one := [8]byte{0, 0, 0, 0, 0, 0, 0, 1}
	_, err := unix.Write(w.fd, one[:])
	return err
}

// Drain clears the eventfd's counter after a wakeup, so a subsequent
// epoll_wait doesn't immediately return spuriously on a stale counter.
func (w *Wakeup) Drain() {
	var buf [8]byte
	_, _ = unix.Read(w.fd, buf[:])
}

// Close releases the eventfd.
func (w *Wakeup) Close() error {
	return unix.Close(w.fd)
}
