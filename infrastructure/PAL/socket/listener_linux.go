//go:build linux

// Package socket builds the raw non-blocking listening socket the
// acceptor drives directly with epoll, instead of going through
// net.Listen — the spec requires a raw fd so it can be registered in
// the acceptor's own epoll set and so new connection fds can be
// dispatched to a worker's own epoll set by number, not by *net.TCPConn.
package socket

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Options mirrors the listening-socket knobs enumerated in spec §6.
type Options struct {
	Port         int
	EnableLinger bool
	Backlog      int
}

// Listen creates, configures, binds and starts listening on a
// non-blocking IPv4 TCP socket bound to all interfaces.
func Listen(opts Options) (fd int, err error) {
	fd, err = unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}
	ok := false
	defer func() {
		if !ok {
			_ = unix.Close(fd)
		}
	}()

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return -1, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	if opts.EnableLinger {
		linger := unix.Linger{Onoff: 1, Linger: 1}
		if err := unix.SetsockoptLinger(fd, unix.SOL_SOCKET, unix.SO_LINGER, &linger); err != nil {
			return -1, fmt.Errorf("setsockopt SO_LINGER: %w", err)
		}
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		return -1, fmt.Errorf("set listening socket non-blocking: %w", err)
	}

	addr := &unix.SockaddrInet4{Port: opts.Port}
	if err := unix.Bind(fd, addr); err != nil {
		return -1, fmt.Errorf("bind :%d: %w", opts.Port, err)
	}
	if err := unix.Listen(fd, opts.Backlog); err != nil {
		return -1, fmt.Errorf("listen (backlog %d): %w", opts.Backlog, err)
	}

	ok = true
	return fd, nil
}

// Accept repeatedly accept4(SOCK_NONBLOCK)s until it would block,
// invoking onAccept for each new fd. Transient errors are reported via
// onError and accepting continues; EAGAIN/EWOULDBLOCK ends the batch.
func Accept(listenFD int, onAccept func(fd int), onError func(error)) {
	for {
		connFD, _, err := unix.Accept4(listenFD, unix.SOCK_NONBLOCK)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return
			}
			onError(fmt.Errorf("accept4: %w", err))
			continue
		}
		onAccept(connFD)
	}
}

// Shutdown performs an orderly shutdown and close of the listening fd.
func Shutdown(fd int) error {
	if err := unix.Shutdown(fd, unix.SHUT_RDWR); err != nil && err != unix.ENOTCONN {
		_ = unix.Close(fd)
		return fmt.Errorf("shutdown: %w", err)
	}
	return unix.Close(fd)
}
