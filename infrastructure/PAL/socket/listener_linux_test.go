//go:build linux

package socket

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestListenAndShutdown(t *testing.T) {
	fd, err := Listen(Options{Port: 0, Backlog: 16})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	sa, err := unix.Getsockname(fd)
	if err != nil {
		t.Fatalf("getsockname: %v", err)
	}
	if _, ok := sa.(*unix.SockaddrInet4); !ok {
		t.Fatalf("unexpected sockaddr type %T", sa)
	}

	if err := Shutdown(fd); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestAcceptInvokesOnAcceptForEachConnection(t *testing.T) {
	fd, err := Listen(Options{Port: 0, Backlog: 16})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer Shutdown(fd)

	sa, err := unix.Getsockname(fd)
	if err != nil {
		t.Fatalf("getsockname: %v", err)
	}
	port := sa.(*unix.SockaddrInet4).Port

	clientFD, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		t.Fatalf("client socket: %v", err)
	}
	defer unix.Close(clientFD)

	loopback := unix.SockaddrInet4{Port: port, Addr: [4]byte{127, 0, 0, 1}}
	if err := unix.Connect(clientFD, &loopback); err != nil {
		t.Fatalf("connect: %v", err)
	}

	var accepted []int
	Accept(fd, func(connFD int) {
		accepted = append(accepted, connFD)
	}, func(err error) {
		t.Fatalf("onError called: %v", err)
	})

	if len(accepted) != 1 {
		t.Fatalf("accepted %d connections, want 1", len(accepted))
	}
	_ = unix.Close(accepted[0])
}
