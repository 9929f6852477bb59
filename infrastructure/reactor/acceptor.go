//go:build linux

package reactor

import (
	"errors"
	"fmt"
	"log"

	"flywheel/infrastructure/PAL/signal"
	"flywheel/infrastructure/PAL/socket"

	"golang.org/x/sys/unix"
)

// Acceptor is the single-threaded accept loop from spec §4.2. It owns
// the listening socket and a private epoll set containing only the
// listening fd (level-triggered) and a wakeup eventfd used to implement
// the signal-driven-shutdown redesign from spec §9.
type Acceptor struct {
	listenFD   int
	epfd       int
	wakeup     *signal.Wakeup
	workers    []*Worker
	dispatcher Dispatcher
	logger     *log.Logger
}

// NewAcceptor creates the acceptor's own epoll set and registers the
// listening socket and the wakeup eventfd on it.
func NewAcceptor(listenFD int, workers []*Worker, dispatcher Dispatcher, logger *log.Logger) (*Acceptor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("acceptor: epoll_create1: %w", err)
	}
	wakeup, err := signal.NewWakeup()
	if err != nil {
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("acceptor: wakeup eventfd: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}

	a := &Acceptor{listenFD: listenFD, epfd: epfd, wakeup: wakeup, workers: workers, dispatcher: dispatcher, logger: logger}

	listenEv := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(listenFD)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, listenFD, &listenEv); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("acceptor: epoll_ctl(ADD, listenFD): %w", err)
	}
	wakeEv := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakeup.FD())}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeup.FD(), &wakeEv); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("acceptor: epoll_ctl(ADD, wakeup): %w", err)
	}

	return a, nil
}

// Run blocks until Shutdown fires the wakeup eventfd.
func (a *Acceptor) Run() error {
	events := make([]unix.EpollEvent, 16)
	for {
		n, err := unix.EpollWait(a.epfd, events, -1)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("acceptor: epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			switch fd {
			case a.wakeup.FD():
				a.wakeup.Drain()
				return nil
			case a.listenFD:
				a.acceptBatch()
			}
		}
	}
}

func (a *Acceptor) acceptBatch() {
	socket.Accept(a.listenFD, a.dispatch, func(err error) {
		a.logger.Printf("acceptor: %v", err)
	})
}

// dispatch hands connFD to the next worker per the configured
// dispatcher strategy, registering it edge-triggered on that worker's
// epoll set. Per spec §4.3, failure here is fatal: it indicates fd-table
// exhaustion or API misuse, not a transient condition to retry.
func (a *Acceptor) dispatch(connFD int) {
	worker := a.workers[a.dispatcher.Select()]
	ev := unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLRDHUP | unix.EPOLLERR | unix.EPOLLET,
		Fd:     int32(connFD),
	}
	if err := unix.EpollCtl(worker.EpollFD(), unix.EPOLL_CTL_ADD, connFD, &ev); err != nil {
		a.logger.Fatalf("acceptor: epoll_ctl(ADD, fd=%d) on worker %d failed, fd table corrupt: %v", connFD, worker.id, err)
	}
}

// Shutdown wakes the blocked Run via the eventfd.
func (a *Acceptor) Shutdown() error {
	return a.wakeup.Fire()
}

// Close releases the acceptor's own epoll set and wakeup eventfd. The
// listening socket itself is owned and closed by Server.Shutdown.
func (a *Acceptor) Close() error {
	_ = a.wakeup.Close()
	return unix.Close(a.epfd)
}
