//go:build linux

package reactor

import (
	"errors"
	"log"

	"flywheel/application"
	"flywheel/infrastructure/PAL/affinity"

	"golang.org/x/sys/unix"
)

// tickTimeoutMs is the epoll_wait timeout used while the death queue is
// non-empty; each expiry advances the reap tick by one (spec §4.4 step 1).
const tickTimeoutMs = 1000

// Worker is one reactor: an epoll set, a slice of the shared slot
// table it owns exclusively by fd partitioning, and a death queue. Only
// the acceptor ever calls epoll_ctl(ADD) against epfd; only this worker
// ever calls epoll_ctl(DEL) or reads/writes its death queue.
type Worker struct {
	id         int
	epfd       int
	table      *SlotTable
	deathQueue *DeathQueue
	maxEvents  int
	tick       uint64
	keepAlive  func() int // current keep-alive timeout in seconds, may change at runtime
	processor  application.RequestProcessor
	affinityOn bool
	stats      Stats
	logger     *log.Logger
}

// NewWorker creates the worker's own epoll instance. It does not start
// the reactor loop; call Run in its own goroutine.
func NewWorker(id, maxFDPerWorker int, table *SlotTable, processor application.RequestProcessor, keepAlive func() int, pinAffinity bool, logger *log.Logger) (*Worker, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Worker{
		id:         id,
		epfd:       epfd,
		table:      table,
		deathQueue: NewDeathQueue(maxFDPerWorker),
		maxEvents:  maxFDPerWorker,
		keepAlive:  keepAlive,
		processor:  processor,
		affinityOn: pinAffinity,
		logger:     logger,
	}, nil
}

// EpollFD is registered against by the acceptor with epoll_ctl(ADD) —
// the one cross-thread fd-table operation in the whole design, and it
// is safe because the kernel serializes epoll_ctl internally.
func (w *Worker) EpollFD() int { return w.epfd }

// Run blocks forever, until the epoll fd is closed from Shutdown, per
// spec §4.4 and §9: closing epfd turns the next epoll_wait into
// EBADF/EINVAL, which this loop treats as the exit signal rather than
// polling a separate flag.
func (w *Worker) Run() {
	if w.affinityOn {
		if err := affinity.PinCurrentThread(w.id); err != nil {
			w.logger.Printf("reactor: worker %d: cpu affinity failed, continuing unpinned: %v", w.id, err)
		}
	}

	events := make([]unix.EpollEvent, w.maxEvents)
	for {
		timeout := -1
		if w.deathQueue.Len() > 0 {
			timeout = tickTimeoutMs
		}

		n, err := unix.EpollWait(w.epfd, events, timeout)
		if err != nil {
			if errors.Is(err, unix.EBADF) || errors.Is(err, unix.EINVAL) {
				return
			}
			if errors.Is(err, unix.EINTR) {
				continue
			}
			w.logger.Printf("reactor: worker %d: epoll_wait: %v", w.id, err)
			continue
		}

		if n == 0 {
			w.reap()
			continue
		}

		for i := 0; i < n; i++ {
			w.handle(events[i])
		}
	}
}

// reap advances the death_tick clock and closes every head-of-queue
// connection whose deadline has passed, stopping at the first
// unexpired entry since the queue is ordered by deadline (spec §4.4).
func (w *Worker) reap() {
	w.tick++
	for {
		fd, ok := w.deathQueue.PeekHead()
		if !ok {
			return
		}
		slot := w.table.Get(fd)

		// Stale entry: the slot was reset for a new connection (or
		// closed via RDHUP) since this entry was queued. Drop it
		// without closing anything — the spec §9 guard against
		// closing a recycled fd — and keep looking at the new head.
		if !slot.alive || slot.fd != fd {
			_, _ = w.deathQueue.Pop()
			continue
		}

		// Head not yet expired: the queue is ordered by deadline, so
		// nothing behind it is expired either. Stop.
		if slot.deadlineTick > w.tick {
			return
		}

		_, _ = w.deathQueue.Pop()
		slot.alive = false
		if err := unix.Close(fd); err != nil {
			w.logger.Printf("reactor: worker %d: close(%d) on reap: %v", w.id, fd, err)
		}
		w.stats.closed.Add(1)
	}
}

func (w *Worker) handle(ev unix.EpollEvent) {
	fd := int(ev.Fd)
	slot := w.table.Get(fd)

	if ev.Events&(unix.EPOLLRDHUP|unix.EPOLLHUP) != 0 {
		if !slot.alive {
			// A connection that hangs up before its first request has
			// not been counted as accepted below yet.
			w.stats.accepted.Add(1)
		}
		w.detach(fd, slot)
		return
	}

	if !slot.alive {
		slot.reset(fd)
		w.stats.accepted.Add(1)
	}

	if err := w.processor.ProcessRequest(slot); err != nil {
		w.logger.Printf("reactor: worker %d: process_request(fd=%d): %v", w.id, fd, err)
	}
	w.stats.handled.Add(1)

	if slot.keepAlive {
		slot.deadlineTick = w.tick + uint64(w.keepAlive())
		if !slot.alive {
			if err := w.deathQueue.Push(fd); err != nil {
				w.logger.Printf("reactor: worker %d: %v, closing fd=%d instead of keeping alive", w.id, err, fd)
				w.detach(fd, slot)
				return
			}
			slot.alive = true
		}
		return
	}

	w.detach(fd, slot)
}

// detach unregisters, closes, and frees fd. Called both on RDHUP/HUP
// and on a non-keep-alive request completion.
func (w *Worker) detach(fd int, slot *Slot) {
	_ = unix.EpollCtl(w.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	if err := unix.Close(fd); err != nil {
		w.logger.Printf("reactor: worker %d: close(%d): %v", w.id, fd, err)
	}
	slot.alive = false
	w.stats.closed.Add(1)
}

// Close closes the worker's epoll fd, waking its blocked epoll_wait
// with EBADF so Run returns.
func (w *Worker) Close() error {
	return unix.Close(w.epfd)
}
