//go:build linux

package reactor

import (
	"fmt"
	"log"
	"runtime"

	"flywheel/application"
	"flywheel/infrastructure/PAL/rlimit"
	"flywheel/infrastructure/PAL/socket"
	"flywheel/settings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// Server wires the acceptor, workers, and slot table together and
// implements application.Server — the lifecycle the spec exposes as
// init/set_url_map/run/shutdown in §6.
type Server struct {
	config    *settings.Configuration
	processor application.RequestProcessor
	keepAlive func() int
	logger    *log.Logger

	table      *SlotTable
	workers    []*Worker
	acceptor   *Acceptor
	listenFD   int
	dispatcher Dispatcher

	group *errgroup.Group
}

// NewServer constructs a Server bound to config. processor handles
// every readiness event the workers see; keepAlive returns the
// currently-active keep-alive timeout in seconds (allowing live reload).
func NewServer(config *settings.Configuration, processor application.RequestProcessor, keepAlive func() int, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{config: config, processor: processor, keepAlive: keepAlive, logger: logger}
}

// Init sets up sockets, workers, and the slot table, per spec §4.1.
func (s *Server) Init() error {
	ignoreSIGPIPE()
	closeStdin()

	rlimitCur, err := rlimit.Raise()
	if err != nil {
		return fmt.Errorf("server: init: %w", err)
	}

	workerCount := s.config.WorkerCount
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	if workerCount <= 0 {
		workerCount = 2
	}
	maxFDPerWorker := int(rlimitCur) / workerCount
	if maxFDPerWorker <= 0 {
		maxFDPerWorker = 1
	}

	s.table = NewSlotTable(rlimitCur)

	s.workers = make([]*Worker, workerCount)
	for i := 0; i < workerCount; i++ {
		w, err := NewWorker(i, maxFDPerWorker, s.table, s.processor, s.keepAlive, s.config.EnableThreadAffinity, s.logger)
		if err != nil {
			return fmt.Errorf("server: init: worker %d: %w", i, err)
		}
		s.workers[i] = w
	}

	switch s.config.DispatchStrategy {
	case settings.Jittered:
		s.dispatcher = NewJittered(workerCount)
	default:
		s.dispatcher = NewRoundRobin(workerCount)
	}

	listenFD, err := socket.Listen(socket.Options{
		Port:         s.config.Port,
		EnableLinger: s.config.EnableLinger,
		Backlog:      workerCount * maxFDPerWorker,
	})
	if err != nil {
		return fmt.Errorf("server: init: %w", err)
	}
	s.listenFD = listenFD

	acceptor, err := NewAcceptor(listenFD, s.workers, s.dispatcher, s.logger)
	if err != nil {
		return fmt.Errorf("server: init: %w", err)
	}
	s.acceptor = acceptor

	s.logger.Printf("reactor: %d workers, %d max sockets/worker, rlimit_nofile=%d", workerCount, maxFDPerWorker, rlimitCur)
	return nil
}

// SetURLMap is accepted for interface conformance with application.Server;
// this design resolves routing entirely inside the request processor
// handed to NewServer, so the map is threaded through at construction
// time instead of mutated post-hoc. It ignores its argument whenever it
// is called, before or after Init; the routing table is never rebuilt.
func (s *Server) SetURLMap(_ application.URLMap) {}

// Run starts the worker reactors in the background and blocks on the
// accept loop until Shutdown is called from another goroutine (typically
// a signal handler). Run does not wait for the workers; Shutdown joins
// them.
func (s *Server) Run() error {
	var g errgroup.Group
	s.group = &g

	for _, w := range s.workers {
		w := w
		g.Go(func() error {
			w.Run()
			return nil
		})
	}

	return s.acceptor.Run()
}

// Shutdown closes each worker's epoll fd (spec §4.1/§9: this turns the
// worker's next epoll_wait into EBADF, which it treats as its exit
// signal), joins every worker, then tears down the listening socket and
// the acceptor's own epoll set.
func (s *Server) Shutdown() error {
	if err := s.acceptor.Shutdown(); err != nil {
		s.logger.Printf("server: shutdown: acceptor wakeup: %v", err)
	}

	for _, w := range s.workers {
		if err := w.Close(); err != nil {
			s.logger.Printf("server: shutdown: worker %d close: %v", w.id, err)
		}
	}

	if s.group != nil {
		if err := s.group.Wait(); err != nil {
			s.logger.Printf("server: shutdown: worker group: %v", err)
		}
	}

	if err := s.acceptor.Close(); err != nil {
		s.logger.Printf("server: shutdown: acceptor close: %v", err)
	}

	return socket.Shutdown(s.listenFD)
}

// Workers exposes live worker handles for the stats/dashboard surface.
func (s *Server) Workers() []*Worker {
	return s.workers
}
