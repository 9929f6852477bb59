// Package presentation wires settings, the reactor server, and the
// shutdown signal provider together into a runnable process, the role
// the teacher's own presentation layer plays between its CLI and its
// VPN client/server core.
package presentation

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"flywheel/application"
	"flywheel/settings"
)

// signalProvider is the subset of PAL/signal.Provider Runner depends on.
type signalProvider interface {
	ShutdownSignals() []os.Signal
}

// Runner owns the server's run lifecycle: Init the server, run its
// accept loop alongside the optional stats websocket listener, and shut
// it down cleanly on a signal. Loading the config, starting the
// keep-alive watcher and building the server happen before Run, in main.
type Runner struct {
	Config      *settings.Configuration
	Server      application.Server
	Signals     signalProvider
	Logger      *log.Logger
	KeepWatcher *settings.KeepAliveWatcher

	// StatsWS, if set, is served on its own net/http listener bound to
	// Config.StatsPort. A websocket upgrade needs net.Conn/http.ResponseWriter
	// semantics the core reactor's raw-fd slot model doesn't expose, so
	// this traffic never goes through Server's epoll-driven accept loop.
	StatsWS http.HandlerFunc
}

// Run blocks until a shutdown signal arrives or the server returns an
// error from its own accept loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.Logger == nil {
		r.Logger = log.Default()
	}

	if err := r.Server.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, r.Signals.ShutdownSignals()...)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Server.Run()
	}()

	statsSrv := r.startStatsWS()

	select {
	case <-ctx.Done():
		r.Logger.Printf("presentation: shutdown signal received")
		r.stopStatsWS(statsSrv)
		return r.Server.Shutdown()
	case err := <-errCh:
		r.stopStatsWS(statsSrv)
		if err != nil {
			r.Logger.Printf("presentation: accept loop exited: %v", err)
		}
		return err
	}
}

// startStatsWS launches the /stats/ws listener when StatsWS is set. It
// runs independently of Server's accept loop and its failure is logged,
// not fatal: the dashboard feed is a convenience, not a spec'd contract
// the rest of the process depends on.
func (r *Runner) startStatsWS() *http.Server {
	if r.StatsWS == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/stats/ws", r.StatsWS)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", r.Config.StatsPort),
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.Logger.Printf("presentation: stats websocket listener exited: %v", err)
		}
	}()
	return srv
}

func (r *Runner) stopStatsWS(srv *http.Server) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
