// Package stats exposes reactor.Worker.Snapshot data over HTTP: a
// point-in-time JSON array and a streaming websocket feed, the same
// data the TUI dashboard renders locally.
package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"flywheel/application"
	"flywheel/infrastructure/reactor"

	"github.com/coder/websocket"
)

// Source supplies the live set of workers to report on.
type Source func() []*reactor.Worker

// Handler answers /stats (one JSON snapshot, JSON bound to a router
// prefix) and /stats/ws (a snapshot pushed every tick over a websocket,
// WS served on a separate net/http listener); the core reactor has no
// notion of HTTP, so this lives entirely in httpserving.
type Handler struct {
	workers Source
	period  time.Duration
}

// New returns a Handler that polls workers via source.
func New(source Source) *Handler {
	return &Handler{workers: source, period: time.Second}
}

func (h *Handler) snapshots() []reactor.Snapshot {
	workers := h.workers()
	out := make([]reactor.Snapshot, len(workers))
	for i, w := range workers {
		out[i] = w.Snapshot()
	}
	return out
}

// JSON serves a single point-in-time snapshot as application/json.
// Bind it under a trie prefix like "/stats" via application.Handler.
func (h *Handler) JSON(conn application.Conn, method, path string, header http.Header) error {
	body, err := json.Marshal(h.snapshots())
	if err != nil {
		return err
	}
	writeResponse(conn, 200, "application/json", body, header.Get("Connection") != "close")
	return nil
}

// WS is not reachable through the slot-based application.Handler
// contract (websocket upgrade needs the net.Conn semantics the core
// reactor's raw-fd model doesn't expose). presentation.Runner binds it
// as an http.HandlerFunc on its own net/http listener, separate from
// the spec's epoll-driven connections.
func (h *Handler) WS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer c.CloseNow()

	ctx := r.Context()
	ticker := time.NewTicker(h.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.Close(websocket.StatusNormalClosure, "")
			return
		case <-ticker.C:
			body, err := json.Marshal(h.snapshots())
			if err != nil {
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, body)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
