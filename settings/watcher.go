package settings

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// KeepAliveWatcher republishes the config file's keep_alive_timeout
// whenever the file changes on disk, without requiring a server restart.
// Only this one field is live-reloaded: port and worker_count changes
// require a restart, consistent with the spec's non-goal of graceful
// draining on reconfiguration.
type KeepAliveWatcher struct {
	path    string
	current atomic.Int64
	logger  *log.Logger
}

// NewKeepAliveWatcher seeds the watcher with the timeout already loaded
// at startup and begins watching path in the background.
func NewKeepAliveWatcher(ctx context.Context, path string, initial int, logger *log.Logger) *KeepAliveWatcher {
	if logger == nil {
		logger = log.Default()
	}
	w := &KeepAliveWatcher{path: path, logger: logger}
	w.current.Store(int64(initial))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Printf("settings: config watcher disabled, failed to start: %v", err)
		return w
	}
	if err := watcher.Add(path); err != nil {
		logger.Printf("settings: config watcher disabled, failed to watch %s: %v", path, err)
		_ = watcher.Close()
		return w
	}

	go w.run(ctx, watcher)
	return w
}

// Seconds returns the currently-active keep-alive timeout.
func (w *KeepAliveWatcher) Seconds() int {
	return int(w.current.Load())
}

func (w *KeepAliveWatcher) run(ctx context.Context, watcher *fsnotify.Watcher) {
	defer func() { _ = watcher.Close() }()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Printf("settings: config watcher error: %v", err)
		}
	}
}

func (w *KeepAliveWatcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Printf("settings: reload failed, keeping previous value: %v", err)
		return
	}
	var partial struct {
		KeepAliveTimeoutSecs int `json:"keep_alive_timeout"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		w.logger.Printf("settings: reload failed to parse: %v", err)
		return
	}
	if partial.KeepAliveTimeoutSecs <= 0 {
		return
	}
	if old := w.current.Swap(int64(partial.KeepAliveTimeoutSecs)); old != int64(partial.KeepAliveTimeoutSecs) {
		w.logger.Printf("settings: keep_alive_timeout updated %d -> %d", old, partial.KeepAliveTimeoutSecs)
	}
}
