package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestKeepAliveWatcherReloadsOnFileWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flywheel.json")
	if err := os.WriteFile(path, []byte(`{"keep_alive_timeout": 5}`), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewKeepAliveWatcher(ctx, path, 5, nil)
	if got := w.Seconds(); got != 5 {
		t.Fatalf("Seconds() = %d, want 5", got)
	}

	if err := os.WriteFile(path, []byte(`{"keep_alive_timeout": 42}`), 0o644); err != nil {
		t.Fatalf("rewriting fixture: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if w.Seconds() == 42 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Seconds() = %d, want 42 after file update", w.Seconds())
}

func TestKeepAliveWatcherIgnoresNonPositiveValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flywheel.json")
	if err := os.WriteFile(path, []byte(`{"keep_alive_timeout": 10}`), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewKeepAliveWatcher(ctx, path, 10, nil)

	if err := os.WriteFile(path, []byte(`{"keep_alive_timeout": 0}`), 0o644); err != nil {
		t.Fatalf("rewriting fixture: %v", err)
	}

	time.Sleep(200 * time.Millisecond)
	if got := w.Seconds(); got != 10 {
		t.Fatalf("Seconds() = %d, want unchanged 10 after a non-positive update", got)
	}
}
