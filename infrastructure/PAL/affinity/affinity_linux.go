//go:build linux

// Package affinity pins the calling OS thread to a single CPU. The
// worker calls it only when thread affinity is enabled in configuration.
// On platforms without an equivalent syscall it only locks the goroutine
// to its thread and pins nothing (see affinity_other.go).
package affinity

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// PinCurrentThread locks the calling goroutine to its current OS thread
// and restricts that thread to cpu. The lock is never released, so the
// goroutine keeps this thread (and its affinity) until it exits; other
// goroutines never run on a thread whose affinity was changed here.
func PinCurrentThread(cpu int) error {
	runtime.LockOSThread()

	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("sched_setaffinity(cpu=%d): %w", cpu, err)
	}
	return nil
}
