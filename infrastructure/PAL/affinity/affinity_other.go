//go:build !linux

package affinity

import "runtime"

// PinCurrentThread degrades to a no-op on platforms without
// sched_setaffinity; the worker still runs, just without a CPU pin.
func PinCurrentThread(_ int) error {
	runtime.LockOSThread()
	return nil
}
