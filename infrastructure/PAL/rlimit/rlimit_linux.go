//go:build linux

// Package rlimit raises RLIMIT_NOFILE the way the original lwan.c does:
// to the hard limit, or 8x the current soft limit when the hard limit is
// unbounded.
package rlimit

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Raise raises the open-files soft limit and returns the resulting
// value, to be used for slot table sizing.
func Raise() (uint64, error) {
	var r unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &r); err != nil {
		return 0, fmt.Errorf("getrlimit: %w", err)
	}

	if r.Max == unix.RLIM_INFINITY {
		r.Cur *= 8
	} else if r.Cur < r.Max {
		r.Cur = r.Max
	}

	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &r); err != nil {
		return 0, fmt.Errorf("setrlimit(%d): %w", r.Cur, err)
	}
	return r.Cur, nil
}
