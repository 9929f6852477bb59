package reactor

import (
	"math/rand"
	"sync/atomic"
)

// Dispatcher selects which worker a newly-accepted connection is handed
// to. It is only ever called from the acceptor goroutine, so the
// counter it advances needs no synchronization against other readers —
// atomics here guard against nothing but make the field safe to expose
// for tests and stats without a data race.
type Dispatcher interface {
	Select() int
}

// RoundRobin is the default strategy: a monotonically incrementing
// counter mod worker count, matching spec §4.3.
type RoundRobin struct {
	workers int
	counter atomic.Uint64
}

func NewRoundRobin(workers int) *RoundRobin {
	return &RoundRobin{workers: workers}
}

func (r *RoundRobin) Select() int {
	n := r.counter.Add(1) - 1
	return int(n % uint64(r.workers))
}

// Jittered randomly increments or decrements the counter instead of
// always incrementing, per spec §4.3's optional "Lorentz waterwheel"
// strategy. It has no correctness role, only breaking pathological
// synchronization between many clients and N workers.
type Jittered struct {
	workers int
	counter atomic.Int64
}

func NewJittered(workers int) *Jittered {
	return &Jittered{workers: workers}
}

func (j *Jittered) Select() int {
	var next int64
	if rand.Intn(16) > 7 {
		next = j.counter.Add(1)
	} else {
		next = j.counter.Add(-1)
	}
	m := next % int64(j.workers)
	if m < 0 {
		m += int64(j.workers)
	}
	return int(m)
}
