// Package settings holds the server's tunable configuration: the fields
// enumerated in the specification plus the dispatch strategy, static
// root, worker count and stats port this implementation adds.
package settings

import "fmt"

// Strategy picks how the acceptor hands a new connection to a worker.
type Strategy string

const (
	// RoundRobin increments a counter mod worker count.
	RoundRobin Strategy = "round_robin"
	// Jittered randomly increments or decrements the counter mod worker
	// count. No correctness role; only meant to break pathological sync
	// patterns across many acceptors in front of the same pool.
	Jittered Strategy = "jittered"
)

// Configuration is the enumerated configuration surface from the spec,
// plus the dispatch strategy, the static file root needed to serve
// anything, an explicit worker count and the stats websocket port.
type Configuration struct {
	Port                  int      `json:"port"`
	KeepAliveTimeoutSecs  int      `json:"keep_alive_timeout"`
	EnableLinger          bool     `json:"enable_linger"`
	EnableThreadAffinity  bool     `json:"enable_thread_affinity"`
	DispatchStrategy      Strategy `json:"dispatch_strategy"`
	StaticRoot            string   `json:"static_root"`
	WorkerCount           int      `json:"worker_count"`
	StatsPort             int      `json:"stats_port"`
}

// NewDefaultConfiguration returns a configuration with every field set,
// mirroring the teacher's EnsureDefaults pattern: a zero-value struct
// read from disk is topped up field-by-field rather than rejected.
func NewDefaultConfiguration() *Configuration {
	c := &Configuration{}
	return c.EnsureDefaults()
}

// EnsureDefaults fills any zero-valued field with its default. Called
// after unmarshalling a user-provided file so partial configs are legal.
func (c *Configuration) EnsureDefaults() *Configuration {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.KeepAliveTimeoutSecs == 0 {
		c.KeepAliveTimeoutSecs = 5
	}
	if c.DispatchStrategy == "" {
		c.DispatchStrategy = RoundRobin
	}
	if c.StaticRoot == "" {
		c.StaticRoot = "./public"
	}
	if c.StatsPort == 0 {
		c.StatsPort = 9090
	}
	return c
}

// Validate checks the fields the spec constrains explicitly.
func (c *Configuration) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("settings: port %d out of range [1,65535]", c.Port)
	}
	if c.StatsPort < 1 || c.StatsPort > 65535 {
		return fmt.Errorf("settings: stats_port %d out of range [1,65535]", c.StatsPort)
	}
	if c.KeepAliveTimeoutSecs < 0 {
		return fmt.Errorf("settings: keep_alive_timeout must be >= 0, got %d", c.KeepAliveTimeoutSecs)
	}
	if c.DispatchStrategy != RoundRobin && c.DispatchStrategy != Jittered {
		return fmt.Errorf("settings: unknown dispatch_strategy %q", c.DispatchStrategy)
	}
	return nil
}
