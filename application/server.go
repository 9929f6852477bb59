// Package application declares the contracts between the core
// concurrency engine (infrastructure/reactor) and its external
// collaborators: the request processor and the URL map. The core never
// imports httpserving directly; it is handed implementations of these
// interfaces at wiring time.
package application

// Server is the lifecycle contract the spec enumerates in §6: init,
// set_url_map, run, shutdown.
type Server interface {
	// Init sets up sockets, workers, and the slot table.
	Init() error
	// SetURLMap hands the server a routing table before Run. The reactor
	// implementation ignores it: its routing is fixed by the request
	// processor it is constructed with, and cannot be replaced afterwards.
	SetURLMap(m URLMap)
	// Run blocks on the accept loop until a shutdown signal arrives.
	Run() error
	// Shutdown joins workers and frees resources. Safe to call once.
	Shutdown() error
}
