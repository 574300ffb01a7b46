// Package server wires the simulator together and runs it until the context
// is cancelled.
//
// It owns the process lifecycle: configuration, stale document cleanup, the
// HTTP API, optional mirrors, the simulation loop and the final cleanup that
// runs exactly once on the way out.
package server
