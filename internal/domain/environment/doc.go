// Package environment contains the core domain types of the site simulator.
//
// It defines sensor channels and readings, the ON/OFF alarm switches, the
// in-memory Snapshot shared by the simulation loop and the HTTP API, and the
// Document that is persisted to disk and mirrored to other stores.
package environment
