// Package health exposes the standard gRPC health service for the simulator.
//
// The service reports SERVING while the simulation loop runs and NOT_SERVING
// once shutdown begins, so orchestrators can probe liveness without touching
// the HTTP API.
package health
