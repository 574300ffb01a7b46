// Package state holds the single mutable record shared by the simulation
// loop and the HTTP API.
//
// All mutation sites are methods of Store and run under one mutex. Critical
// sections only copy fields, so HTTP handlers never wait for a tick's I/O.
package state
