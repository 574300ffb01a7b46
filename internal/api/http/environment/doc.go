// Package environment implements the HTTP control surface of the simulator.
//
// It serves the persisted document, accepts manual alarm overrides, exposes
// the in-memory state and streams every persisted document over a websocket.
package environment
