// Package sensor produces simulated sensor readings.
//
// A Source walks a fixed calibration table per channel, one value per call,
// wrapping around at the end. There is no randomness: the Nth call for a
// channel with a table of length L returns the value at index (N-1) mod L.
package sensor
