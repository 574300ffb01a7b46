// Package simulation drives the periodic tick: sample every channel, derive
// the alarm outputs, publish them to the shared state, persist the resulting
// document and print a status report.
package simulation
