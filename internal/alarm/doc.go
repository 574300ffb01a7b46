// Package alarm derives alarm outputs from sensor readings.
//
// Evaluation is a pure function of the current temperature and heart rate:
// every call recomputes both outputs from scratch, so an alarm stays ON only
// while its triggering reading stays out of range. Threshold boundaries are
// inclusive.
package alarm
