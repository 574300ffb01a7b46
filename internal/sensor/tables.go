package sensor

import (
	"slices"

	"github.com/oshokin/site-environment/internal/domain/environment"
)

// defaultTemperatures sweeps from hypothermia through normal into high fever.
//
//nolint:gochecknoglobals // Read-only calibration data, copied by DefaultTables.
var defaultTemperatures = []float64{
	34.5, 34.6, 34.7, 34.8, 34.9, 35.1, 35.2, 35.3, 35.4, 35.5,
	35.6, 35.7, 35.8, 35.9, 36.1, 36.2, 36.3, 36.4, 36.5, 36.6,
	36.7, 36.8, 36.9, 37.1, 37.2, 37.3, 37.4, 37.5, 37.6, 37.7,
	37.8, 37.9, 38.1, 38.2, 38.3, 38.4, 38.5, 38.6, 38.7, 38.8,
	38.9, 39.1, 39.2, 39.3, 39.4, 39.5, 39.6, 39.7, 39.8, 40.0,
}

// defaultHeartRates sweeps from bradycardia through normal into tachycardia.
//
//nolint:gochecknoglobals // Read-only calibration data, copied by DefaultTables.
var defaultHeartRates = []float64{
	40, 42, 43, 45, 46, 48, 49, 51, 52, 54, 55, 57, 58, 60, 61, 63, 64, 66, 67, 69,
	70, 72, 73, 75, 77, 78, 80, 81, 83, 84, 86, 88, 89, 91, 92, 94, 95, 97, 98, 100,
	101, 103, 104, 106, 107, 109, 111, 112, 114, 115, 117, 118, 120, 121, 123, 125, 126, 128,
	129, 131, 132, 134, 135, 137, 138, 140, 141, 143, 144, 146, 147, 149, 150, 152, 153, 155,
	156, 158, 159, 161, 162, 164, 165, 167, 168,
}

// DefaultTables returns fresh copies of the built-in calibration tables.
func DefaultTables() Tables {
	return Tables{
		environment.ChannelTemperature: slices.Clone(defaultTemperatures),
		environment.ChannelHeartRate:   slices.Clone(defaultHeartRates),
	}
}
