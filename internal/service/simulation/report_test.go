package simulation

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/site-environment/internal/alarm"
	"github.com/oshokin/site-environment/internal/domain/environment"
)

func reportFor(temperature, heartRate float64) Report {
	eval := alarm.Evaluate(temperature, heartRate)

	snap := environment.DefaultSnapshot()
	snap.Cycle = 7
	snap.Temperature.Value = temperature
	snap.HeartRate.Value = heartRate
	snap.Alarms = eval.Alarms

	return Report{Cycle: 7, Snapshot: snap, Evaluation: eval}
}

func TestConsoleReporter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		temperature float64
		heartRate   float64
		contains    []string
	}{
		{
			name:        "normal",
			temperature: 36.5,
			heartRate:   75,
			contains: []string{
				"ENVIRONMENT CYCLE #7",
				"Temperature: 36.5 °C Normal",
				"Heart rate: 75 bpm Normal",
				"Machine shutdown: OFF Machine running",
				"Emergency call: OFF No emergency",
				"NORMAL: All systems operating normally",
			},
		},
		{
			name:        "high fever",
			temperature: 38.5,
			heartRate:   75,
			contains: []string{
				"Temperature: 38.5 °C HIGH FEVER",
				"Machine shutdown: ON MACHINE STOPPED",
				"WARNING: Temperature alarm - Worker should rest!",
			},
		},
		{
			name:        "bradycardia outranks hypothermia",
			temperature: 34.5,
			heartRate:   40,
			contains: []string{
				"Temperature: 34.5 °C HYPOTHERMIA",
				"Heart rate: 40 bpm BRADYCARDIA",
				"Emergency call: ON EMERGENCY ACTIVE",
				"CRITICAL: Heart rate emergency - Worker needs immediate help!",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			NewConsoleReporter(&buf).Report(context.Background(), reportFor(tt.temperature, tt.heartRate))

			for _, want := range tt.contains {
				require.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestNopReporter(t *testing.T) {
	t.Parallel()

	require.NotPanics(t, func() {
		NopReporter{}.Report(context.Background(), reportFor(36.5, 75))
	})
}
