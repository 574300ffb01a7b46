package simulation

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/oshokin/site-environment/internal/alarm"
	"github.com/oshokin/site-environment/internal/domain/environment"
)

// Report is what one tick hands to the Reporter.
type Report struct {
	// Cycle is the tick number.
	Cycle uint64
	// Snapshot is the state right after the tick was applied.
	Snapshot environment.Snapshot
	// Evaluation classifies the tick's readings.
	Evaluation alarm.Evaluation
}

// Reporter presents the outcome of a tick.
type Reporter interface {
	Report(ctx context.Context, r Report)
}

// NopReporter discards reports.
type NopReporter struct{}

// Report does nothing.
func (NopReporter) Report(context.Context, Report) {}

const (
	heavyRule = "========================================"
	lightRule = "----------------------------------------"
)

// ConsoleReporter prints a human-readable block per tick.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleReporter creates a ConsoleReporter writing to out.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out}
}

// Report writes the status block. Write errors are ignored.
func (c *ConsoleReporter) Report(_ context.Context, r Report) {
	var b strings.Builder

	snap := r.Snapshot

	b.WriteString("\n")
	b.WriteString(heavyRule + "\n")
	fmt.Fprintf(&b, "        ENVIRONMENT CYCLE #%d\n", r.Cycle)
	b.WriteString(heavyRule + "\n")
	fmt.Fprintf(&b, "Temperature: %.1f °C %s\n", snap.Temperature.Value, r.Evaluation.Temperature.Label())
	fmt.Fprintf(&b, "Heart rate: %.0f bpm %s\n", snap.HeartRate.Value, r.Evaluation.HeartRate.Label())
	b.WriteString(lightRule + "\n")
	fmt.Fprintf(&b, "Machine shutdown: %s %s\n",
		snap.Alarms.MachineShutdown, describe(snap.Alarms.MachineShutdown, "MACHINE STOPPED", "Machine running"))
	fmt.Fprintf(&b, "Emergency call: %s %s\n",
		snap.Alarms.EmergencyCall, describe(snap.Alarms.EmergencyCall, "EMERGENCY ACTIVE", "No emergency"))
	b.WriteString(heavyRule + "\n")
	b.WriteString(overallStatus(r.Evaluation.Severity()) + "\n")
	b.WriteString("\n")

	c.mu.Lock()
	defer c.mu.Unlock()

	_, _ = io.WriteString(c.out, b.String())
}

func describe(s environment.Switch, on, off string) string {
	if s.IsOn() {
		return on
	}

	return off
}

func overallStatus(severity alarm.Severity) string {
	switch severity {
	case alarm.SeverityCritical:
		return "CRITICAL: Heart rate emergency - Worker needs immediate help!"
	case alarm.SeverityWarning:
		return "WARNING: Temperature alarm - Worker should rest!"
	default:
		return "NORMAL: All systems operating normally"
	}
}
