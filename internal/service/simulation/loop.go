package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/oshokin/site-environment/internal/alarm"
	"github.com/oshokin/site-environment/internal/domain/environment"
	"github.com/oshokin/site-environment/internal/logger"
	"github.com/oshokin/site-environment/internal/state"
)

// DefaultInterval is the pause between two ticks.
const DefaultInterval = 3 * time.Second

// Phase is the lifecycle stage of a Loop.
type Phase int32

const (
	// PhaseIdle means Run has not been called yet.
	PhaseIdle Phase = iota
	// PhaseRunning means ticks are being produced.
	PhaseRunning
	// PhaseStopping means cancellation was observed and the last tick is finishing.
	PhaseStopping
	// PhaseStopped means Run has returned.
	PhaseStopped
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseStopping:
		return "stopping"
	case PhaseStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Sampler yields the next reading of a channel.
type Sampler interface {
	Next(ch environment.Channel) environment.Reading
}

// StateStore receives tick results and serves snapshots.
type StateStore interface {
	ApplyTick(tick state.Tick)
	Snapshot() environment.Snapshot
}

// DocumentWriter persists a document. Its error is informational.
type DocumentWriter interface {
	Write(ctx context.Context, doc *environment.Document) error
}

// Dependencies are the collaborators of a Loop.
type Dependencies struct {
	// Source produces sensor readings.
	Source Sampler
	// Store holds the shared state.
	Store StateStore
	// Writer persists each tick's document.
	Writer DocumentWriter
	// Reporter prints the status block. Defaults to NopReporter.
	Reporter Reporter
	// Thresholds drive the alarm evaluation.
	Thresholds alarm.Thresholds
}

// Options tune the loop timing.
type Options struct {
	// Interval is the wait between ticks. Defaults to DefaultInterval.
	Interval time.Duration
}

var (
	// ErrMissingDependency is returned when a required collaborator is nil.
	ErrMissingDependency = errors.New("missing loop dependency")
	// ErrAlreadyStarted is returned when Run is called twice.
	ErrAlreadyStarted = errors.New("loop already started")
)

// Loop is the simulation worker.
type Loop struct {
	deps     Dependencies
	interval time.Duration
	phase    atomic.Int32
	cycle    uint64
}

// NewLoop validates the dependencies and creates a Loop.
func NewLoop(deps Dependencies, opts Options) (*Loop, error) {
	switch {
	case deps.Source == nil:
		return nil, fmt.Errorf("%w: source", ErrMissingDependency)
	case deps.Store == nil:
		return nil, fmt.Errorf("%w: store", ErrMissingDependency)
	case deps.Writer == nil:
		return nil, fmt.Errorf("%w: writer", ErrMissingDependency)
	}

	if err := deps.Thresholds.Validate(); err != nil {
		return nil, err
	}

	if deps.Reporter == nil {
		deps.Reporter = NopReporter{}
	}

	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}

	return &Loop{
		deps:     deps,
		interval: opts.Interval,
	}, nil
}

// Phase returns the current lifecycle stage.
func (l *Loop) Phase() Phase {
	return Phase(l.phase.Load())
}

// Interval returns the configured wait between ticks.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Run produces ticks until ctx is cancelled. The first tick happens
// immediately. A tick that is in flight when ctx is cancelled still finishes
// its write; nothing is written after Run returns.
func (l *Loop) Run(ctx context.Context) error {
	if !l.phase.CompareAndSwap(int32(PhaseIdle), int32(PhaseRunning)) {
		return ErrAlreadyStarted
	}

	defer l.phase.Store(int32(PhaseStopped))

	ctx = logger.WithName(ctx, "simulation")

	logger.InfoKV(ctx, "Simulation started", "interval", l.interval.String())

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			l.phase.Store(int32(PhaseStopping))
			logger.InfoKV(ctx, "Simulation stopped", "cycles", l.cycle)

			return nil
		case <-timer.C:
			l.tick(ctx)
			timer.Reset(l.interval)
		}
	}
}

// tick runs one full sample-evaluate-persist-report step.
func (l *Loop) tick(ctx context.Context) {
	l.cycle++

	// Sample each channel exactly once.
	temperature := l.deps.Source.Next(environment.ChannelTemperature)
	heartRate := l.deps.Source.Next(environment.ChannelHeartRate)

	eval := l.deps.Thresholds.Evaluate(temperature.Value, heartRate.Value)

	// Publish all tick-derived fields at once.
	l.deps.Store.ApplyTick(state.Tick{
		Cycle:       l.cycle,
		Temperature: temperature,
		HeartRate:   heartRate,
		Alarms:      eval.Alarms,
	})

	snap := l.deps.Store.Snapshot()

	// Failures are reported by the writer itself.
	if err := l.deps.Writer.Write(ctx, snap.Document()); err != nil {
		logger.DebugKV(ctx, "Tick persisted with errors", "cycle", l.cycle, "error", err)
	}

	if ctx.Err() != nil {
		return
	}

	l.deps.Reporter.Report(ctx, Report{
		Cycle:      l.cycle,
		Snapshot:   snap,
		Evaluation: eval,
	})
}
