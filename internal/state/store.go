package state

import (
	"sync"

	"github.com/oshokin/site-environment/internal/domain/environment"
)

// Tick carries every field derived by one simulation tick.
type Tick struct {
	// Cycle is the tick number, starting at 1.
	Cycle uint64
	// Temperature is the tick's temperature reading.
	Temperature environment.Reading
	// HeartRate is the tick's heart rate reading.
	HeartRate environment.Reading
	// Alarms are the tick's derived alarm outputs.
	Alarms environment.Alarms
}

// Store guards the shared snapshot.
type Store struct {
	mu   sync.Mutex
	snap environment.Snapshot
}

// NewStore creates a Store holding initial.
func NewStore(initial environment.Snapshot) *Store {
	return &Store{snap: initial}
}

// ApplyTick replaces all tick-derived fields at once.
// Only the simulation loop calls it.
func (s *Store) ApplyTick(tick Tick) {
	s.mu.Lock()
	s.snap.Cycle = tick.Cycle
	s.snap.Temperature = tick.Temperature
	s.snap.HeartRate = tick.HeartRate
	s.snap.Alarms = tick.Alarms
	s.mu.Unlock()
}

// OverrideAlarm sets one alarm output to an externally supplied value.
// Readings and the cycle counter are left untouched.
func (s *Store) OverrideAlarm(field environment.AlarmField, value environment.Switch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snap.Alarms.Set(field, value)
}

// MarkWorkerReplaced records whether the monitored worker was swapped out.
func (s *Store) MarkWorkerReplaced(replaced bool) {
	s.mu.Lock()
	s.snap.WorkerReplaced = replaced
	s.mu.Unlock()
}

// Snapshot returns a consistent copy of the whole record.
func (s *Store) Snapshot() environment.Snapshot {
	s.mu.Lock()
	snap := s.snap
	s.mu.Unlock()

	return snap
}
