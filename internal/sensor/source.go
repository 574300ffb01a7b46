package sensor

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/oshokin/site-environment/internal/domain/environment"
)

// Tables maps every channel to its ordered calibration values.
type Tables map[environment.Channel][]float64

// ErrEmptyTable is returned when a channel has no calibration values.
var ErrEmptyTable = errors.New("calibration table is empty")

// Validate checks that every known channel has a non-empty table.
func (t Tables) Validate() error {
	for _, ch := range environment.Channels() {
		if len(t[ch]) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyTable, ch)
		}
	}

	return nil
}

// cursor walks one channel's table.
type cursor struct {
	values []float64
	calls  uint64
}

// Source hands out readings for every channel. It is safe for concurrent use.
type Source struct {
	mu      sync.Mutex
	cursors map[environment.Channel]*cursor
}

// NewSource creates a Source over a private copy of tables.
func NewSource(tables Tables) (*Source, error) {
	if err := tables.Validate(); err != nil {
		return nil, err
	}

	cursors := make(map[environment.Channel]*cursor, len(tables))
	for _, ch := range environment.Channels() {
		cursors[ch] = &cursor{values: slices.Clone(tables[ch])}
	}

	return &Source{cursors: cursors}, nil
}

// Next returns the next reading for ch and advances its cursor.
// It panics for a channel the Source was not built with.
func (s *Source) Next(ch environment.Channel) environment.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cursors[ch]
	if !ok {
		panic(fmt.Sprintf("sensor: unknown channel %q", ch))
	}

	value := c.values[c.calls%uint64(len(c.values))]
	c.calls++

	return environment.Reading{
		Channel: ch,
		Value:   value,
		Tick:    c.calls,
	}
}
