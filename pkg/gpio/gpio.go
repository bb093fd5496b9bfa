// Package gpio provides the digital input line used for the homing switch.
//
// On Linux the line is read through the gpiochip character device; tests and
// other platforms use MockLine.
package gpio

import (
	"errors"
	"sync"
)

// ErrLineClosed is returned when reading a closed line.
var ErrLineClosed = errors.New("gpio: line closed")

// Line is a single digital input. Read returns the raw electrical level;
// polarity interpretation (active-low switches) is the caller's concern.
type Line interface {
	// Read returns the current level, true for high.
	Read() (bool, error)

	// Close releases the line.
	Close() error
}

// MockLine is an in-memory Line for tests and hardware-free runs.
type MockLine struct {
	mu     sync.Mutex
	level  bool
	err    error
	closed bool
}

// NewMockLine creates a mock line at the given initial level.
func NewMockLine(level bool) *MockLine {
	return &MockLine{level: level}
}

// Set changes the level returned by Read.
func (m *MockLine) Set(level bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = level
}

// Fail makes subsequent Reads return err.
func (m *MockLine) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Read implements Line.
func (m *MockLine) Read() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrLineClosed
	}
	if m.err != nil {
		return false, m.err
	}
	return m.level, nil
}

// Close implements Line.
func (m *MockLine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
