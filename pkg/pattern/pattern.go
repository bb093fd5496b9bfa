// Package pattern defines the motion pattern capability consumed by the
// engine. Concrete waveforms live with the application; the engine only
// depends on this interface and an ordered registry of implementations.
package pattern

import (
	"encoding/json"
	"sync"
)

// MotionParameter is one trapezoidal motion target in step space: absolute
// position, peak speed in steps/s and ramp acceleration in steps/s^2.
type MotionParameter struct {
	Position     int
	Speed        int
	Acceleration int
}

// Pattern produces a stream of motion targets. Index increases by one per
// stroke cycle; the parameter setters inject the user's current motion intent
// and take effect with the next NextTarget call.
type Pattern interface {
	// Name returns the display name used in pattern listings.
	Name() string

	// SetTimeOfStroke sets the seconds a full stroke takes.
	SetTimeOfStroke(seconds float64)

	// SetDepth sets the maximum insertion position in steps.
	SetDepth(steps int)

	// SetStroke sets the length of the repeating motion segment in steps.
	SetStroke(steps int)

	// SetSensation sets the pattern-specific shape parameter in [-100, 100].
	SetSensation(sensation float64)

	// NextTarget returns the motion target for the given step index.
	NextTarget(index int) MotionParameter
}

// Registry is an ordered collection of patterns. Selection is by index so the
// wire listing stays stable for external callers.
type Registry struct {
	mu       sync.RWMutex
	patterns []Pattern
}

// NewRegistry creates a registry holding the given patterns in order.
func NewRegistry(patterns ...Pattern) *Registry {
	r := &Registry{}
	r.patterns = append(r.patterns, patterns...)
	return r
}

// Register appends a pattern to the registry.
func (r *Registry) Register(p Pattern) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, p)
}

// Len returns the number of registered patterns.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.patterns)
}

// Get returns the pattern at index, or false if index is out of range.
func (r *Registry) Get(index int) (Pattern, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.patterns) {
		return nil, false
	}
	return r.patterns[index], true
}

// Names returns the pattern names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.patterns))
	for i, p := range r.patterns {
		names[i] = p.Name()
	}
	return names
}

// JSON enumerates the registered patterns as [{"<name>": <index>},...] for
// external listing.
func (r *Registry) JSON() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]map[string]int, len(r.patterns))
	for i, p := range r.patterns {
		list[i] = map[string]int{p.Name(): i}
	}

	data, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(data)
}
