// Metrics collection for the stroke engine.
//
// Counters and gauges with Prometheus text exposition. The engine feeds
// stroke-cycle, crash-avoidance and homing counters here; consumers scrape
// Render() through whatever surface they already have.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// Counter is a monotonically increasing value.
type Counter struct {
	name  string
	help  string
	value atomic.Uint64
}

// Inc adds one.
func (c *Counter) Inc() { c.value.Add(1) }

// Add adds n; negative deltas are ignored.
func (c *Counter) Add(n uint64) { c.value.Add(n) }

// Value returns the current count.
func (c *Counter) Value() uint64 { return c.value.Load() }

// Gauge is a value that can go up and down.
type Gauge struct {
	name string
	help string
	bits atomic.Uint64
}

// Set replaces the value.
func (g *Gauge) Set(v float64) { g.bits.Store(math.Float64bits(v)) }

// Value returns the current value.
func (g *Gauge) Value() float64 { return math.Float64frombits(g.bits.Load()) }

// Registry holds named metrics and renders them in Prometheus text format.
type Registry struct {
	mu       sync.RWMutex
	counters map[string]*Counter
	gauges   map[string]*Gauge
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[string]*Counter),
		gauges:   make(map[string]*Gauge),
	}
}

// Counter returns the counter with the given name, creating it on first use.
func (r *Registry) Counter(name, help string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[name]; ok {
		return c
	}
	c := &Counter{name: name, help: help}
	r.counters[name] = c
	return c
}

// Gauge returns the gauge with the given name, creating it on first use.
func (r *Registry) Gauge(name, help string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gauges[name]; ok {
		return g
	}
	g := &Gauge{name: name, help: help}
	r.gauges[name] = g
	return g
}

// Render returns all metrics in Prometheus text exposition format, sorted by
// name for stable output.
func (r *Registry) Render() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.counters)+len(r.gauges))
	for name := range r.counters {
		names = append(names, name)
	}
	for name := range r.gauges {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		if c, ok := r.counters[name]; ok {
			if c.help != "" {
				fmt.Fprintf(&sb, "# HELP %s %s\n", name, c.help)
			}
			fmt.Fprintf(&sb, "# TYPE %s counter\n", name)
			fmt.Fprintf(&sb, "%s %d\n", name, c.Value())
			continue
		}
		g := r.gauges[name]
		if g.help != "" {
			fmt.Fprintf(&sb, "# HELP %s %s\n", name, g.help)
		}
		fmt.Fprintf(&sb, "# TYPE %s gauge\n", name)
		fmt.Fprintf(&sb, "%s %g\n", name, g.Value())
	}
	return sb.String()
}
