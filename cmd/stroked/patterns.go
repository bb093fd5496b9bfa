// Built-in motion patterns for the stroked daemon.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"math"
	"sync"

	"strokeengine/pkg/pattern"
)

// basePattern holds the motion intent every pattern receives. Guarded by its
// own mutex since the engine injects parameters while playback runs.
type basePattern struct {
	mu           sync.Mutex
	timeOfStroke float64
	depth        int
	stroke       int
	sensation    float64
}

func (b *basePattern) SetTimeOfStroke(seconds float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.timeOfStroke = seconds
}

func (b *basePattern) SetDepth(steps int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.depth = steps
}

func (b *basePattern) SetStroke(steps int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stroke = steps
}

func (b *basePattern) SetSensation(sensation float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sensation = sensation
}

// strokeSpeed returns the peak speed covering dist steps in half a stroke
// period with a trapezoidal third-ramp profile, and the matching
// acceleration. Callers hold b.mu.
func (b *basePattern) strokeSpeed(dist int) (speed, accel int) {
	if dist <= 0 {
		return 1, 1
	}
	half := b.timeOfStroke / 2.0
	if half <= 0 {
		half = 0.01
	}
	// With a third of the time spent ramping each way, peak speed is 1.5x
	// the average.
	v := 1.5 * float64(dist) / half
	a := v / (half / 3.0)
	return int(math.Round(v)), int(math.Round(a))
}

// simpleStroke alternates between full retraction and the set depth.
type simpleStroke struct {
	basePattern
}

func (p *simpleStroke) Name() string { return "simple-stroke" }

func (p *simpleStroke) NextTarget(index int) pattern.MotionParameter {
	p.mu.Lock()
	defer p.mu.Unlock()

	speed, accel := p.strokeSpeed(p.stroke)
	target := pattern.MotionParameter{Speed: speed, Acceleration: accel}
	if index%2 == 0 {
		target.Position = p.depth
	} else {
		target.Position = p.depth - p.stroke
	}
	return target
}

// deeper starts with short strokes and lengthens them step by step until the
// full stroke length is reached, then repeats. Sensation picks the number of
// steps in the ramp: 1 at -100 up to 21 at +100.
type deeper struct {
	basePattern
}

func (p *deeper) Name() string { return "deeper" }

func (p *deeper) NextTarget(index int) pattern.MotionParameter {
	p.mu.Lock()
	defer p.mu.Unlock()

	ramp := 11 + int(math.Round(p.sensation/10.0))
	if ramp < 1 {
		ramp = 1
	}

	depthPerCycle := p.stroke
	if ramp > 1 {
		depthPerCycle = p.stroke / ramp
	}
	cycle := (index / 2) % ramp
	length := depthPerCycle * (cycle + 1)
	if length > p.stroke {
		length = p.stroke
	}

	speed, accel := p.strokeSpeed(length)
	target := pattern.MotionParameter{Speed: speed, Acceleration: accel}
	if index%2 == 0 {
		target.Position = p.depth - p.stroke + length
	} else {
		target.Position = p.depth - p.stroke
	}
	return target
}

func defaultPatterns() *pattern.Registry {
	return pattern.NewRegistry(&simpleStroke{}, &deeper{})
}
