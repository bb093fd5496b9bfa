// Simulated trapezoidal stepper driver.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package stepper

import (
	"math"
	"sync"
	"time"
)

// Sim is a wall-clock simulation of a trapezoidal stepper driver. It models
// the accelerate/cruise/decelerate profile of a real driver closely enough
// for the motion supervisor: position and signed speed evolve over real time
// and IsRunning turns false when the target is reached.
//
// Simplifications: every move starts from standstill, and StopMove halts at
// the current position instead of tracing a deceleration ramp. Both are
// invisible to supervisory logic that only issues moves while idle.
type Sim struct {
	mu      sync.Mutex
	enabled bool
	speedHz float64
	accel   float64
	pos     float64
	move    *simMove
}

type simMove struct {
	start   time.Time
	from    float64
	dist    float64 // unsigned
	dir     float64 // +1 or -1
	accelT  float64
	cruiseT float64
	totalT  float64
	cruiseV float64
}

// NewSim creates an idle simulated driver at position 0 with outputs off.
func NewSim() *Sim {
	return &Sim{}
}

// calcMoveTime splits a move into ramp and cruise phases.
// Zero acceleration degenerates to a pure cruise.
func calcMoveTime(dist, speed, accel float64) (accelT, cruiseT, cruiseV float64) {
	if accel == 0 || dist == 0 {
		return 0, dist / speed, speed
	}
	maxCruiseV2 := dist * accel
	if maxCruiseV2 < speed*speed {
		speed = math.Sqrt(maxCruiseV2)
	}
	accelT = speed / accel
	accelDecelD := accelT * speed
	cruiseT = (dist - accelDecelD) / speed
	return accelT, cruiseT, speed
}

// settle folds a completed move into the resting position. Callers hold mu.
func (s *Sim) settle(now time.Time) {
	if s.move == nil {
		return
	}
	if now.Sub(s.move.start).Seconds() >= s.move.totalT {
		s.pos = s.move.from + s.move.dir*s.move.dist
		s.move = nil
	}
}

// sample returns position and signed speed at the given time. Callers hold mu.
func (s *Sim) sample(now time.Time) (pos, speed float64) {
	if s.move == nil {
		return s.pos, 0
	}
	m := s.move
	e := now.Sub(m.start).Seconds()

	var d, v float64
	switch {
	case e <= 0:
		d, v = 0, 0
	case e < m.accelT:
		d = 0.5 * s.accel * e * e
		v = s.accel * e
	case e < m.accelT+m.cruiseT:
		d = 0.5*s.accel*m.accelT*m.accelT + m.cruiseV*(e-m.accelT)
		v = m.cruiseV
	case e < m.totalT:
		remaining := m.totalT - e
		d = m.dist - 0.5*s.accel*remaining*remaining
		v = s.accel * remaining
	default:
		d, v = m.dist, 0
	}
	return m.from + m.dir*d, m.dir * v
}

func (s *Sim) startMove(target float64) {
	now := time.Now()
	s.settle(now)
	if s.move != nil {
		// Re-target mid-move: freeze where we are, then go from rest.
		s.pos, _ = s.sample(now)
		s.move = nil
	}

	dist := target - s.pos
	if dist == 0 || s.speedHz <= 0 {
		return
	}
	dir := 1.0
	if dist < 0 {
		dir = -1.0
		dist = -dist
	}

	accelT, cruiseT, cruiseV := calcMoveTime(dist, s.speedHz, s.accel)
	s.move = &simMove{
		start:   now,
		from:    s.pos,
		dist:    dist,
		dir:     dir,
		accelT:  accelT,
		cruiseT: cruiseT,
		totalT:  2*accelT + cruiseT,
		cruiseV: cruiseV,
	}
}

// EnableOutputs implements Driver.
func (s *Sim) EnableOutputs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = true
}

// DisableOutputs implements Driver. Any move in flight is abandoned.
func (s *Sim) DisableOutputs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, _ := s.sample(time.Now())
	s.pos = pos
	s.move = nil
	s.enabled = false
}

// IsEnabled reports whether outputs are energized.
func (s *Sim) IsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetSpeedHz implements Driver.
func (s *Sim) SetSpeedHz(stepsPerSecond int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speedHz = float64(stepsPerSecond)
}

// SetAcceleration implements Driver.
func (s *Sim) SetAcceleration(stepsPerSecondSq int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accel = float64(stepsPerSecondSq)
}

// MoveTo implements Driver.
func (s *Sim) MoveTo(position int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startMove(float64(position))
}

// Move implements Driver.
func (s *Sim) Move(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.settle(now)
	cur, _ := s.sample(now)
	s.pos = cur
	s.move = nil
	s.startMove(cur + float64(delta))
}

// StopMove implements Driver.
func (s *Sim) StopMove() {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, _ := s.sample(time.Now())
	s.pos = pos
	s.move = nil
}

// ForceStopAndNewPosition implements Driver.
func (s *Sim) ForceStopAndNewPosition(position int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.move = nil
	s.pos = float64(position)
}

// SetCurrentPosition implements Driver.
func (s *Sim) SetCurrentPosition(position int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.move = nil
	s.pos = float64(position)
}

// IsRunning implements Driver.
func (s *Sim) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settle(time.Now())
	return s.move != nil
}

// CurrentPosition implements Driver.
func (s *Sim) CurrentPosition() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.settle(now)
	pos, _ := s.sample(now)
	return int(math.Round(pos))
}

// CurrentSpeed implements Driver.
func (s *Sim) CurrentSpeed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.settle(now)
	_, v := s.sample(now)
	return int(math.Round(v))
}
