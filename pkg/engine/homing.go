// Homing against a switch on a GPIO input line.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package engine

import (
	"context"
	"time"

	"strokeengine/pkg/gpio"
)

// EnableAndHome energizes the motor and locates the homing switch in the
// background. speedMMPerSec is the search speed; done, if non-nil, is called
// exactly once from the homing goroutine with the outcome. A homing run
// already in flight is cancelled and waited out before the new one starts.
//
// On success the engine is Ready with the switch position defined as
// -keepoutBoundary; on failure (switch never seen over the full physical
// travel) outputs are cut and the engine returns to Disabled.
func (e *Engine) EnableAndHome(line gpio.Line, activeLow bool, speedMMPerSec float64, done func(homed bool)) {
	e.mu.Lock()
	prev := e.homing
	if prev != nil {
		prev.cancel()
		e.homing = nil
	}
	e.mu.Unlock()
	if prev != nil {
		<-prev.done
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateError {
		e.logger.Warn("homing refused in error state")
		if done != nil {
			go done(false)
		}
		return
	}

	e.stopMotionLocked()
	e.isHomed = false
	e.driver.EnableOutputs()

	ctx, cancel := context.WithCancel(context.Background())
	run := &homingRun{cancel: cancel, done: make(chan struct{})}
	e.homing = run
	e.homingAttempts.Inc()

	speed := round(speedMMPerSec * e.motor.StepsPerMillimeter)
	e.logger.Info("homing started at %d steps/s", speed)
	go e.homingProcedure(ctx, run, line, activeLow, speed, done)
}

// cancelHomingLocked aborts a homing run in flight. The goroutine notices
// the cancelled context at its next poll and exits without touching engine
// state. Callers hold mu.
func (e *Engine) cancelHomingLocked() {
	if e.homing != nil {
		e.homing.cancel()
		e.homing = nil
	}
}

// homingProcedure runs off the engine lock, taking it only to publish the
// outcome. The driver is not shared with a pattern here: homing and playback
// are mutually exclusive by construction.
func (e *Engine) homingProcedure(ctx context.Context, run *homingRun, line gpio.Line, activeLow bool, speed int, done func(bool)) {
	defer close(run.done)

	d := e.driver
	d.SetSpeedHz(speed)
	d.SetAcceleration(e.limits.MaxStepAcceleration / conservativeAccelDiv)

	keepout := -e.homeOffset

	if e.switchActive(line, activeLow) {
		// Already on the switch: back off clear of it, then approach again
		// from a known-free position.
		d.Move(2 * keepout)
		if !e.waitMoveDone(ctx, backoffPollInterval) {
			return
		}
		d.Move(-4 * keepout)
	} else {
		// Sweep the whole physical travel towards the switch.
		d.Move(-round(e.geometry.PhysicalTravel * e.motor.StepsPerMillimeter))
	}

	homed := false
	ticker := time.NewTicker(homingPollInterval)
	defer ticker.Stop()
	for d.IsRunning() {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if e.switchActive(line, activeLow) {
			// The switch sits keepout inside the physical end stop, which
			// makes it -keepout in the usable coordinate system.
			d.ForceStopAndNewPosition(e.homeOffset)
			d.MoveTo(0)
			homed = true
			break
		}
	}

	e.mu.Lock()
	if ctx.Err() != nil {
		e.mu.Unlock()
		return
	}
	e.isHomed = homed
	if homed {
		e.setStateLocked(Ready)
		e.homingSuccesses.Inc()
	} else {
		e.driver.DisableOutputs()
		e.setStateLocked(Disabled)
	}
	e.homing = nil
	e.mu.Unlock()

	if homed {
		e.logger.Info("homing complete")
	} else {
		e.logger.Warn("homing failed: switch not found within physical travel")
	}
	if done != nil {
		done(homed)
	}
}

// switchActive samples the homing switch, folding in its polarity. A read
// error counts as not pressed so a flaky line degrades into a homing
// timeout instead of a false home.
func (e *Engine) switchActive(line gpio.Line, activeLow bool) bool {
	raw, err := line.Read()
	if err != nil {
		e.logger.Warn("homing switch read failed: %v", err)
		return false
	}
	return raw != activeLow
}

// waitMoveDone polls the driver until the current move finishes. False means
// the context was cancelled first.
func (e *Engine) waitMoveDone(ctx context.Context, interval time.Duration) bool {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for e.driver.IsRunning() {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
	return true
}
