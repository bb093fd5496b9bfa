package engine

import "time"

// stroking is the playback loop. It runs on its own goroutine, one per
// StartMotion, and exits on its own once the engine leaves Running: every
// path out of Running holds the engine lock, so the next cycle observes it.
func (e *Engine) stroking() {
	ticker := time.NewTicker(strokeCycleInterval)
	defer ticker.Stop()

	for range ticker.C {
		if !e.strokeCycle() {
			return
		}
	}
}

// strokeCycle advances playback by at most one stroke. While the driver is
// still executing the previous move nothing happens; once it is idle the
// pattern is asked for the next target and the target's deceleration is
// raised if it could not stop the axis before a travel limit.
func (e *Engine) strokeCycle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Running {
		return false
	}
	if e.driver.IsRunning() {
		return true
	}

	e.index++
	target := e.currentPatternLocked().NextTarget(e.index)

	if min := e.minimumDecelerationLocked(); min > target.Acceleration {
		e.logger.Debug("stroke %d: acceleration raised %d -> %d to stay inside travel",
			e.index, target.Acceleration, min)
		target.Acceleration = min
		e.crashOverrides.Inc()
	}

	e.applyMotionProfileLocked(target)
	e.strokes.Inc()
	return true
}
