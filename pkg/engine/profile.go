package engine

import (
	"math"

	"strokeengine/pkg/pattern"
)

// applyMotionProfileLocked clamps a pattern target into the legal envelope
// and hands it to the driver. Order matters: speed and acceleration must be
// in effect before the move command latches them. Callers hold mu.
func (e *Engine) applyMotionProfileLocked(m pattern.MotionParameter) {
	e.driver.SetSpeedHz(clampInt(m.Speed, 1, e.limits.MaxStepPerSecond))
	e.driver.SetAcceleration(clampInt(m.Acceleration, 1, e.limits.MaxStepAcceleration))
	e.driver.MoveTo(clampInt(m.Position, e.limits.MinStep, e.limits.MaxStep))
}

// minimumDecelerationLocked returns the smallest deceleration that still
// brings the axis to rest before the travel limit it is heading towards,
// from v^2 = 2*a*d. At or past the limit there is no stopping distance left
// and the full legal deceleration is demanded. Callers hold mu.
func (e *Engine) minimumDecelerationLocked() int {
	speed := e.driver.CurrentSpeed()
	if speed == 0 {
		return 0
	}

	var dist int
	if speed > 0 {
		dist = e.limits.MaxStep - e.driver.CurrentPosition()
	} else {
		dist = e.driver.CurrentPosition() - e.limits.MinStep
	}
	if dist <= 0 {
		return e.limits.MaxStepAcceleration
	}

	v := float64(speed)
	return int(math.Ceil(v * v / (2.0 * float64(dist))))
}
