// Package stepper defines the step-pulse driver capability consumed by the
// engine, plus a simulated implementation for tests and hardware-free runs.
//
// The interface mirrors a trapezoidal-profile stepper driver: the caller sets
// peak speed and acceleration, then issues absolute or relative moves; the
// driver ramps, cruises and decelerates on its own. Actual pulse timing is
// out of scope here.
package stepper

// Driver executes trapezoidal moves on a single axis.
//
// All positions are absolute steps, speeds are steps/s, accelerations are
// steps/s^2. CurrentSpeed is signed: positive toward increasing positions.
type Driver interface {
	// EnableOutputs energizes the motor.
	EnableOutputs()

	// DisableOutputs de-energizes the motor. Position knowledge is lost on
	// real hardware; callers must re-home afterwards.
	DisableOutputs()

	// SetSpeedHz sets the peak speed for subsequent moves.
	SetSpeedHz(stepsPerSecond int)

	// SetAcceleration sets the ramp acceleration for subsequent moves.
	SetAcceleration(stepsPerSecondSq int)

	// MoveTo starts a move to an absolute position.
	MoveTo(position int)

	// Move starts a move relative to the current position.
	Move(delta int)

	// StopMove decelerates the current move to a stop using the configured
	// acceleration.
	StopMove()

	// ForceStopAndNewPosition halts immediately and reassigns the current
	// position without generating motion.
	ForceStopAndNewPosition(position int)

	// SetCurrentPosition reassigns the current position while standing still.
	SetCurrentPosition(position int)

	// IsRunning reports whether a move is in progress.
	IsRunning() bool

	// CurrentPosition returns the current position in steps.
	CurrentPosition() int

	// CurrentSpeed returns the signed current speed in steps/s.
	CurrentSpeed() int
}
