// Package config holds the immutable physical description of the stroking
// machine and the step-space limits derived from it once at startup.
package config

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrBadGeometry = errors.New("config: invalid machine geometry")
	ErrBadMotor    = errors.New("config: invalid motor properties")
)

// MachineGeometry describes the physical travel of the stroking axis.
// Immutable after construction.
type MachineGeometry struct {
	// PhysicalTravel is the maximum physical travel in mm.
	PhysicalTravel float64 `yaml:"physical_travel"`

	// KeepoutBoundary is a soft endstop margin in mm, subtracted from both
	// ends of the physical travel. Must be large enough to drive clear of
	// the homing switch.
	KeepoutBoundary float64 `yaml:"keepout_boundary"`
}

// Validate checks the geometry for physical plausibility.
func (g MachineGeometry) Validate() error {
	if g.PhysicalTravel <= 0 {
		return fmt.Errorf("%w: physical_travel %.2f must be > 0", ErrBadGeometry, g.PhysicalTravel)
	}
	if g.KeepoutBoundary < 0 {
		return fmt.Errorf("%w: keepout_boundary %.2f must be >= 0", ErrBadGeometry, g.KeepoutBoundary)
	}
	if g.PhysicalTravel <= 2*g.KeepoutBoundary {
		return fmt.Errorf("%w: keepout_boundary %.2f leaves no usable travel of %.2f",
			ErrBadGeometry, g.KeepoutBoundary, g.PhysicalTravel)
	}
	return nil
}

// Travel returns the usable travel in mm after subtracting the keepout
// boundary from both ends.
func (g MachineGeometry) Travel() float64 {
	return g.PhysicalTravel - 2*g.KeepoutBoundary
}

// MotorProperties describes a stepper or servo with a STEP/DIR interface and
// the motion system translating rotation into linear travel.
// Immutable after construction.
type MotorProperties struct {
	// StepsPerRevolution is the number of steps per motor revolution.
	StepsPerRevolution int `yaml:"steps_per_revolution"`

	// MaxRPM is the maximum speed of the motor.
	MaxRPM int `yaml:"max_rpm"`

	// MaxAcceleration is the maximum acceleration in mm/s^2.
	MaxAcceleration int `yaml:"max_acceleration"`

	// StepsPerMillimeter converts linear travel to steps.
	StepsPerMillimeter float64 `yaml:"steps_per_millimeter"`

	// InvertDirection flips the DIR signal. The homing switch is expected at
	// the end of a retraction move so the machine homes away from the body.
	InvertDirection bool `yaml:"invert_direction"`

	// EnableActiveLow is the polarity of the enable signal.
	EnableActiveLow bool `yaml:"enable_active_low"`

	// Pin identifiers, passed through to the stepper driver.
	StepPin      string `yaml:"step_pin"`
	DirectionPin string `yaml:"direction_pin"`
	EnablePin    string `yaml:"enable_pin"`
}

// Validate checks the motor properties for physical plausibility.
func (m MotorProperties) Validate() error {
	if m.StepsPerRevolution <= 0 {
		return fmt.Errorf("%w: steps_per_revolution %d must be > 0", ErrBadMotor, m.StepsPerRevolution)
	}
	if m.MaxRPM <= 0 {
		return fmt.Errorf("%w: max_rpm %d must be > 0", ErrBadMotor, m.MaxRPM)
	}
	if m.MaxAcceleration <= 0 {
		return fmt.Errorf("%w: max_acceleration %d must be > 0", ErrBadMotor, m.MaxAcceleration)
	}
	if m.StepsPerMillimeter <= 0 {
		return fmt.Errorf("%w: steps_per_millimeter %.2f must be > 0", ErrBadMotor, m.StepsPerMillimeter)
	}
	return nil
}

// Limits holds the step-space limits derived once from geometry and motor
// properties. Invariant for the engine's lifetime:
// 0 <= MinStep <= MaxStep, MaxStepPerSecond > 0, MaxStepAcceleration > 0.
type Limits struct {
	MinStep             int
	MaxStep             int
	MaxStepPerSecond    int
	MaxStepAcceleration int
}

// DeriveLimits converts the physical machine description into step space.
func DeriveLimits(geometry MachineGeometry, motor MotorProperties) (Limits, error) {
	if err := geometry.Validate(); err != nil {
		return Limits{}, err
	}
	if err := motor.Validate(); err != nil {
		return Limits{}, err
	}

	return Limits{
		MinStep:             0,
		MaxStep:             round(geometry.Travel() * motor.StepsPerMillimeter),
		MaxStepPerSecond:    round(float64(motor.MaxRPM*motor.StepsPerRevolution) / 60.0),
		MaxStepAcceleration: round(float64(motor.MaxAcceleration * motor.StepsPerRevolution)),
	}, nil
}

func round(x float64) int {
	return int(x + 0.5)
}
