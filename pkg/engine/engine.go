// Package engine implements the motion supervisor for a single linear
// stroking axis: the lifecycle state machine, the homing protocol and the
// per-cycle motion-profile computation with crash-avoidance deceleration.
//
// The engine owns the machine description and derived step-space limits and
// consumes two injected capabilities: a stepper driver executing trapezoidal
// moves and an ordered registry of motion patterns supplying targets.
package engine

import (
	"errors"
	"sync"
	"time"

	"strokeengine/pkg/config"
	"strokeengine/pkg/log"
	"strokeengine/pkg/metrics"
	"strokeengine/pkg/pattern"
	"strokeengine/pkg/stepper"
)

// Common errors
var (
	ErrNoDriver   = errors.New("engine: stepper driver is required")
	ErrNoPatterns = errors.New("engine: at least one pattern is required")
)

// State is the engine lifecycle state.
type State int

const (
	// Disabled: no power to the motor, position unknown. Initial state.
	Disabled State = iota

	// Ready: motor energized and homed, not running a pattern.
	Ready

	// Running: a pattern is driving the axis.
	Running

	// StateError: terminal fault. Cleared only by constructing a new engine.
	StateError
)

func (s State) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Timing and clamps.
const (
	strokeCycleInterval = 10 * time.Millisecond
	homingPollInterval  = 20 * time.Millisecond
	backoffPollInterval = 100 * time.Millisecond

	minTimeOfStroke = 0.01
	maxTimeOfStroke = 120.0

	minSensation = -100.0
	maxSensation = 100.0

	// Conservative moves (homing search, manual jogs) run at a tenth of the
	// maximum acceleration.
	conservativeAccelDiv = 10
)

// Config assembles an Engine.
type Config struct {
	Geometry config.MachineGeometry
	Motor    config.MotorProperties
	Driver   stepper.Driver
	Patterns *pattern.Registry

	// Logger defaults to the package logger with prefix "engine".
	Logger *log.Logger

	// Metrics defaults to a private registry.
	Metrics *metrics.Registry
}

type homingRun struct {
	cancel func()
	done   chan struct{}
}

// Engine is the top-level motion supervisor for one actuator.
type Engine struct {
	mu sync.Mutex

	geometry config.MachineGeometry
	motor    config.MotorProperties
	limits   config.Limits
	driver   stepper.Driver
	patterns *pattern.Registry
	logger   *log.Logger

	state   State
	isHomed bool

	// Motion intent, re-injected into whichever pattern is selected.
	patternIndex int
	index        int
	depth        int
	stroke       int
	timeOfStroke float64
	sensation    float64

	// homeOffset is the switch location in steps: -keepoutBoundary.
	homeOffset int

	homing *homingRun

	strokes         *metrics.Counter
	crashOverrides  *metrics.Counter
	homingAttempts  *metrics.Counter
	homingSuccesses *metrics.Counter
	stateGauge      *metrics.Gauge
}

// New validates the machine description, derives the step-space limits and
// returns an engine in the Disabled state with driver outputs off.
func New(cfg Config) (*Engine, error) {
	if cfg.Driver == nil {
		return nil, ErrNoDriver
	}
	if cfg.Patterns == nil || cfg.Patterns.Len() == 0 {
		return nil, ErrNoPatterns
	}

	limits, err := config.DeriveLimits(cfg.Geometry, cfg.Motor)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.GetLogger("engine")
	}
	reg := cfg.Metrics
	if reg == nil {
		reg = metrics.NewRegistry()
	}

	e := &Engine{
		geometry: cfg.Geometry,
		motor:    cfg.Motor,
		limits:   limits,
		driver:   cfg.Driver,
		patterns: cfg.Patterns,
		logger:   logger,

		state:        Disabled,
		patternIndex: 0,
		depth:        limits.MaxStep,
		stroke:       limits.MaxStep / 3,
		timeOfStroke: 1.0,
		sensation:    0.0,
		homeOffset:   -round(cfg.Geometry.KeepoutBoundary * cfg.Motor.StepsPerMillimeter),

		strokes:         reg.Counter("stroked_strokes_total", "Completed stroke cycles"),
		crashOverrides:  reg.Counter("stroked_crash_overrides_total", "Pattern accelerations raised to avoid a travel-limit crash"),
		homingAttempts:  reg.Counter("stroked_homing_attempts_total", "Homing procedures started"),
		homingSuccesses: reg.Counter("stroked_homing_successes_total", "Homing procedures that found the switch"),
		stateGauge:      reg.Gauge("stroked_engine_state", "Engine state (0 disabled, 1 ready, 2 running, 3 error)"),
	}

	e.driver.DisableOutputs()
	e.stateGauge.Set(float64(Disabled))
	e.logger.Info("engine initialized: travel %d steps, max %d steps/s, max %d steps/s^2",
		limits.MaxStep, limits.MaxStepPerSecond, limits.MaxStepAcceleration)
	return e, nil
}

// setStateLocked updates the state and its gauge. Callers hold mu.
func (e *Engine) setStateLocked(s State) {
	if e.state == s {
		return
	}
	e.logger.Debug("state %s -> %s", e.state, s)
	e.state = s
	e.stateGauge.Set(float64(s))
}

// currentPatternLocked returns the selected pattern. patternIndex is only
// ever set through SetPattern, so the lookup cannot fail. Callers hold mu.
func (e *Engine) currentPatternLocked() pattern.Pattern {
	p, _ := e.patterns.Get(e.patternIndex)
	return p
}

// GetState returns the current lifecycle state.
func (e *Engine) GetState() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IsHomed reports whether a physical reference position is established.
func (e *Engine) IsHomed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isHomed
}

// SetSpeed sets the stroking speed in strokes per minute. The value is
// converted to seconds per stroke and clamped to [0.01s, 120s].
func (e *Engine) SetSpeed(strokesPerMinute float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.timeOfStroke = clampFloat(60.0/strokesPerMinute, minTimeOfStroke, maxTimeOfStroke)
	e.currentPatternLocked().SetTimeOfStroke(e.timeOfStroke)
	e.logger.Debug("setSpeed: timeOfStroke %.2fs", e.timeOfStroke)
}

// TimeOfStroke returns the current seconds-per-stroke value.
func (e *Engine) TimeOfStroke() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeOfStroke
}

// SetDepth sets the maximum insertion depth in mm, clamped to the usable
// travel.
func (e *Engine) SetDepth(mm float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.depth = clampInt(round(mm*e.motor.StepsPerMillimeter), e.limits.MinStep, e.limits.MaxStep)
	e.currentPatternLocked().SetDepth(e.depth)
	e.logger.Debug("setDepth: %d steps", e.depth)
}

// Depth returns the current depth in steps.
func (e *Engine) Depth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.depth
}

// SetStroke sets the stroke length in mm, clamped to the usable travel.
func (e *Engine) SetStroke(mm float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stroke = clampInt(round(mm*e.motor.StepsPerMillimeter), e.limits.MinStep, e.limits.MaxStep)
	e.currentPatternLocked().SetStroke(e.stroke)
	e.logger.Debug("setStroke: %d steps", e.stroke)
}

// Stroke returns the current stroke length in steps.
func (e *Engine) Stroke() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stroke
}

// SetSensation sets the pattern shape parameter, clamped to [-100, 100].
func (e *Engine) SetSensation(sensation float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sensation = clampFloat(sensation, minSensation, maxSensation)
	e.currentPatternLocked().SetSensation(e.sensation)
	e.logger.Debug("setSensation: %.1f", e.sensation)
}

// Sensation returns the current sensation value.
func (e *Engine) Sensation() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sensation
}

// SetPattern selects the pattern at index. The current motion intent is
// injected into the new pattern and its step index restarts at 0. Returns
// false and keeps the previous pattern when index is out of range.
func (e *Engine) SetPattern(index int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.patterns.Get(index)
	if !ok {
		e.logger.Warn("setPattern: index %d out of range", index)
		return false
	}

	e.patternIndex = index
	p.SetTimeOfStroke(e.timeOfStroke)
	p.SetDepth(e.depth)
	p.SetStroke(e.stroke)
	p.SetSensation(e.sensation)
	e.index = 0

	e.logger.Info("setPattern: [%d] %s", index, p.Name())
	return true
}

// PatternIndex returns the index of the selected pattern.
func (e *Engine) PatternIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.patternIndex
}

// PatternJSON enumerates the available patterns as [{"<name>": <index>},...]
// for external listing.
func (e *Engine) PatternJSON() string {
	return e.patterns.JSON()
}

// StartMotion begins pattern playback. Only legal from Ready; a pending move
// is first stopped at the maximum legal deceleration.
func (e *Engine) StartMotion() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Ready {
		e.logger.Warn("startMotion refused in state %s", e.state)
		return false
	}

	e.cancelHomingLocked()

	// Stop a pending manual move as fast as legally allowed.
	if e.driver.IsRunning() {
		e.driver.SetAcceleration(e.limits.MaxStepAcceleration)
		e.driver.StopMove()
	}

	e.setStateLocked(Running)

	// Restart the pattern from scratch with the current motion intent.
	e.index = -1
	p := e.currentPatternLocked()
	p.SetTimeOfStroke(e.timeOfStroke)
	p.SetDepth(e.depth)
	p.SetStroke(e.stroke)
	p.SetSensation(e.sensation)

	go e.stroking()

	e.logger.Info("motion started with pattern [%d] %s", e.patternIndex, p.Name())
	return true
}

// StopMotion halts pattern playback at the maximum legal deceleration.
// No-op unless Running.
func (e *Engine) StopMotion() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopMotionLocked()
}

func (e *Engine) stopMotionLocked() {
	if e.state != Running {
		return
	}
	e.driver.SetAcceleration(e.limits.MaxStepAcceleration)
	e.driver.StopMove()
	e.setStateLocked(Ready)
	e.logger.Info("motion stopped")
}

// ApplyNewSettingsNow pushes the pattern's target for the current index to
// the driver immediately, without waiting for the running move to finish.
// Only legal while Running.
func (e *Engine) ApplyNewSettingsNow() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Running {
		return false
	}

	target := e.currentPatternLocked().NextTarget(e.index)
	e.applyMotionProfileLocked(target)
	e.logger.Debug("settings applied mid-stroke at index %d", e.index)
	return true
}

// ThisIsHome establishes the current physical position as home without
// moving: for machines without a homing switch, push the effector all the
// way in first. Refused only in the terminal error state.
func (e *Engine) ThisIsHome() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateError {
		return
	}

	e.driver.EnableOutputs()
	e.driver.SetCurrentPosition(e.homeOffset)
	e.isHomed = true
	e.setStateLocked(Ready)
	e.logger.Info("position forced to home (%d steps)", e.homeOffset)
}

// MoveToMax drives to the maximum position at the given speed in mm/s with
// conservative acceleration. Requires an established home; stops any running
// pattern and ends in Ready.
func (e *Engine) MoveToMax(speedMMPerSec float64) bool {
	return e.moveToEnd(e.limits.MaxStep, speedMMPerSec)
}

// MoveToMin drives to position zero, see MoveToMax.
func (e *Engine) MoveToMin(speedMMPerSec float64) bool {
	return e.moveToEnd(e.limits.MinStep, speedMMPerSec)
}

func (e *Engine) moveToEnd(target int, speedMMPerSec float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.isHomed {
		return false
	}

	e.stopMotionLocked()
	e.applyMotionProfileLocked(pattern.MotionParameter{
		Position:     target,
		Speed:        round(speedMMPerSec * e.motor.StepsPerMillimeter),
		Acceleration: e.limits.MaxStepAcceleration / conservativeAccelDiv,
	})
	e.setStateLocked(Ready)
	e.logger.Info("manual move to %d steps", target)
	return true
}

// Disable de-energizes the motor, cancels homing and clears the homed flag.
// Always legal. The terminal error state is not cleared: a fault survives
// Disable and only a new engine instance leaves it.
func (e *Engine) Disable() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelHomingLocked()
	e.isHomed = false
	e.driver.DisableOutputs()
	if e.state != StateError {
		e.setStateLocked(Disabled)
	}
	e.logger.Info("engine disabled, homing required to continue")
}

// SafeState disables the actuator and latches the terminal error state.
// Intended for motor fault signals. Recovery is a full restart, modeled as
// constructing a new engine.
func (e *Engine) SafeState() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelHomingLocked()
	e.isHomed = false
	e.driver.DisableOutputs()
	e.setStateLocked(StateError)
	e.logger.Error("entered safe state; power-cycle to clear fault")
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v != v { // NaN
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round(x float64) int {
	if x < 0 {
		return -int(-x + 0.5)
	}
	return int(x + 0.5)
}
