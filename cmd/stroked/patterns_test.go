package main

import (
	"testing"

	"strokeengine/pkg/pattern"
)

func configure(p pattern.Pattern) {
	p.SetTimeOfStroke(2.0)
	p.SetDepth(5000)
	p.SetStroke(3000)
	p.SetSensation(0)
}

func TestSimpleStrokeAlternates(t *testing.T) {
	p := &simpleStroke{}
	configure(p)

	in := p.NextTarget(0)
	out := p.NextTarget(1)

	if in.Position != 5000 {
		t.Errorf("even index position = %d, want 5000", in.Position)
	}
	if out.Position != 2000 {
		t.Errorf("odd index position = %d, want 2000", out.Position)
	}

	// 3000 steps in one second with third-ramps: peak 4500 steps/s.
	if in.Speed != 4500 {
		t.Errorf("speed = %d, want 4500", in.Speed)
	}
	if in.Acceleration != 13500 {
		t.Errorf("acceleration = %d, want 13500", in.Acceleration)
	}

	// The retraction uses the same profile.
	if out.Speed != in.Speed || out.Acceleration != in.Acceleration {
		t.Errorf("retraction profile {%d %d} differs from insertion {%d %d}",
			out.Speed, out.Acceleration, in.Speed, in.Acceleration)
	}
}

func TestSimpleStrokeZeroStroke(t *testing.T) {
	p := &simpleStroke{}
	p.SetTimeOfStroke(1.0)
	p.SetDepth(5000)
	p.SetStroke(0)

	got := p.NextTarget(0)
	if got.Speed != 1 || got.Acceleration != 1 {
		t.Errorf("zero-stroke profile = {%d %d}, want {1 1}", got.Speed, got.Acceleration)
	}
}

func TestDeeperRampsUp(t *testing.T) {
	p := &deeper{}
	configure(p) // sensation 0: an 11-cycle ramp, 272 steps per cycle

	first := p.NextTarget(0)
	if first.Position != 2272 {
		t.Errorf("first insertion = %d, want 2272", first.Position)
	}
	if got := p.NextTarget(1); got.Position != 2000 {
		t.Errorf("retraction = %d, want 2000", got.Position)
	}

	second := p.NextTarget(2)
	if second.Position != 2544 {
		t.Errorf("second insertion = %d, want 2544", second.Position)
	}
	if second.Position <= first.Position {
		t.Errorf("insertion depth did not grow: %d then %d", first.Position, second.Position)
	}

	// The ramp wraps around after 11 cycles.
	wrapped := p.NextTarget(22)
	if wrapped.Position != first.Position {
		t.Errorf("insertion after wrap = %d, want %d", wrapped.Position, first.Position)
	}
}

func TestDeeperSensationPicksRampLength(t *testing.T) {
	p := &deeper{}
	configure(p)
	p.SetSensation(-100) // single-cycle ramp: full strokes immediately

	if got := p.NextTarget(0); got.Position != 5000 {
		t.Errorf("insertion at sensation -100 = %d, want 5000", got.Position)
	}

	p.SetSensation(100) // 21-cycle ramp: short first stroke
	if got := p.NextTarget(0); got.Position != 2142 {
		t.Errorf("insertion at sensation 100 = %d, want 2142", got.Position)
	}
}

func TestDefaultPatternsListing(t *testing.T) {
	reg := defaultPatterns()
	if got := reg.JSON(); got != `[{"simple-stroke":0},{"deeper":1}]` {
		t.Errorf("pattern listing = %s", got)
	}
}
