package config

import (
	"errors"
	"testing"
)

func validGeometry() MachineGeometry {
	return MachineGeometry{PhysicalTravel: 160.0, KeepoutBoundary: 5.0}
}

func validMotor() MotorProperties {
	return MotorProperties{
		StepsPerRevolution: 2000,
		MaxRPM:             3000,
		MaxAcceleration:    100000,
		StepsPerMillimeter: 50.0,
	}
}

func TestGeometryTravel(t *testing.T) {
	g := validGeometry()
	if got := g.Travel(); got != 150.0 {
		t.Errorf("Travel() = %.2f, want 150.00", got)
	}
}

func TestGeometryValidate(t *testing.T) {
	tests := []struct {
		name    string
		g       MachineGeometry
		wantErr bool
	}{
		{"valid", validGeometry(), false},
		{"zero travel", MachineGeometry{PhysicalTravel: 0, KeepoutBoundary: 0}, true},
		{"negative keepout", MachineGeometry{PhysicalTravel: 100, KeepoutBoundary: -1}, true},
		{"keepout swallows travel", MachineGeometry{PhysicalTravel: 10, KeepoutBoundary: 5}, true},
		{"no keepout", MachineGeometry{PhysicalTravel: 100, KeepoutBoundary: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.g.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrBadGeometry) {
				t.Errorf("error %v should wrap ErrBadGeometry", err)
			}
		})
	}
}

func TestMotorValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*MotorProperties)
	}{
		{"zero steps per revolution", func(m *MotorProperties) { m.StepsPerRevolution = 0 }},
		{"zero rpm", func(m *MotorProperties) { m.MaxRPM = 0 }},
		{"zero acceleration", func(m *MotorProperties) { m.MaxAcceleration = 0 }},
		{"zero steps per mm", func(m *MotorProperties) { m.StepsPerMillimeter = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMotor()
			tt.mutate(&m)
			if err := m.Validate(); !errors.Is(err, ErrBadMotor) {
				t.Errorf("Validate() = %v, want ErrBadMotor", err)
			}
		})
	}

	if err := validMotor().Validate(); err != nil {
		t.Errorf("valid motor rejected: %v", err)
	}
}

func TestDeriveLimits(t *testing.T) {
	limits, err := DeriveLimits(validGeometry(), validMotor())
	if err != nil {
		t.Fatalf("DeriveLimits failed: %v", err)
	}

	// 150 mm usable travel at 50 steps/mm.
	if limits.MinStep != 0 {
		t.Errorf("MinStep = %d, want 0", limits.MinStep)
	}
	if limits.MaxStep != 7500 {
		t.Errorf("MaxStep = %d, want 7500", limits.MaxStep)
	}
	// 3000 RPM * 2000 steps/rev / 60 s.
	if limits.MaxStepPerSecond != 100000 {
		t.Errorf("MaxStepPerSecond = %d, want 100000", limits.MaxStepPerSecond)
	}
	if limits.MaxStepAcceleration != 200000000 {
		t.Errorf("MaxStepAcceleration = %d, want 200000000", limits.MaxStepAcceleration)
	}
}

func TestDeriveLimitsInvariants(t *testing.T) {
	geoms := []MachineGeometry{
		{PhysicalTravel: 100, KeepoutBoundary: 0},
		{PhysicalTravel: 160, KeepoutBoundary: 5},
		{PhysicalTravel: 10.5, KeepoutBoundary: 1.25},
	}
	motors := []MotorProperties{
		validMotor(),
		{StepsPerRevolution: 200, MaxRPM: 60, MaxAcceleration: 1, StepsPerMillimeter: 0.5},
		{StepsPerRevolution: 51200, MaxRPM: 1200, MaxAcceleration: 30000, StepsPerMillimeter: 80},
	}

	for _, g := range geoms {
		for _, m := range motors {
			limits, err := DeriveLimits(g, m)
			if err != nil {
				t.Fatalf("DeriveLimits(%+v, %+v) failed: %v", g, m, err)
			}
			if limits.MinStep < 0 || limits.MinStep > limits.MaxStep {
				t.Errorf("invariant violated: MinStep %d, MaxStep %d", limits.MinStep, limits.MaxStep)
			}
			if limits.MaxStepPerSecond <= 0 {
				t.Errorf("MaxStepPerSecond = %d, want > 0", limits.MaxStepPerSecond)
			}
			if limits.MaxStepAcceleration <= 0 {
				t.Errorf("MaxStepAcceleration = %d, want > 0", limits.MaxStepAcceleration)
			}
		}
	}
}

func TestDeriveLimitsRejectsBadInput(t *testing.T) {
	if _, err := DeriveLimits(MachineGeometry{}, validMotor()); err == nil {
		t.Error("expected error for invalid geometry")
	}
	if _, err := DeriveLimits(validGeometry(), MotorProperties{}); err == nil {
		t.Error("expected error for invalid motor")
	}
}

func TestDeriveLimitsRounds(t *testing.T) {
	g := MachineGeometry{PhysicalTravel: 100, KeepoutBoundary: 0}
	m := MotorProperties{
		StepsPerRevolution: 200,
		MaxRPM:             100,
		MaxAcceleration:    3,
		StepsPerMillimeter: 1.007,
	}

	limits, err := DeriveLimits(g, m)
	if err != nil {
		t.Fatalf("DeriveLimits failed: %v", err)
	}
	if limits.MaxStep != 101 {
		t.Errorf("MaxStep = %d, want 101 (round of 100.7)", limits.MaxStep)
	}
	// 100*200/60 = 333.33 rounds down to 333.
	if limits.MaxStepPerSecond != 333 {
		t.Errorf("MaxStepPerSecond = %d, want 333", limits.MaxStepPerSecond)
	}
}
