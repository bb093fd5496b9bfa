// YAML machine configuration loading.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfigFile wraps failures loading or validating a machine config file.
var ErrConfigFile = errors.New("config: invalid config file")

// File is the top-level YAML configuration for the stroked daemon.
//
// The file is the primary configuration surface; flags only override small
// pieces of it. Defaults and validation live here so the rest of the code can
// assume a well-formed config.
type File struct {
	Geometry MachineGeometry `yaml:"geometry"`
	Motor    MotorProperties `yaml:"motor"`
	Homing   HomingConfig    `yaml:"homing"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// HomingConfig describes the homing switch input line and search speed.
type HomingConfig struct {
	// Chip is the GPIO character device holding the switch line.
	Chip string `yaml:"chip"`

	// Line is the line offset on the chip.
	Line int `yaml:"line"`

	// ActiveLow is the polarity of the switch signal.
	ActiveLow bool `yaml:"active_low"`

	// SpeedMMPerSec is the feedrate used to find the switch.
	SpeedMMPerSec float64 `yaml:"speed_mm_s"`
}

// LoggingConfig controls the daemon's log output.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
}

// Default returns a config for a typical OSSM-style build. Used when no file
// is given and as the base that a loaded file overrides.
func Default() File {
	return File{
		Geometry: MachineGeometry{
			PhysicalTravel:  160.0,
			KeepoutBoundary: 5.0,
		},
		Motor: MotorProperties{
			StepsPerRevolution: 2000,
			MaxRPM:             3000,
			MaxAcceleration:    100000,
			StepsPerMillimeter: 50.0,
			EnableActiveLow:    true,
			StepPin:            "gpio14",
			DirectionPin:       "gpio27",
			EnablePin:          "gpio26",
		},
		Homing: HomingConfig{
			Chip:          "/dev/gpiochip0",
			Line:          12,
			ActiveLow:     true,
			SpeedMMPerSec: 5.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file on top of the defaults and validates it.
func Load(path string) (File, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrConfigFile, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return File{}, fmt.Errorf("%w: parse %s: %v", ErrConfigFile, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return File{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (f File) Validate() error {
	if err := f.Geometry.Validate(); err != nil {
		return err
	}
	if err := f.Motor.Validate(); err != nil {
		return err
	}
	if f.Homing.SpeedMMPerSec <= 0 {
		return fmt.Errorf("%w: homing speed_mm_s %.2f must be > 0", ErrConfigFile, f.Homing.SpeedMMPerSec)
	}
	if f.Homing.Line < 0 {
		return fmt.Errorf("%w: homing line %d must be >= 0", ErrConfigFile, f.Homing.Line)
	}
	return nil
}
