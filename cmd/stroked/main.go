// stroked supervises a single linear stroking actuator: it homes the axis
// against a switch on a GPIO line, then plays motion patterns inside the
// machine's derived travel and speed limits.
//
// Usage:
//
//	stroked [-config machine.yaml] [options]
//
// Options:
//
//	-config string     Machine configuration file (YAML, defaults built in)
//	-log-level string  Override the configured log level
//	-simulate          Use the simulated stepper driver and a mock switch
//	-list-patterns     Print the pattern listing as JSON and exit
//	-pattern int       Pattern index to play (default 0)
//	-speed float       Stroking speed in strokes/min (default 30)
//	-depth float       Depth in mm (default: full travel)
//	-stroke float      Stroke length in mm (default: a third of travel)
//	-sensation float   Pattern shape parameter in [-100, 100]
//	-metrics           Dump metrics on shutdown
//
// Examples:
//
//	# Simulated run with the built-in machine description
//	stroked -simulate -speed 60
//
//	# Real hardware with a machine file
//	stroked -config /etc/stroked/machine.yaml -pattern 1
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"strokeengine/pkg/config"
	"strokeengine/pkg/engine"
	"strokeengine/pkg/gpio"
	"strokeengine/pkg/log"
	"strokeengine/pkg/metrics"
	"strokeengine/pkg/stepper"
)

func main() {
	configFile := flag.String("config", "", "Machine configuration file (YAML)")
	logLevel := flag.String("log-level", "", "Override the configured log level")
	simulate := flag.Bool("simulate", false, "Use the simulated stepper driver and a mock switch")
	listPatterns := flag.Bool("list-patterns", false, "Print the pattern listing as JSON and exit")
	patternIndex := flag.Int("pattern", 0, "Pattern index to play")
	speed := flag.Float64("speed", 30, "Stroking speed in strokes/min")
	depth := flag.Float64("depth", 0, "Depth in mm (0: full travel)")
	stroke := flag.Float64("stroke", 0, "Stroke length in mm (0: a third of travel)")
	sensation := flag.Float64("sensation", 0, "Pattern shape parameter in [-100, 100]")
	dumpMetrics := flag.Bool("metrics", false, "Dump metrics on shutdown")
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	logger, cleanup, err := setupLogging(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	patterns := defaultPatterns()
	if *listPatterns {
		fmt.Println(patterns.JSON())
		return
	}

	var driver stepper.Driver
	var line gpio.Line
	if *simulate {
		driver = stepper.NewSim()
		mock := gpio.NewMockLine(!cfg.Homing.ActiveLow) // starts pressed
		line = mock
	} else {
		driver = stepper.NewSim() // TODO: real STEP/DIR driver once pulse timing lands
		l, err := gpio.Open(cfg.Homing.Chip, cfg.Homing.Line)
		if err != nil {
			logger.Error("opening homing switch %s:%d: %v", cfg.Homing.Chip, cfg.Homing.Line, err)
			os.Exit(1)
		}
		line = l
	}
	defer line.Close()

	reg := metrics.NewRegistry()
	eng, err := engine.New(engine.Config{
		Geometry: cfg.Geometry,
		Motor:    cfg.Motor,
		Driver:   driver,
		Patterns: patterns,
		Logger:   logger.WithPrefix("engine"),
		Metrics:  reg,
	})
	if err != nil {
		logger.Error("engine init: %v", err)
		os.Exit(1)
	}

	logger.Info("stroked starting: travel %.0fmm, keepout %.0fmm, patterns %s",
		cfg.Geometry.PhysicalTravel, cfg.Geometry.KeepoutBoundary, patterns.JSON())

	homed := make(chan bool, 1)
	eng.EnableAndHome(line, cfg.Homing.ActiveLow, cfg.Homing.SpeedMMPerSec, func(ok bool) { homed <- ok })

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case ok := <-homed:
		if !ok {
			logger.Error("homing failed, shutting down")
			eng.Disable()
			os.Exit(1)
		}
	case sig := <-sigs:
		logger.Info("received %v during homing, shutting down", sig)
		eng.Disable()
		return
	}

	if !eng.SetPattern(*patternIndex) {
		logger.Error("pattern index %d out of range, see -list-patterns", *patternIndex)
		eng.Disable()
		os.Exit(1)
	}
	eng.SetSpeed(*speed)
	if *depth > 0 {
		eng.SetDepth(*depth)
	}
	if *stroke > 0 {
		eng.SetStroke(*stroke)
	}
	eng.SetSensation(*sensation)

	if !eng.StartMotion() {
		logger.Error("motion refused in state %v", eng.GetState())
		eng.Disable()
		os.Exit(1)
	}

	sig := <-sigs
	logger.Info("received %v, stopping motion", sig)
	eng.StopMotion()
	eng.Disable()

	if *dumpMetrics {
		fmt.Print(reg.Render())
	}
}

// setupLogging builds the root logger from the config section with an
// optional level override from the command line.
func setupLogging(cfg config.LoggingConfig, levelOverride string) (*log.Logger, func(), error) {
	cleanup := func() {}

	var logger *log.Logger
	if cfg.File != "" {
		l, w, err := log.NewConsoleAndFileLogger("stroked", log.RotationConfig{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		})
		if err != nil {
			return nil, nil, err
		}
		logger = l
		cleanup = func() { w.Close() }
	} else {
		logger = log.New("stroked")
	}

	logger.SetLevel(log.ParseLevel(cfg.Level))
	if cfg.Format == "json" {
		logger.SetFormat(log.FormatJSON)
	}
	log.ConfigureFromEnv(logger)
	if levelOverride != "" {
		logger.SetLevel(log.ParseLevel(levelOverride))
	}

	log.SetDefaultLogger(logger)
	return logger, cleanup, nil
}
