// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Steering   SteeringConfig   `yaml:"steering"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Logging    LoggingConfig    `yaml:"logging"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimulationConfig holds the tick loop parameters.
type SimulationConfig struct {
	DT       float64 `yaml:"dt"`        // seconds per tick
	MaxTicks int32   `yaml:"max_ticks"` // 0 runs until interrupted
	Scene    string  `yaml:"scene"`     // scene file, plain or YAML by extension
	Seed     int64   `yaml:"seed"`      // 0 picks a seed from the clock
}

// SteeringConfig holds defaults for steering objects.
type SteeringConfig struct {
	EntityVMax float64 `yaml:"entity_vmax"` // VMax of Entity steerables without one; negative is unlimited
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`          // seconds per stats window
	TrajectoryEvery     int32   `yaml:"trajectory_every"`      // ticks between trajectory samples, 0 disables
	PerfCollectorWindow int     `yaml:"perf_collector_window"` // ticks in the rolling perf window
	BookmarkHistorySize int     `yaml:"bookmark_history_size"` // windows kept for bookmark detection
	EncounterRadius     float64 `yaml:"encounter_radius"`      // agents closer than this count as an encounter
	SnapshotOnBookmark  bool    `yaml:"snapshot_on_bookmark"`  // write a snapshot whenever a bookmark fires
}

// LoggingConfig holds logging parameters.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn or error
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	TicksPerWindow int32      // Telemetry.StatsWindow in ticks
	LogLevel       slog.Level // parsed Logging.Level
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived validates the loaded values and calculates derived ones.
func (c *Config) computeDerived() error {
	if c.Simulation.DT <= 0 {
		return errors.New("config: simulation.dt must be positive")
	}
	if c.Telemetry.StatsWindow <= 0 {
		return errors.New("config: telemetry.stats_window must be positive")
	}

	c.Derived.TicksPerWindow = int32(math.Round(c.Telemetry.StatsWindow / c.Simulation.DT))
	if c.Derived.TicksPerWindow < 1 {
		c.Derived.TicksPerWindow = 1
	}

	c.Derived.LogLevel = slog.LevelInfo
	if c.Logging.Level != "" {
		if err := c.Derived.LogLevel.UnmarshalText([]byte(c.Logging.Level)); err != nil {
			return fmt.Errorf("config: logging.level: %w", err)
		}
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
