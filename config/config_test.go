package config

import (
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if math.Abs(cfg.Simulation.DT-1.0/60) > 1e-6 {
		t.Errorf("dt = %v", cfg.Simulation.DT)
	}
	if cfg.Derived.TicksPerWindow != 300 {
		t.Errorf("ticks per window = %d, want 300", cfg.Derived.TicksPerWindow)
	}
	if cfg.Derived.LogLevel != slog.LevelInfo {
		t.Errorf("log level = %v", cfg.Derived.LogLevel)
	}
	if cfg.Steering.EntityVMax != 5 {
		t.Errorf("entity vmax = %v", cfg.Steering.EntityVMax)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := "simulation:\n  dt: 0.1\n  scene: other.yaml\ntelemetry:\n  stats_window: 2\nlogging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.Scene != "other.yaml" || cfg.Simulation.DT != 0.1 {
		t.Errorf("simulation = %+v", cfg.Simulation)
	}
	if cfg.Simulation.Seed != 42 {
		t.Errorf("seed = %d, want default kept", cfg.Simulation.Seed)
	}
	if cfg.Derived.TicksPerWindow != 20 {
		t.Errorf("ticks per window = %d, want 20", cfg.Derived.TicksPerWindow)
	}
	if cfg.Derived.LogLevel != slog.LevelDebug {
		t.Errorf("log level = %v", cfg.Derived.LogLevel)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"zero dt", "simulation:\n  dt: 0\n"},
		{"negative window", "telemetry:\n  stats_window: -1\n"},
		{"bad level", "logging:\n  level: loud\n"},
		{"not yaml", "simulation: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load succeeded, want error")
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of missing file succeeded")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Simulation.MaxTicks = 77
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Simulation != cfg.Simulation || back.Telemetry != cfg.Telemetry {
		t.Errorf("round trip changed config:\n%+v\n%+v", cfg, back)
	}
}

func TestCfgBeforeInitPanics(t *testing.T) {
	saved := global
	global = nil
	defer func() {
		global = saved
		if recover() == nil {
			t.Error("Cfg before Init did not panic")
		}
	}()
	Cfg()
}
