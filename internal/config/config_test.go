package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Model != "pendulum" {
		t.Errorf("default model = %q", cfg.Model)
	}
	if cfg.Steps != DefaultSteps || cfg.ShootingLength != DefaultShootingLength {
		t.Errorf("default horizon = %d/%d", cfg.Steps, cfg.ShootingLength)
	}
	if cfg.Loss.TorqueWeight != DefaultTorqueWeight {
		t.Errorf("default torque weight = %g", cfg.Loss.TorqueWeight)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trajopt.yaml")

	cfg := DefaultConfig()
	cfg.Model = "springchain"
	cfg.Steps = 120
	cfg.ShootingLength = 30
	cfg.TuneStartingPoint = true
	cfg.FinalState = []float64{0.5, 0, 0, 0}
	cfg.Loss.GoalPos = []float64{0.5, 0}
	cfg.ModelParams.Masses = 2

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got.Model != cfg.Model || got.Steps != cfg.Steps || got.ShootingLength != cfg.ShootingLength {
		t.Errorf("round trip: got %s %d/%d", got.Model, got.Steps, got.ShootingLength)
	}
	if !got.TuneStartingPoint {
		t.Error("tune_starting_point lost in round trip")
	}
	if len(got.FinalState) != 4 || got.FinalState[0] != 0.5 {
		t.Errorf("final_state round trip: %v", got.FinalState)
	}
	if len(got.Loss.GoalPos) != 2 || got.Loss.GoalPos[0] != 0.5 {
		t.Errorf("goal_pos round trip: %v", got.Loss.GoalPos)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("model: springchain\nsteps: 50\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model != "springchain" || cfg.Steps != 50 {
		t.Errorf("explicit fields: %s %d", cfg.Model, cfg.Steps)
	}
	if cfg.ShootingLength != DefaultShootingLength || cfg.Accuracy != DefaultAccuracy {
		t.Error("unset fields should keep their defaults")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"zero steps":         func(c *Config) { c.Steps = 0 },
		"zero shooting":      func(c *Config) { c.ShootingLength = 0 },
		"zero dt":            func(c *Config) { c.Dt = 0 },
		"loop and endpoint":  func(c *Config) { c.EnforceLoop = true; c.FinalState = []float64{0, 0} },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}
