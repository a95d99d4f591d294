package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt              = 0.01
	DefaultSteps           = 200
	DefaultShootingLength  = 20
	DefaultBarrierStrength = 1.0
	DefaultMaxIterations   = 300
	DefaultAccuracy        = 1e-6
	DefaultTorqueWeight    = 1e-3
	DefaultPosWeight       = 1.0
	DefaultVelWeight       = 0.1
)

type Config struct {
	Model string  `yaml:"model"`
	Dt    float64 `yaml:"dt"`

	Steps             int       `yaml:"steps"`
	ShootingLength    int       `yaml:"shooting_length"`
	TuneStartingPoint bool      `yaml:"tune_starting_point"`
	EnforceLoop       bool      `yaml:"enforce_loop"`
	FinalState        []float64 `yaml:"final_state"`
	DisableActuators  []int     `yaml:"disable_actuators"`
	BarrierStrength   float64   `yaml:"barrier_strength"`

	MaxIterations int     `yaml:"max_iterations"`
	Accuracy      float64 `yaml:"accuracy"`

	InitState   InitStateConfig `yaml:"init_state"`
	Loss        LossConfig      `yaml:"loss"`
	ModelParams ModelConfig     `yaml:"model_params"`
}

type InitStateConfig struct {
	Pos []float64 `yaml:"pos"`
	Vel []float64 `yaml:"vel"`
}

// LossConfig shapes the running and terminal costs: quadratic torque effort
// plus a quadratic pull toward the goal phase at the terminal step.
type LossConfig struct {
	TorqueWeight float64   `yaml:"torque_weight"`
	PosWeight    float64   `yaml:"pos_weight"`
	VelWeight    float64   `yaml:"vel_weight"`
	GoalPos      []float64 `yaml:"goal_pos"`
	GoalVel      []float64 `yaml:"goal_vel"`
}

type ModelConfig struct {
	Mass      float64 `yaml:"mass"`
	Length    float64 `yaml:"length"`
	Damping   float64 `yaml:"damping"`
	Stiffness float64 `yaml:"stiffness"`
	Masses    int     `yaml:"masses"`
	MaxForce  float64 `yaml:"max_force"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:           "pendulum",
		Dt:              DefaultDt,
		Steps:           DefaultSteps,
		ShootingLength:  DefaultShootingLength,
		BarrierStrength: DefaultBarrierStrength,
		MaxIterations:   DefaultMaxIterations,
		Accuracy:        DefaultAccuracy,
		Loss: LossConfig{
			TorqueWeight: DefaultTorqueWeight,
			PosWeight:    DefaultPosWeight,
			VelWeight:    DefaultVelWeight,
		},
		ModelParams: ModelConfig{
			Masses: 2,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Steps <= 0 {
		return fmt.Errorf("config: steps must be positive, got %d", c.Steps)
	}
	if c.ShootingLength <= 0 {
		return fmt.Errorf("config: shooting_length must be positive, got %d", c.ShootingLength)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("config: dt must be positive, got %f", c.Dt)
	}
	if c.EnforceLoop && len(c.FinalState) > 0 {
		return fmt.Errorf("config: enforce_loop and final_state are mutually exclusive")
	}
	return nil
}
