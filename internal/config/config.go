// Package config loads and saves run configuration files.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/vicsek/internal/torus"
	"github.com/san-kum/vicsek/internal/vicsek"
)

const (
	DefaultWidth  = 160.0
	DefaultHeight = 100.0
	DefaultSteps  = 1000
	DefaultFPS    = 30
)

// Config is the on-disk form of a run: model parameters, domain and run
// length.
type Config struct {
	Simulation vicsek.Config `yaml:"simulation" json:"simulation"`
	Domain     torus.Domain  `yaml:"domain" json:"domain"`
	Run        RunConfig     `yaml:"run" json:"run"`
}

type RunConfig struct {
	Steps int `yaml:"steps" json:"steps"`
	FPS   int `yaml:"fps" json:"fps"`
}

func DefaultConfig() *Config {
	return &Config{
		Simulation: vicsek.DefaultConfig(),
		Domain:     DefaultDomain(),
		Run: RunConfig{
			Steps: DefaultSteps,
			FPS:   DefaultFPS,
		},
	}
}

func DefaultDomain() torus.Domain {
	return torus.Domain{Width: DefaultWidth, Height: DefaultHeight}
}

// Load reads a yaml file on top of the defaults, so a file only needs the
// keys it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
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
	if err := c.Simulation.Validate(); err != nil {
		return err
	}
	if err := c.Domain.Validate(); err != nil {
		return &vicsek.ValidationError{Field: "domain", Value: c.Domain, Reason: err.Error()}
	}
	if c.Run.Steps < 0 {
		return &vicsek.ValidationError{Field: "run.steps", Value: c.Run.Steps, Reason: "must be non-negative"}
	}
	if c.Run.FPS <= 0 {
		return &vicsek.ValidationError{Field: "run.fps", Value: c.Run.FPS, Reason: "must be positive"}
	}
	return nil
}

// Density is particles per unit area.
func (c *Config) Density() float64 {
	return float64(c.Simulation.ParticleCount) / c.Domain.Area()
}

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
