package config

import (
	"slices"

	"github.com/san-kum/vicsek/internal/vicsek"
)

// Presets are named parameter sets around the flocking transition of the
// default domain.
var Presets = map[string]func(*Config){
	"ordered": func(c *Config) {
		c.Simulation.NoiseAmplitude = 0.1
	},
	"disordered": func(c *Config) {
		c.Simulation.NoiseAmplitude = 5.0
	},
	"critical": func(c *Config) {
		c.Simulation.NoiseAmplitude = 2.0
		c.Simulation.ParticleCount = 1000
		c.Simulation.NeighborSearch = vicsek.SearchGrid
		c.Simulation.BurnIn = 500
		c.Simulation.AvgWindow = 500
		c.Run.Steps = 2000
	},
	"aligned": func(c *Config) {
		c.Simulation.InitHeadings = vicsek.HeadingsAligned
		c.Simulation.NoiseAmplitude = 1.0
	},
	"grid": func(c *Config) {
		c.Simulation.InitPositions = vicsek.PositionsGrid
		c.Simulation.InitHeadings = vicsek.HeadingsCone
	},
	"dense": func(c *Config) {
		c.Simulation.ParticleCount = 4000
		c.Simulation.InteractionRadius = 2.5
		c.Simulation.NeighborSearch = vicsek.SearchGrid
		c.Simulation.Workers = 4
		c.Simulation.Trails = 0
	},
}

// GetPreset returns a fresh config with the named preset applied on top of
// the defaults, or nil for an unknown name.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
