package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/san-kum/vicsek/internal/config"
	"github.com/san-kum/vicsek/internal/vicsek"
)

var (
	configFile string
	preset     string

	particles int
	noise     float64
	radius    float64
	speed     float64
	dt        float64
	seed      int64
	width     float64
	height    float64
	steps     int
	burnIn    int
	window    int
	trails    int
	workers   int
	headings  string
	positions string
	search    string
	frameRate int
)

// addSimFlags registers the simulation flags on cmd. Flag values only
// override the preset and config file when set explicitly.
func addSimFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.IntVarP(&particles, "particles", "n", d.Simulation.ParticleCount, "number of particles")
	f.Float64Var(&noise, "noise", d.Simulation.NoiseAmplitude, "noise amplitude η")
	f.Float64VarP(&radius, "radius", "r", d.Simulation.InteractionRadius, "interaction radius")
	f.Float64Var(&speed, "speed", d.Simulation.Speed, "particle speed")
	f.Float64Var(&dt, "dt", d.Simulation.TimeStep, "time step")
	f.Int64Var(&seed, "seed", d.Simulation.Seed, "random seed")
	f.Float64Var(&width, "width", d.Domain.Width, "domain width")
	f.Float64Var(&height, "height", d.Domain.Height, "domain height")
	f.IntVar(&steps, "steps", d.Run.Steps, "number of steps")
	f.IntVar(&burnIn, "burn-in", d.Simulation.BurnIn, "iterations before averaging")
	f.IntVar(&window, "window", d.Simulation.AvgWindow, "averaging window")
	f.IntVar(&trails, "trails", d.Simulation.Trails, "trail length (0 disables)")
	f.IntVar(&workers, "workers", d.Simulation.Workers, "parallel workers (0 or 1 is sequential)")
	f.StringVar(&headings, "headings", string(d.Simulation.InitHeadings), "initial headings (uniform, aligned, cone)")
	f.StringVar(&positions, "positions", string(d.Simulation.InitPositions), "initial positions (uniform, grid)")
	f.StringVar(&search, "search", string(vicsek.SearchBrute), "neighbor search (brute, grid)")
	f.IntVar(&frameRate, "fps", d.Run.FPS, "frame rate")
}

// resolveConfig builds the effective configuration: defaults, then the
// preset, then the config file, then explicitly set flags.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	f := cmd.Flags()
	sim := &cfg.Simulation
	if f.Changed("particles") {
		sim.ParticleCount = particles
	}
	if f.Changed("noise") {
		sim.NoiseAmplitude = noise
	}
	if f.Changed("radius") {
		sim.InteractionRadius = radius
	}
	if f.Changed("speed") {
		sim.Speed = speed
	}
	if f.Changed("dt") {
		sim.TimeStep = dt
	}
	if f.Changed("seed") {
		sim.Seed = seed
	}
	if f.Changed("burn-in") {
		sim.BurnIn = burnIn
	}
	if f.Changed("window") {
		sim.AvgWindow = window
	}
	if f.Changed("trails") {
		sim.Trails = trails
	}
	if f.Changed("workers") {
		sim.Workers = workers
	}
	if f.Changed("headings") {
		sim.InitHeadings = vicsek.HeadingInit(headings)
	}
	if f.Changed("positions") {
		sim.InitPositions = vicsek.PositionInit(positions)
	}
	if f.Changed("search") {
		sim.NeighborSearch = vicsek.SearchMethod(search)
	}
	if f.Changed("width") {
		cfg.Domain.Width = width
	}
	if f.Changed("height") {
		cfg.Domain.Height = height
	}
	if f.Changed("steps") {
		cfg.Run.Steps = steps
	}
	if f.Changed("fps") {
		cfg.Run.FPS = frameRate
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
