package vicsek

import (
	"math"
)

// HeadingInit selects how initial headings are drawn.
type HeadingInit string

const (
	HeadingsUniform HeadingInit = "uniform" // U(0, 2π)
	HeadingsAligned HeadingInit = "aligned" // all zero
	HeadingsCone    HeadingInit = "cone"    // U(-π/8, π/8)
)

// PositionInit selects how initial positions are drawn.
type PositionInit string

const (
	PositionsUniform PositionInit = "uniform"
	PositionsGrid    PositionInit = "grid"
)

// SearchMethod selects the neighbor search implementation. Both methods
// return identical neighbor sets.
type SearchMethod string

const (
	SearchBrute SearchMethod = "brute"
	SearchGrid  SearchMethod = "grid"
)

// Defaults match the reference parameter set of the model.
const (
	DefaultParticleCount     = 300
	DefaultInteractionRadius = 5.0
	DefaultNoiseAmplitude    = 0.5
	DefaultSpeed             = 1.0
	DefaultTimeStep          = 1.0
	DefaultBurnIn            = 200
	DefaultAvgWindow         = 100
	DefaultTrails            = 50
	DefaultSeed              = 42
)

// Config holds the model parameters. Changing ParticleCount, Seed,
// InitHeadings or InitPositions requires a reinitialization; every other
// field applies from the next step on.
type Config struct {
	ParticleCount     int          `yaml:"particle_count" json:"particle_count"`
	InteractionRadius float64      `yaml:"interaction_radius" json:"interaction_radius"`
	NoiseAmplitude    float64      `yaml:"noise_amplitude" json:"noise_amplitude"`
	Speed             float64      `yaml:"speed" json:"speed"`
	TimeStep          float64      `yaml:"time_step" json:"time_step"`
	InitHeadings      HeadingInit  `yaml:"init_headings" json:"init_headings"`
	InitPositions     PositionInit `yaml:"init_positions" json:"init_positions"`
	BurnIn            int          `yaml:"burn_in" json:"burn_in"`
	AvgWindow         int          `yaml:"avg_window" json:"avg_window"`
	Seed              int64        `yaml:"seed" json:"seed"`

	// Trails is the number of recent positions kept per particle for
	// display. Zero disables trails.
	Trails         int          `yaml:"trails" json:"trails"`
	NeighborSearch SearchMethod `yaml:"neighbor_search,omitempty" json:"neighbor_search,omitempty"`
	Workers        int          `yaml:"workers,omitempty" json:"workers,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		ParticleCount:     DefaultParticleCount,
		InteractionRadius: DefaultInteractionRadius,
		NoiseAmplitude:    DefaultNoiseAmplitude,
		Speed:             DefaultSpeed,
		TimeStep:          DefaultTimeStep,
		InitHeadings:      HeadingsUniform,
		InitPositions:     PositionsUniform,
		BurnIn:            DefaultBurnIn,
		AvgWindow:         DefaultAvgWindow,
		Seed:              DefaultSeed,
		Trails:            DefaultTrails,
		NeighborSearch:    SearchBrute,
	}
}

// Validate returns a *ValidationError for the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.ParticleCount <= 0:
		return &ValidationError{"particle_count", c.ParticleCount, "must be positive"}
	case !finite(c.InteractionRadius) || c.InteractionRadius <= 0:
		return &ValidationError{"interaction_radius", c.InteractionRadius, "must be positive"}
	case !finite(c.NoiseAmplitude) || c.NoiseAmplitude < 0:
		return &ValidationError{"noise_amplitude", c.NoiseAmplitude, "must be non-negative"}
	case !finite(c.Speed) || c.Speed < 0:
		return &ValidationError{"speed", c.Speed, "must be non-negative"}
	case !finite(c.TimeStep) || c.TimeStep <= 0:
		return &ValidationError{"time_step", c.TimeStep, "must be positive"}
	case c.BurnIn < 0:
		return &ValidationError{"burn_in", c.BurnIn, "must be non-negative"}
	case c.AvgWindow <= 0:
		return &ValidationError{"avg_window", c.AvgWindow, "must be positive"}
	case c.Trails < 0:
		return &ValidationError{"trails", c.Trails, "must be non-negative"}
	case c.Workers < 0:
		return &ValidationError{"workers", c.Workers, "must be non-negative"}
	}

	switch c.InitHeadings {
	case HeadingsUniform, HeadingsAligned, HeadingsCone:
	default:
		return &ValidationError{"init_headings", c.InitHeadings, "want uniform, aligned or cone"}
	}

	switch c.InitPositions {
	case PositionsUniform, PositionsGrid:
	default:
		return &ValidationError{"init_positions", c.InitPositions, "want uniform or grid"}
	}

	switch c.NeighborSearch {
	case "", SearchBrute, SearchGrid:
	default:
		return &ValidationError{"neighbor_search", c.NeighborSearch, "want brute or grid"}
	}

	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ConfigPatch is a partial update. Nil fields keep their current value.
type ConfigPatch struct {
	ParticleCount     *int          `yaml:"particle_count,omitempty" json:"particle_count,omitempty"`
	InteractionRadius *float64      `yaml:"interaction_radius,omitempty" json:"interaction_radius,omitempty"`
	NoiseAmplitude    *float64      `yaml:"noise_amplitude,omitempty" json:"noise_amplitude,omitempty"`
	Speed             *float64      `yaml:"speed,omitempty" json:"speed,omitempty"`
	TimeStep          *float64      `yaml:"time_step,omitempty" json:"time_step,omitempty"`
	InitHeadings      *HeadingInit  `yaml:"init_headings,omitempty" json:"init_headings,omitempty"`
	InitPositions     *PositionInit `yaml:"init_positions,omitempty" json:"init_positions,omitempty"`
	BurnIn            *int          `yaml:"burn_in,omitempty" json:"burn_in,omitempty"`
	AvgWindow         *int          `yaml:"avg_window,omitempty" json:"avg_window,omitempty"`
	Seed              *int64        `yaml:"seed,omitempty" json:"seed,omitempty"`
	Trails            *int          `yaml:"trails,omitempty" json:"trails,omitempty"`
	NeighborSearch    *SearchMethod `yaml:"neighbor_search,omitempty" json:"neighbor_search,omitempty"`
	Workers           *int          `yaml:"workers,omitempty" json:"workers,omitempty"`
}

// RequiresReset reports whether the patch touches a field that only takes
// effect through a full reinitialization.
func (p ConfigPatch) RequiresReset() bool {
	return p.ParticleCount != nil || p.Seed != nil || p.InitHeadings != nil || p.InitPositions != nil
}

// Empty reports whether the patch sets no field at all.
func (p ConfigPatch) Empty() bool {
	return p == ConfigPatch{}
}

// Apply returns c with the patch merged in. c itself is not modified.
func (p ConfigPatch) Apply(c Config) Config {
	if p.ParticleCount != nil {
		c.ParticleCount = *p.ParticleCount
	}
	if p.InteractionRadius != nil {
		c.InteractionRadius = *p.InteractionRadius
	}
	if p.NoiseAmplitude != nil {
		c.NoiseAmplitude = *p.NoiseAmplitude
	}
	if p.Speed != nil {
		c.Speed = *p.Speed
	}
	if p.TimeStep != nil {
		c.TimeStep = *p.TimeStep
	}
	if p.InitHeadings != nil {
		c.InitHeadings = *p.InitHeadings
	}
	if p.InitPositions != nil {
		c.InitPositions = *p.InitPositions
	}
	if p.BurnIn != nil {
		c.BurnIn = *p.BurnIn
	}
	if p.AvgWindow != nil {
		c.AvgWindow = *p.AvgWindow
	}
	if p.Seed != nil {
		c.Seed = *p.Seed
	}
	if p.Trails != nil {
		c.Trails = *p.Trails
	}
	if p.NeighborSearch != nil {
		c.NeighborSearch = *p.NeighborSearch
	}
	if p.Workers != nil {
		c.Workers = *p.Workers
	}
	return c
}

// Ptr returns a pointer to v; handy for building patches.
func Ptr[T any](v T) *T { return &v }
