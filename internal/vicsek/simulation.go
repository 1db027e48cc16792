package vicsek

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/vicsek/internal/rng"
	"github.com/san-kum/vicsek/internal/torus"
)

// State is a snapshot of a simulation handed to callers. It shares no
// memory with the simulation.
type State struct {
	Particles  []Particle `json:"particles"`
	Iteration  int        `json:"iteration"`
	CurrentPhi float64    `json:"current_phi"`
	AvgPhi     float64    `json:"avg_phi"`
}

// Frame is what metrics and observers see after each step. Its slices
// alias simulation memory: they are valid only during the callback and
// must not be modified.
type Frame struct {
	Config    Config
	Domain    torus.Domain
	Iteration int
	Phi       float64
	AvgPhi    float64
	Particles []Particle
	Neighbors [][]int
}

// Metric accumulates a scalar over the steps of a run.
type Metric interface {
	Name() string
	Observe(f *Frame)
	Value() float64
	Reset()
}

// Observer is notified after every completed step.
type Observer interface {
	OnStep(f *Frame)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(f *Frame)

func (fn ObserverFunc) OnStep(f *Frame) { fn(f) }

// Simulation is the Vicsek driver. The zero value is uninitialized: Step
// is a no-op until Reset succeeds.
type Simulation struct {
	cfg       Config
	domain    torus.Domain
	src       *rng.Source
	ready     bool
	iteration int

	particles []Particle
	neighbors [][]int
	trails    []Trail
	tracker   Tracker

	metrics   []Metric
	observers []Observer

	// per-step scratch, sized to the particle count
	headings []float64
	next     []float64
	noise    []float64
	units    []r2.Vec
}

func New() *Simulation {
	return &Simulation{}
}

// NewWithConfig returns a simulation already reset to cfg and d.
func NewWithConfig(cfg Config, d torus.Domain) (*Simulation, error) {
	s := New()
	if err := s.Reset(cfg, d); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Simulation) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulation) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Reset validates cfg and d, reseeds the random source and draws a fresh
// particle set. On error the simulation is left untouched.
func (s *Simulation) Reset(cfg Config, d torus.Domain) error {
	if err := validate(cfg, d); err != nil {
		return err
	}
	src := rng.New(cfg.Seed)
	s.install(cfg, d, src, initParticles(cfg, d, src))
	return nil
}

// ResetWith is Reset with caller supplied initial particles. Positions are
// wrapped onto the torus; headings are taken as given. The random source is
// still seeded from cfg and drives the noise.
func (s *Simulation) ResetWith(cfg Config, d torus.Domain, particles []Particle) error {
	if err := validate(cfg, d); err != nil {
		return err
	}
	if len(particles) != cfg.ParticleCount {
		return fmt.Errorf("%w: got %d particles, config wants %d", ErrParticleCount, len(particles), cfg.ParticleCount)
	}
	ps := cloneParticles(particles)
	for i := range ps {
		ps[i].Pos = d.Wrap(ps[i].Pos)
	}
	s.install(cfg, d, rng.New(cfg.Seed), ps)
	return nil
}

func validate(cfg Config, d torus.Domain) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := d.Validate(); err != nil {
		return &ValidationError{Field: "domain", Value: d, Reason: err.Error()}
	}
	return nil
}

func (s *Simulation) install(cfg Config, d torus.Domain, src *rng.Source, ps []Particle) {
	n := len(ps)
	s.cfg = cfg
	s.domain = d
	s.src = src
	s.particles = ps
	s.neighbors = make([][]int, n)
	s.trails = make([]Trail, n)
	s.headings = make([]float64, n)
	s.next = make([]float64, n)
	s.noise = make([]float64, n)
	s.units = make([]r2.Vec, n)
	s.iteration = 0
	s.tracker.Reset()
	for _, m := range s.metrics {
		m.Reset()
	}
	s.ready = true
}

// Step advances the simulation by one tick. It does nothing before the
// first successful Reset.
func (s *Simulation) Step() {
	if !s.ready {
		return
	}
	cfg := s.cfg

	s.neighbors = findNeighbors(s.neighbors, s.particles, s.domain, cfg.InteractionRadius, cfg.NeighborSearch, cfg.Workers)

	for i, p := range s.particles {
		s.headings[i] = p.Theta
		s.units[i] = p.Heading()
	}
	drawNoise(s.noise, s.src, cfg.NoiseAmplitude)
	alignHeadings(s.next, s.headings, s.units, s.neighbors, s.noise, cfg.Workers)
	for i := range s.particles {
		s.particles[i].Theta = s.next[i]
	}

	integrate(s.particles, s.domain, cfg.Speed, cfg.TimeStep)
	recordTrails(s.trails, s.particles, cfg.Trails)

	s.iteration++
	s.tracker.Record(OrderParameter(s.particles, cfg.Speed), s.iteration, cfg.BurnIn, cfg.AvgWindow)

	if len(s.metrics) == 0 && len(s.observers) == 0 {
		return
	}
	f := s.frame()
	for _, m := range s.metrics {
		m.Observe(f)
	}
	for _, o := range s.observers {
		o.OnStep(f)
	}
}

// StepN runs n steps, checking ctx between steps. A step that has started
// always completes.
func (s *Simulation) StepN(ctx context.Context, n int) error {
	if !s.ready {
		return ErrNotReady
	}
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		s.Step()
	}
	return nil
}

func (s *Simulation) frame() *Frame {
	return &Frame{
		Config:    s.cfg,
		Domain:    s.domain,
		Iteration: s.iteration,
		Phi:       s.tracker.Current(),
		AvgPhi:    s.tracker.Average(),
		Particles: s.particles,
		Neighbors: s.neighbors,
	}
}

// UpdateConfig merges p into the live configuration. Patches touching
// ParticleCount, Seed, InitHeadings or InitPositions reinitialize the
// simulation with the merged configuration; all other fields apply from
// the next step. An invalid merge is rejected without any change.
func (s *Simulation) UpdateConfig(p ConfigPatch) error {
	if !s.ready {
		return ErrNotReady
	}
	merged := p.Apply(s.cfg)
	if p.RequiresReset() {
		return s.Reset(merged, s.domain)
	}
	if err := merged.Validate(); err != nil {
		return err
	}
	s.cfg = merged
	return nil
}

// Resize changes the domain. Positions do not carry over, so this is
// always a full reset with the current configuration.
func (s *Simulation) Resize(d torus.Domain) error {
	if !s.ready {
		return ErrNotReady
	}
	return s.Reset(s.cfg, d)
}

func (s *Simulation) Ready() bool          { return s.ready }
func (s *Simulation) Config() Config       { return s.cfg }
func (s *Simulation) Domain() torus.Domain { return s.domain }
func (s *Simulation) Iteration() int       { return s.iteration }
func (s *Simulation) CurrentPhi() float64  { return s.tracker.Current() }
func (s *Simulation) AvgPhi() float64      { return s.tracker.Average() }
func (s *Simulation) PhiHistory() []float64 {
	return s.tracker.History()
}

// State returns a deep copy of the observable state.
func (s *Simulation) State() State {
	return State{
		Particles:  cloneParticles(s.particles),
		Iteration:  s.iteration,
		CurrentPhi: s.tracker.Current(),
		AvgPhi:     s.tracker.Average(),
	}
}

// Neighbors returns a copy of the neighbor index computed by the latest
// step; nil lists before the first step.
func (s *Simulation) Neighbors() [][]int {
	out := make([][]int, len(s.neighbors))
	for i, nb := range s.neighbors {
		if len(nb) > 0 {
			out[i] = append([]int(nil), nb...)
		}
	}
	return out
}

// LocalOrder returns the local alignment of every particle under the
// latest neighbor index.
func (s *Simulation) LocalOrder() []float64 {
	return LocalOrder(s.particles, s.neighbors)
}

// Trails returns each particle's recent positions, oldest first.
func (s *Simulation) Trails() [][]r2.Vec {
	out := make([][]r2.Vec, len(s.trails))
	for i := range s.trails {
		out[i] = s.trails[i].Points()
	}
	return out
}

// Metrics returns the current value of every registered metric.
func (s *Simulation) Metrics() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}
