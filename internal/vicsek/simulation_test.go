package vicsek

import (
	"context"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/vicsek/internal/torus"
)

var testDomain = torus.Domain{Width: 160, Height: 100}

func TestResetValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero particles", func(c *Config) { c.ParticleCount = 0 }, "particle_count"},
		{"negative particles", func(c *Config) { c.ParticleCount = -3 }, "particle_count"},
		{"zero radius", func(c *Config) { c.InteractionRadius = 0 }, "interaction_radius"},
		{"nan radius", func(c *Config) { c.InteractionRadius = math.NaN() }, "interaction_radius"},
		{"negative noise", func(c *Config) { c.NoiseAmplitude = -0.1 }, "noise_amplitude"},
		{"negative speed", func(c *Config) { c.Speed = -1 }, "speed"},
		{"zero time step", func(c *Config) { c.TimeStep = 0 }, "time_step"},
		{"negative burn-in", func(c *Config) { c.BurnIn = -1 }, "burn_in"},
		{"zero window", func(c *Config) { c.AvgWindow = 0 }, "avg_window"},
		{"negative trails", func(c *Config) { c.Trails = -1 }, "trails"},
		{"unknown headings", func(c *Config) { c.InitHeadings = "spiral" }, "init_headings"},
		{"unknown positions", func(c *Config) { c.InitPositions = "" }, "init_positions"},
		{"unknown search", func(c *Config) { c.NeighborSearch = "kdtree" }, "neighbor_search"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			s := New()
			err := s.Reset(cfg, testDomain)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("expected validation error on %s, got %v", tt.field, err)
			}
			if s.Ready() {
				t.Error("simulation should stay uninitialized after a rejected reset")
			}
		})
	}
}

func TestResetRejectsBadDomain(t *testing.T) {
	s := New()
	err := s.Reset(DefaultConfig(), torus.Domain{Width: 0, Height: 10})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for empty domain, got %v", err)
	}
}

func TestRejectedResetKeepsState(t *testing.T) {
	s, err := NewWithConfig(DefaultConfig(), testDomain)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		s.Step()
	}
	before := s.State()

	bad := DefaultConfig()
	bad.Speed = -2
	if err := s.Reset(bad, testDomain); err == nil {
		t.Fatal("expected error")
	}

	after := s.State()
	if after.Iteration != before.Iteration || after.CurrentPhi != before.CurrentPhi {
		t.Errorf("state changed by rejected reset: %+v -> %+v", before.Iteration, after.Iteration)
	}
	for i := range before.Particles {
		if before.Particles[i] != after.Particles[i] {
			t.Fatalf("particle %d changed by rejected reset", i)
		}
	}
}

func TestStepBeforeReset(t *testing.T) {
	s := New()
	s.Step()

	if s.Iteration() != 0 {
		t.Errorf("expected iteration 0, got %d", s.Iteration())
	}
	if err := s.StepN(context.Background(), 3); !errors.Is(err, ErrNotReady) {
		t.Errorf("StepN: expected ErrNotReady, got %v", err)
	}
	if err := s.UpdateConfig(ConfigPatch{Speed: Ptr(2.0)}); !errors.Is(err, ErrNotReady) {
		t.Errorf("UpdateConfig: expected ErrNotReady, got %v", err)
	}
	if err := s.Resize(testDomain); !errors.Is(err, ErrNotReady) {
		t.Errorf("Resize: expected ErrNotReady, got %v", err)
	}
	if st := s.State(); len(st.Particles) != 0 {
		t.Errorf("expected no particles, got %d", len(st.Particles))
	}
}

func runSteps(t *testing.T, cfg Config, d torus.Domain, steps int) *Simulation {
	t.Helper()
	s, err := NewWithConfig(cfg, d)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if err := s.StepN(context.Background(), steps); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	return s
}

func assertSameRun(t *testing.T, a, b *Simulation) {
	t.Helper()
	sa, sb := a.State(), b.State()
	if len(sa.Particles) != len(sb.Particles) {
		t.Fatalf("particle counts differ: %d vs %d", len(sa.Particles), len(sb.Particles))
	}
	for i := range sa.Particles {
		if sa.Particles[i] != sb.Particles[i] {
			t.Fatalf("particle %d differs: %+v vs %+v", i, sa.Particles[i], sb.Particles[i])
		}
	}
	ha, hb := a.PhiHistory(), b.PhiHistory()
	for i := range ha {
		if ha[i] != hb[i] {
			t.Fatalf("phi differs at step %d: %v vs %v", i+1, ha[i], hb[i])
		}
	}
	if sa.AvgPhi != sb.AvgPhi {
		t.Errorf("avg phi differs: %v vs %v", sa.AvgPhi, sb.AvgPhi)
	}
}

func TestDeterminism(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ParticleCount = 120
	cfg.BurnIn = 20

	a := runSteps(t, cfg, testDomain, 60)
	b := runSteps(t, cfg, testDomain, 60)
	assertSameRun(t, a, b)
}

func TestParallelAndGridMatchSequential(t *testing.T) {
	base := DefaultConfig()
	base.ParticleCount = 400
	base.InteractionRadius = 6

	seq := runSteps(t, base, testDomain, 40)

	variants := []struct {
		name   string
		mutate func(*Config)
	}{
		{"workers", func(c *Config) { c.Workers = 4 }},
		{"grid", func(c *Config) { c.NeighborSearch = SearchGrid }},
		{"grid and workers", func(c *Config) { c.NeighborSearch = SearchGrid; c.Workers = 3 }},
	}

	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			cfg := base
			v.mutate(&cfg)
			assertSameRun(t, seq, runSteps(t, cfg, testDomain, 40))
		})
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ParticleCount = 50
	a := runSteps(t, cfg, testDomain, 1)
	cfg.Seed = 7
	b := runSteps(t, cfg, testDomain, 1)

	if a.State().Particles[0] == b.State().Particles[0] {
		t.Error("expected different seeds to produce different particles")
	}
}

func TestInvariantsHoldEveryStep(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ParticleCount = 150
	cfg.Speed = 3.7
	cfg.TimeStep = 0.9
	cfg.NoiseAmplitude = 2

	s, err := NewWithConfig(cfg, testDomain)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	for step := 1; step <= 150; step++ {
		s.Step()
		st := s.State()
		if len(st.Particles) != cfg.ParticleCount {
			t.Fatalf("step %d: expected %d particles, got %d", step, cfg.ParticleCount, len(st.Particles))
		}
		for i, p := range st.Particles {
			if !testDomain.Contains(p.Pos) {
				t.Fatalf("step %d: particle %d at %v outside domain", step, i, p.Pos)
			}
		}
		if got := len(s.PhiHistory()); got != st.Iteration || st.Iteration != step {
			t.Fatalf("step %d: history length %d, iteration %d", step, got, st.Iteration)
		}
		if st.CurrentPhi < 0 || st.CurrentPhi > 1 {
			t.Fatalf("step %d: phi %v outside [0,1]", step, st.CurrentPhi)
		}
	}
}

func TestAvgPhiRespectsBurnIn(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ParticleCount = 80
	cfg.BurnIn = 10
	cfg.AvgWindow = 4

	s, err := NewWithConfig(cfg, testDomain)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	for step := 1; step < cfg.BurnIn; step++ {
		s.Step()
		if s.AvgPhi() != 0 {
			t.Fatalf("step %d: expected avg phi 0 during burn-in, got %v", step, s.AvgPhi())
		}
	}

	for step := cfg.BurnIn; step <= cfg.BurnIn+6; step++ {
		s.Step()
		h := s.PhiHistory()
		recent := h[len(h)-cfg.AvgWindow:]
		want := 0.0
		for _, v := range recent {
			want += v
		}
		want /= float64(len(recent))
		if math.Abs(s.AvgPhi()-want) > 1e-12 {
			t.Fatalf("step %d: avg phi %v, want %v", step, s.AvgPhi(), want)
		}
	}
}

func TestUpdateConfigLiveFields(t *testing.T) {
	s := runSteps(t, DefaultConfig(), testDomain, 10)
	before := s.State()

	err := s.UpdateConfig(ConfigPatch{
		NoiseAmplitude:    Ptr(1.5),
		InteractionRadius: Ptr(8.0),
		Speed:             Ptr(0.5),
		BurnIn:            Ptr(0),
		AvgWindow:         Ptr(3),
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	after := s.State()
	if after.Iteration != 10 {
		t.Errorf("expected iteration to survive a live update, got %d", after.Iteration)
	}
	if after.Particles[0] != before.Particles[0] {
		t.Error("live update must not move particles")
	}
	if cfg := s.Config(); cfg.NoiseAmplitude != 1.5 || cfg.InteractionRadius != 8 || cfg.Speed != 0.5 {
		t.Errorf("config not merged: %+v", cfg)
	}

	s.Step()
	if s.Iteration() != 11 {
		t.Errorf("expected iteration 11, got %d", s.Iteration())
	}
}

func TestUpdateConfigReinitializes(t *testing.T) {
	tests := []struct {
		name  string
		patch ConfigPatch
	}{
		{"seed", ConfigPatch{Seed: Ptr(int64(99))}},
		{"count", ConfigPatch{ParticleCount: Ptr(42)}},
		{"headings", ConfigPatch{InitHeadings: Ptr(HeadingsCone)}},
		{"positions", ConfigPatch{InitPositions: Ptr(PositionsGrid)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := runSteps(t, DefaultConfig(), testDomain, 5)
			if err := s.UpdateConfig(tt.patch); err != nil {
				t.Fatalf("update failed: %v", err)
			}
			if s.Iteration() != 0 || len(s.PhiHistory()) != 0 || s.AvgPhi() != 0 {
				t.Errorf("expected fresh state, got iteration %d", s.Iteration())
			}

			fresh, err := NewWithConfig(tt.patch.Apply(DefaultConfig()), testDomain)
			if err != nil {
				t.Fatalf("reset failed: %v", err)
			}
			assertSameRun(t, s, fresh)
		})
	}
}

func TestUpdateConfigRejectsInvalid(t *testing.T) {
	s := runSteps(t, DefaultConfig(), testDomain, 3)

	patches := []ConfigPatch{
		{InteractionRadius: Ptr(-1.0)},
		{AvgWindow: Ptr(0)},
		{ParticleCount: Ptr(0)},
		{TimeStep: Ptr(0.0), Seed: Ptr(int64(1))},
	}
	for _, p := range patches {
		if err := s.UpdateConfig(p); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("patch %+v: expected ErrInvalidConfig, got %v", p, err)
		}
	}
	if s.Config() != DefaultConfig() {
		t.Errorf("config changed by rejected patches: %+v", s.Config())
	}
	if s.Iteration() != 3 {
		t.Errorf("expected iteration 3, got %d", s.Iteration())
	}
}

func TestResize(t *testing.T) {
	s := runSteps(t, DefaultConfig(), testDomain, 5)
	small := torus.Domain{Width: 20, Height: 10}

	if err := s.Resize(small); err != nil {
		t.Fatalf("resize failed: %v", err)
	}
	if s.Iteration() != 0 {
		t.Errorf("expected reset after resize, got iteration %d", s.Iteration())
	}
	if s.Domain() != small {
		t.Errorf("expected domain %v, got %v", small, s.Domain())
	}
	for i, p := range s.State().Particles {
		if !small.Contains(p.Pos) {
			t.Fatalf("particle %d at %v outside resized domain", i, p.Pos)
		}
	}

	if err := s.Resize(torus.Domain{Width: -1, Height: 3}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if s.Domain() != small {
		t.Error("rejected resize changed the domain")
	}
}

func TestResetWith(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ParticleCount = 2

	s := New()
	err := s.ResetWith(cfg, testDomain, []Particle{{}})
	if !errors.Is(err, ErrParticleCount) {
		t.Fatalf("expected ErrParticleCount, got %v", err)
	}

	in := []Particle{
		{Pos: r2.Vec{X: -10, Y: 205}, Theta: 7},
		{Pos: r2.Vec{X: 5, Y: 5}, Theta: -1},
	}
	if err := s.ResetWith(cfg, testDomain, in); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	st := s.State()
	if st.Particles[0].Pos != (r2.Vec{X: 150, Y: 5}) {
		t.Errorf("expected wrapped position (150,5), got %v", st.Particles[0].Pos)
	}
	if st.Particles[0].Theta != 7 {
		t.Errorf("heading must not be normalized, got %v", st.Particles[0].Theta)
	}

	in[1].Theta = 100
	if s.State().Particles[1].Theta != -1 {
		t.Error("simulation must not alias the caller's slice")
	}
}

func TestStateIsACopy(t *testing.T) {
	s := runSteps(t, DefaultConfig(), testDomain, 2)

	st := s.State()
	st.Particles[0].Theta = 1e6
	st.Particles[0].Pos = r2.Vec{X: -1, Y: -1}

	if s.State().Particles[0].Theta == 1e6 {
		t.Error("mutating State() leaked into the simulation")
	}

	nb := s.Neighbors()
	for i := range nb {
		if len(nb[i]) > 0 {
			nb[i][0] = -1
			if s.Neighbors()[i][0] == -1 {
				t.Error("mutating Neighbors() leaked into the simulation")
			}
			break
		}
	}
}

func TestInitModes(t *testing.T) {
	d := torus.Domain{Width: 100, Height: 60}

	t.Run("aligned", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.InitHeadings = HeadingsAligned
		s, _ := NewWithConfig(cfg, d)
		for _, p := range s.State().Particles {
			if p.Theta != 0 {
				t.Fatalf("expected heading 0, got %v", p.Theta)
			}
		}
	})

	t.Run("cone", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.InitHeadings = HeadingsCone
		s, _ := NewWithConfig(cfg, d)
		for _, p := range s.State().Particles {
			if p.Theta < -math.Pi/8 || p.Theta >= math.Pi/8 {
				t.Fatalf("heading %v outside cone", p.Theta)
			}
		}
	})

	t.Run("uniform", func(t *testing.T) {
		s, _ := NewWithConfig(DefaultConfig(), d)
		for _, p := range s.State().Particles {
			if p.Theta < 0 || p.Theta >= 2*math.Pi {
				t.Fatalf("heading %v outside [0, 2π)", p.Theta)
			}
		}
	})

	t.Run("grid", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ParticleCount = 10
		cfg.InitPositions = PositionsGrid
		s, _ := NewWithConfig(cfg, d)

		g := 4 // ceil(sqrt(10))
		cw, ch := d.Width/float64(g), d.Height/float64(g)
		for i, p := range s.State().Particles {
			row, col := i/g, i%g
			cx, cy := (float64(col)+0.5)*cw, (float64(row)+0.5)*ch
			if math.Abs(p.Pos.X-cx) > cw/4 || math.Abs(p.Pos.Y-cy) > ch/4 {
				t.Errorf("particle %d at %v too far from cell centre (%v,%v)", i, p.Pos, cx, cy)
			}
		}
	})
}

func TestTrails(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ParticleCount = 10
	cfg.Trails = 3

	s := runSteps(t, cfg, testDomain, 5)
	trails := s.Trails()
	st := s.State()
	for i, tr := range trails {
		if len(tr) != 3 {
			t.Fatalf("trail %d: expected 3 points, got %d", i, len(tr))
		}
		if tr[len(tr)-1] != st.Particles[i].Pos {
			t.Errorf("trail %d: newest point %v, particle at %v", i, tr[len(tr)-1], st.Particles[i].Pos)
		}
	}

	if err := s.UpdateConfig(ConfigPatch{Trails: Ptr(0)}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	s.Step()
	for i, tr := range s.Trails() {
		if len(tr) != 0 {
			t.Fatalf("trail %d not cleared", i)
		}
	}
}

func TestTrailsDoNotAffectPhysics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ParticleCount = 60
	cfg.Trails = 0
	a := runSteps(t, cfg, testDomain, 30)
	cfg.Trails = 25
	b := runSteps(t, cfg, testDomain, 30)
	assertSameRun(t, a, b)
}

func TestStepNHonoursContext(t *testing.T) {
	s, err := NewWithConfig(DefaultConfig(), testDomain)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.StepN(ctx, 10); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if s.Iteration() != 0 {
		t.Errorf("expected no steps after cancel, got %d", s.Iteration())
	}
}

type countingMetric struct {
	steps int
	last  int
}

func (c *countingMetric) Name() string { return "count" }
func (c *countingMetric) Observe(f *Frame) {
	c.steps++
	c.last = f.Iteration
}
func (c *countingMetric) Value() float64 { return float64(c.steps) }
func (c *countingMetric) Reset()         { c.steps, c.last = 0, 0 }

func TestMetricsAndObservers(t *testing.T) {
	s := New()
	m := &countingMetric{}
	s.AddMetric(m)

	var seen []float64
	s.AddObserver(ObserverFunc(func(f *Frame) {
		seen = append(seen, f.Phi)
		if len(f.Particles) != f.Config.ParticleCount {
			t.Errorf("frame carries %d particles, want %d", len(f.Particles), f.Config.ParticleCount)
		}
	}))

	cfg := DefaultConfig()
	cfg.ParticleCount = 30
	if err := s.Reset(cfg, testDomain); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	for i := 0; i < 7; i++ {
		s.Step()
	}

	if got := s.Metrics()["count"]; got != 7 {
		t.Errorf("expected metric value 7, got %v", got)
	}
	if m.last != 7 {
		t.Errorf("expected last iteration 7, got %d", m.last)
	}
	h := s.PhiHistory()
	for i := range h {
		if seen[i] != h[i] {
			t.Fatalf("observer saw %v at step %d, history has %v", seen[i], i+1, h[i])
		}
	}

	if err := s.Reset(cfg, testDomain); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if m.steps != 0 {
		t.Errorf("expected metric reset, got %d", m.steps)
	}
}
