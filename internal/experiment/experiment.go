// Package experiment runs simulations to completion: single runs,
// seeded ensembles, parameter sweeps and scripted scenarios.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/vicsek/internal/metrics"
	"github.com/san-kum/vicsek/internal/storage"
	"github.com/san-kum/vicsek/internal/torus"
	"github.com/san-kum/vicsek/internal/vicsek"
)

// ErrInvalidSpec reports an experiment description that cannot run.
var ErrInvalidSpec = errors.New("experiment: invalid spec")

// Spec describes one run.
type Spec struct {
	Name   string
	Config vicsek.Config
	Domain torus.Domain
	Steps  int

	// Metrics names the metrics to record; nil records metrics.Default().
	Metrics []string

	// Observers see every step in addition to the recorders of Run.
	Observers []vicsek.Observer
}

// Result is a finished run.
type Result struct {
	Name      string
	Config    vicsek.Config
	Domain    torus.Domain
	Steps     int
	Phi       []float64
	AvgPhi    []float64
	Final     float64
	Metrics   map[string]float64
	Particles []vicsek.Particle
	Started   time.Time
	Elapsed   time.Duration
}

// Run resets a fresh simulation to spec and steps it spec.Steps times. A
// cancelled context aborts the run with the context's error.
func Run(ctx context.Context, spec Spec) (*Result, error) {
	if spec.Steps < 0 {
		return nil, fmt.Errorf("%w: negative step count %d", ErrInvalidSpec, spec.Steps)
	}

	ms, err := buildMetrics(spec.Metrics)
	if err != nil {
		return nil, err
	}

	s := vicsek.New()
	for _, m := range ms {
		s.AddMetric(m)
	}

	avg := make([]float64, 0, spec.Steps)
	s.AddObserver(vicsek.ObserverFunc(func(f *vicsek.Frame) {
		avg = append(avg, f.AvgPhi)
	}))
	for _, o := range spec.Observers {
		s.AddObserver(o)
	}

	if err := s.Reset(spec.Config, spec.Domain); err != nil {
		return nil, err
	}

	start := time.Now()
	if err := s.StepN(ctx, spec.Steps); err != nil {
		return nil, err
	}

	st := s.State()
	return &Result{
		Name:      spec.Name,
		Config:    spec.Config,
		Domain:    spec.Domain,
		Steps:     st.Iteration,
		Phi:       s.PhiHistory(),
		AvgPhi:    avg,
		Final:     st.AvgPhi,
		Metrics:   s.Metrics(),
		Particles: st.Particles,
		Started:   start,
		Elapsed:   time.Since(start),
	}, nil
}

func buildMetrics(names []string) ([]vicsek.Metric, error) {
	if names == nil {
		return metrics.Default(), nil
	}
	return metrics.New(names...)
}

// Record converts r to its storage form.
func (r *Result) Record() (storage.RunMetadata, storage.Series) {
	name := r.Name
	if name == "" {
		name = "vicsek"
	}
	meta := storage.RunMetadata{
		Name:      name,
		Timestamp: r.Started,
		Config:    r.Config,
		Domain:    r.Domain,
		Steps:     r.Steps,
		AvgPhi:    r.Final,
		Elapsed:   r.Elapsed,
		Metrics:   r.Metrics,
	}
	return meta, storage.Series{Phi: r.Phi, AvgPhi: r.AvgPhi}
}

// Save stores r and returns the run id.
func (r *Result) Save(st *storage.Store) (string, error) {
	meta, series := r.Record()
	return st.Save(meta, series, r.Particles)
}
