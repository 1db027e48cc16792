package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Sweepable parameters.
const (
	ParamNoise   = "noise"
	ParamRadius  = "radius"
	ParamSpeed   = "speed"
	ParamCount   = "count"
	ParamDensity = "density"
)

var SweepParams = []string{ParamNoise, ParamRadius, ParamSpeed, ParamCount, ParamDensity}

// SweepSpec varies one parameter of Base over Points evenly spaced values
// in [Min, Max], running Repeats seeds (SeedStart, SeedStart+1, ...) at
// every value. The same seeds are used at every point.
type SweepSpec struct {
	Base      Spec
	Param     string
	Min, Max  float64
	Points    int
	Repeats   int
	SeedStart int64
	Parallel  int
}

// SweepPoint aggregates the repeats at one parameter value.
type SweepPoint struct {
	Value          float64 `json:"value" yaml:"value"`
	MeanPhi        float64 `json:"mean_phi" yaml:"mean_phi"`
	StdPhi         float64 `json:"std_phi" yaml:"std_phi"`
	Susceptibility float64 `json:"susceptibility" yaml:"susceptibility"`
	Binder         float64 `json:"binder" yaml:"binder"`
}

func (sw SweepSpec) values() []float64 {
	if sw.Points == 1 {
		return []float64{sw.Min}
	}
	vals := make([]float64, sw.Points)
	floats.Span(vals, sw.Min, sw.Max)
	return vals
}

func (sw SweepSpec) validate() error {
	switch {
	case sw.Points < 1:
		return fmt.Errorf("%w: sweep needs at least one point", ErrInvalidSpec)
	case sw.Repeats < 1:
		return fmt.Errorf("%w: sweep needs at least one repeat", ErrInvalidSpec)
	case math.IsNaN(sw.Min) || math.IsNaN(sw.Max):
		return fmt.Errorf("%w: sweep bounds must be numbers", ErrInvalidSpec)
	}
	for _, p := range SweepParams {
		if p == sw.Param {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown sweep parameter %q", ErrInvalidSpec, sw.Param)
}

// apply returns base with the swept parameter set to v.
func (sw SweepSpec) apply(base Spec, v float64) Spec {
	spec, _ := ApplyParam(base, sw.Param, v)
	return spec
}

// ApplyParam returns base with the named sweep parameter set to v. Counts
// are rounded; density sets the particle count for base.Domain.
func ApplyParam(base Spec, param string, v float64) (Spec, error) {
	cfg := base.Config
	switch param {
	case ParamNoise:
		cfg.NoiseAmplitude = v
	case ParamRadius:
		cfg.InteractionRadius = v
	case ParamSpeed:
		cfg.Speed = v
	case ParamCount:
		cfg.ParticleCount = int(math.Round(v))
	case ParamDensity:
		cfg.ParticleCount = max(1, int(math.Round(v*base.Domain.Area())))
	default:
		return base, fmt.Errorf("%w: unknown sweep parameter %q", ErrInvalidSpec, param)
	}
	base.Config = cfg
	return base, nil
}

// Sweep runs every (value, seed) pair and returns one point per value, in
// ascending parameter order.
func Sweep(ctx context.Context, sw SweepSpec) ([]SweepPoint, error) {
	if err := sw.validate(); err != nil {
		return nil, err
	}
	parallel := sw.Parallel
	if parallel <= 0 {
		parallel = runtime.GOMAXPROCS(0)
	}

	base := sw.Base
	base.Metrics = []string{"susceptibility", "binder"}

	vals := sw.values()
	runs := make([][]*Result, len(vals))
	for i := range runs {
		runs[i] = make([]*Result, sw.Repeats)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, v := range vals {
		spec := sw.apply(base, v)
		for rep := 0; rep < sw.Repeats; rep++ {
			g.Go(func() error {
				run := spec
				run.Config.Seed = sw.SeedStart + int64(rep)
				res, err := Run(ctx, run)
				if err != nil {
					return fmt.Errorf("%s=%g seed %d: %w", sw.Param, v, run.Config.Seed, err)
				}
				runs[i][rep] = res
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	points := make([]SweepPoint, len(vals))
	for i, v := range vals {
		points[i] = aggregate(v, runs[i])
		slog.Info("sweep point", "param", sw.Param, "value", v, "mean_phi", points[i].MeanPhi, "std_phi", points[i].StdPhi)
	}
	return points, nil
}

func aggregate(v float64, results []*Result) SweepPoint {
	finals := make([]float64, len(results))
	chi := make([]float64, len(results))
	binder := make([]float64, len(results))
	for i, r := range results {
		finals[i] = r.Final
		chi[i] = r.Metrics["susceptibility"]
		binder[i] = r.Metrics["binder"]
	}

	p := SweepPoint{
		Value:          v,
		MeanPhi:        stat.Mean(finals, nil),
		Susceptibility: stat.Mean(chi, nil),
		Binder:         stat.Mean(binder, nil),
	}
	if len(finals) > 1 {
		p.StdPhi = stat.StdDev(finals, nil)
	}
	return p
}

// Critical returns the sweep point with the largest susceptibility, the
// usual estimate of the transition.
func Critical(points []SweepPoint) (SweepPoint, bool) {
	if len(points) == 0 {
		return SweepPoint{}, false
	}
	best := points[0]
	for _, p := range points[1:] {
		if p.Susceptibility > best.Susceptibility {
			best = p
		}
	}
	return best, true
}

// Values extracts one column of a sweep for plotting.
func Values(points []SweepPoint, pick func(SweepPoint) float64) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = pick(p)
	}
	return out
}
