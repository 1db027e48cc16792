package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Ensemble runs spec runs times with seeds seedStart, seedStart+1, ...
// with at most parallel runs in flight (GOMAXPROCS when parallel <= 0).
// Results are in seed order. The first failing run cancels the rest.
// spec.Observers are shared by concurrent runs and must be safe for
// concurrent use.
func Ensemble(ctx context.Context, spec Spec, runs int, seedStart int64, parallel int) ([]*Result, error) {
	if runs <= 0 {
		return nil, fmt.Errorf("%w: ensemble needs at least one run", ErrInvalidSpec)
	}
	if parallel <= 0 {
		parallel = runtime.GOMAXPROCS(0)
	}

	results := make([]*Result, runs)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i := 0; i < runs; i++ {
		g.Go(func() error {
			run := spec
			run.Config.Seed = seedStart + int64(i)
			if run.Name != "" {
				run.Name = fmt.Sprintf("%s_s%d", spec.Name, run.Config.Seed)
			}

			res, err := Run(ctx, run)
			if err != nil {
				return fmt.Errorf("seed %d: %w", run.Config.Seed, err)
			}
			slog.Debug("ensemble run complete", "seed", run.Config.Seed, "avg_phi", res.Final, "elapsed", res.Elapsed)
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summary aggregates the final averages and metrics of an ensemble.
type Summary struct {
	Runs    int                `json:"runs"`
	Mean    float64            `json:"mean_avg_phi"`
	StdDev  float64            `json:"std_avg_phi"`
	Min     float64            `json:"min_avg_phi"`
	Max     float64            `json:"max_avg_phi"`
	Metrics map[string]float64 `json:"metrics"`
}

// Summarize averages over results. StdDev is the sample standard deviation
// and 0 for a single run.
func Summarize(results []*Result) Summary {
	if len(results) == 0 {
		return Summary{Metrics: map[string]float64{}}
	}

	finals := make([]float64, len(results))
	sums := make(map[string]float64)
	for i, r := range results {
		finals[i] = r.Final
		for name, v := range r.Metrics {
			sums[name] += v
		}
	}

	s := Summary{
		Runs:    len(results),
		Min:     floats.Min(finals),
		Max:     floats.Max(finals),
		Metrics: make(map[string]float64, len(sums)),
	}
	if len(finals) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(finals, nil)
	} else {
		s.Mean = finals[0]
	}
	for name, v := range sums {
		s.Metrics[name] = v / float64(len(results))
	}
	return s
}
