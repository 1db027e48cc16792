// Package optim searches parameter grids for the configuration that
// extremizes a run statistic.
package optim

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/vicsek/internal/experiment"
)

// AvgPhi names the final window average of a run, as opposed to a
// registered metric.
const AvgPhi = "avg_phi"

// Axis is one searched parameter and its values.
type Axis struct {
	Param  string
	Values []float64
}

// ParseAxis parses "param=min:max:points" or "param=v1,v2,...".
func ParseAxis(s string) (Axis, error) {
	name, spec, ok := strings.Cut(s, "=")
	if !ok || name == "" || spec == "" {
		return Axis{}, fmt.Errorf("optim: axis %q: want param=min:max:points or param=v1,v2", s)
	}

	if parts := strings.Split(spec, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || n < 1 {
			return Axis{}, fmt.Errorf("optim: axis %q: bad range", s)
		}
		vals := []float64{lo}
		if n > 1 {
			vals = make([]float64, n)
			floats.Span(vals, lo, hi)
		}
		return Axis{Param: name, Values: vals}, nil
	}

	var vals []float64
	for _, f := range strings.Split(spec, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Axis{}, fmt.Errorf("optim: axis %q: %w", s, err)
		}
		vals = append(vals, v)
	}
	return Axis{Param: name, Values: vals}, nil
}

// Cell is one evaluated grid point.
type Cell struct {
	Params  map[string]float64 `json:"params" yaml:"params"`
	Value   float64            `json:"value" yaml:"value"`
	MeanPhi float64            `json:"mean_phi" yaml:"mean_phi"`
}

type GridSearch struct {
	axes      []Axis
	metric    string
	maximize  bool
	repeats   int
	seedStart int64
	parallel  int
}

// NewGridSearch evaluates metric at every combination of axes. The
// default is to minimize over a single seed.
func NewGridSearch(axes []Axis, metric string) *GridSearch {
	return &GridSearch{axes: axes, metric: metric, repeats: 1, seedStart: 1}
}

func (g *GridSearch) Maximize() *GridSearch {
	g.maximize = true
	return g
}

// Seeds averages every cell over n seeds starting at start. The same seeds
// are used in every cell.
func (g *GridSearch) Seeds(start int64, n int) *GridSearch {
	g.seedStart, g.repeats = start, n
	return g
}

// Parallel bounds the number of concurrent runs; 0 uses all CPUs.
func (g *GridSearch) Parallel(n int) *GridSearch {
	g.parallel = n
	return g
}

func (g *GridSearch) validate() error {
	if len(g.axes) == 0 {
		return fmt.Errorf("%w: grid search needs at least one axis", experiment.ErrInvalidSpec)
	}
	if g.repeats < 1 {
		return fmt.Errorf("%w: grid search needs at least one seed", experiment.ErrInvalidSpec)
	}
	for _, a := range g.axes {
		if len(a.Values) == 0 {
			return fmt.Errorf("%w: axis %q has no values", experiment.ErrInvalidSpec, a.Param)
		}
		if _, err := experiment.ApplyParam(experiment.Spec{}, a.Param, 0); err != nil {
			return err
		}
	}
	return nil
}

// Search runs base at every grid point and returns the best cell and all
// cells in row-major axis order.
func (g *GridSearch) Search(ctx context.Context, base experiment.Spec) (Cell, []Cell, error) {
	if err := g.validate(); err != nil {
		return Cell{}, nil, err
	}

	var combos []map[string]float64
	g.searchRecursive(0, map[string]float64{}, &combos)

	cells := make([]Cell, len(combos))
	parallel := g.parallel
	if parallel <= 0 {
		parallel = runtime.GOMAXPROCS(0)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(parallel)
	for i, params := range combos {
		eg.Go(func() error {
			cell, err := g.evaluate(ctx, base, params)
			if err != nil {
				return fmt.Errorf("%v: %w", params, err)
			}
			cells[i] = cell
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Cell{}, nil, err
	}

	best := cells[0]
	for _, c := range cells[1:] {
		if g.better(c.Value, best.Value) {
			best = c
		}
	}
	return best, cells, nil
}

func (g *GridSearch) better(a, b float64) bool {
	if math.IsNaN(b) {
		return !math.IsNaN(a)
	}
	if g.maximize {
		return a > b
	}
	return a < b
}

// searchRecursive enumerates every combination of axis values.
func (g *GridSearch) searchRecursive(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.axes) {
		*out = append(*out, current)
		return
	}

	axis := g.axes[depth]
	for _, val := range axis.Values {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[axis.Param] = val
		g.searchRecursive(depth+1, next, out)
	}
}

func (g *GridSearch) evaluate(ctx context.Context, base experiment.Spec, params map[string]float64) (Cell, error) {
	spec := base
	// Apply in axis order so density sees the final domain.
	for _, a := range g.axes {
		var err error
		if spec, err = experiment.ApplyParam(spec, a.Param, params[a.Param]); err != nil {
			return Cell{}, err
		}
	}
	if g.metric != AvgPhi && spec.Metrics == nil {
		spec.Metrics = []string{g.metric}
	}

	vals := make([]float64, g.repeats)
	finals := make([]float64, g.repeats)
	for r := 0; r < g.repeats; r++ {
		run := spec
		run.Config.Seed = g.seedStart + int64(r)
		res, err := experiment.Run(ctx, run)
		if err != nil {
			return Cell{}, err
		}
		finals[r] = res.Final
		if g.metric == AvgPhi {
			vals[r] = res.Final
			continue
		}
		v, ok := res.Metrics[g.metric]
		if !ok {
			return Cell{}, fmt.Errorf("%w: metric %q not recorded", experiment.ErrInvalidSpec, g.metric)
		}
		vals[r] = v
	}

	return Cell{
		Params:  params,
		Value:   stat.Mean(vals, nil),
		MeanPhi: stat.Mean(finals, nil),
	}, nil
}
