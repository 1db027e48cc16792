// Package metrics provides run statistics that observe a simulation step
// by step.
package metrics

import (
	"fmt"

	"github.com/san-kum/vicsek/internal/vicsek"
)

var registry = map[string]func() vicsek.Metric{
	"phi_mean":       func() vicsek.Metric { return NewPhiMean() },
	"susceptibility": func() vicsek.Metric { return NewSusceptibility() },
	"binder":         func() vicsek.Metric { return NewBinder() },
	"mean_neighbors": func() vicsek.Metric { return NewMeanNeighbors() },
	"isolated":       func() vicsek.Metric { return NewIsolated() },
}

// Names lists every known metric in report order.
var Names = []string{"phi_mean", "susceptibility", "binder", "mean_neighbors", "isolated"}

// Default returns a fresh instance of every metric.
func Default() []vicsek.Metric {
	ms := make([]vicsek.Metric, 0, len(Names))
	for _, name := range Names {
		ms = append(ms, registry[name]())
	}
	return ms
}

// New returns fresh instances of the named metrics.
func New(names ...string) ([]vicsek.Metric, error) {
	ms := make([]vicsek.Metric, 0, len(names))
	for _, name := range names {
		ctor, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("metrics: unknown metric %q", name)
		}
		ms = append(ms, ctor())
	}
	return ms, nil
}
