package vicsek

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

// OrderParameter returns Φ = |Σ v_i| / (N·speed), the normalized magnitude
// of the net velocity. It is 0 for an empty set or zero speed. The common
// speed cancels, so Φ is computed from unit headings. Identical headings
// give exactly 1 at θ = 0 and otherwise 1 within a few ulp, because
// cos²θ + sin²θ rounds.
func OrderParameter(ps []Particle, speed float64) float64 {
	if len(ps) == 0 || speed == 0 {
		return 0
	}
	var sum r2.Vec
	for _, p := range ps {
		sum = r2.Add(sum, p.Heading())
	}
	phi := math.Hypot(sum.X, sum.Y) / float64(len(ps))
	return math.Min(phi, 1)
}

// LocalOrder returns, per particle, the magnitude of the mean heading of
// its neighbors; 0 for particles without neighbors.
func LocalOrder(ps []Particle, neighbors [][]int) []float64 {
	out := make([]float64, len(ps))
	for i, nb := range neighbors {
		if i >= len(ps) || len(nb) == 0 {
			continue
		}
		var sum r2.Vec
		for _, j := range nb {
			sum = r2.Add(sum, ps[j].Heading())
		}
		out[i] = math.Hypot(sum.X, sum.Y) / float64(len(nb))
	}
	return out
}

// Tracker keeps the Φ history of a run and its burn-in aware trailing
// average.
type Tracker struct {
	history []float64
	current float64
	avg     float64
}

// Record appends phi as the value of the given iteration. Once iteration
// reaches burnIn the average is recomputed over the last min(window, len)
// entries; before that it keeps its previous value.
func (t *Tracker) Record(phi float64, iteration, burnIn, window int) {
	t.current = phi
	t.history = append(t.history, phi)
	if iteration < burnIn {
		return
	}
	start := len(t.history) - window
	if window <= 0 || start < 0 {
		start = 0
	}
	recent := t.history[start:]
	t.avg = floats.Sum(recent) / float64(len(recent))
}

func (t *Tracker) Current() float64 { return t.current }
func (t *Tracker) Average() float64 { return t.avg }
func (t *Tracker) Len() int         { return len(t.history) }

// History returns a copy of all recorded values.
func (t *Tracker) History() []float64 {
	c := make([]float64, len(t.history))
	copy(c, t.history)
	return c
}

func (t *Tracker) Reset() {
	t.history = t.history[:0]
	t.current = 0
	t.avg = 0
}
