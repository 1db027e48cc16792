package vicsek

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/vicsek/internal/torus"
)

// integrate moves every particle one time step along its current heading
// and wraps it back onto the torus.
func integrate(ps []Particle, d torus.Domain, speed, dt float64) {
	for i := range ps {
		step := r2.Scale(dt, ps[i].Velocity(speed))
		ps[i].Pos = d.Wrap(r2.Add(ps[i].Pos, step))
	}
}

func recordTrails(trails []Trail, ps []Particle, capacity int) {
	for i := range trails {
		if capacity > 0 {
			trails[i].Push(ps[i].Pos, capacity)
		} else if trails[i].Len() > 0 {
			trails[i].Clear()
		}
	}
}
