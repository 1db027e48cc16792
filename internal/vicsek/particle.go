package vicsek

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Particle is a self-propelled point. Theta is never normalized; only its
// cosine and sine are meaningful.
type Particle struct {
	Pos   r2.Vec  `json:"pos"`
	Theta float64 `json:"theta"`
}

// Heading returns the unit vector (cosθ, sinθ).
func (p Particle) Heading() r2.Vec {
	s, c := math.Sincos(p.Theta)
	return r2.Vec{X: c, Y: s}
}

// Velocity returns speed·(cosθ, sinθ).
func (p Particle) Velocity(speed float64) r2.Vec {
	return r2.Scale(speed, p.Heading())
}

func cloneParticles(ps []Particle) []Particle {
	c := make([]Particle, len(ps))
	copy(c, ps)
	return c
}
