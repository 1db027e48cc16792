// Package torus implements distances and wrapping on a periodic rectangle.
//
// All functions are total: any finite input, including negative or
// out-of-range coordinates, yields a defined result.
package torus

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Domain is a W×H rectangle with periodic boundaries on both axes.
type Domain struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Validate reports whether both sides are positive and finite.
func (d Domain) Validate() error {
	if !(d.Width > 0) || math.IsInf(d.Width, 0) {
		return fmt.Errorf("torus: width must be positive, got %v", d.Width)
	}
	if !(d.Height > 0) || math.IsInf(d.Height, 0) {
		return fmt.Errorf("torus: height must be positive, got %v", d.Height)
	}
	return nil
}

// Area returns W·H.
func (d Domain) Area() float64 { return d.Width * d.Height }

// Wrap maps p onto [0,W)×[0,H).
func (d Domain) Wrap(p r2.Vec) r2.Vec {
	return r2.Vec{X: mod(p.X, d.Width), Y: mod(p.Y, d.Height)}
}

// Contains reports whether p already lies in [0,W)×[0,H).
func (d Domain) Contains(p r2.Vec) bool {
	return p.X >= 0 && p.X < d.Width && p.Y >= 0 && p.Y < d.Height
}

// Distance returns the length of the shortest path between a and b on the
// torus. It is symmetric in its arguments bit for bit.
func (d Domain) Distance(a, b r2.Vec) float64 {
	dx := axisGap(a.X, b.X, d.Width)
	dy := axisGap(a.Y, b.Y, d.Height)
	return math.Sqrt(dx*dx + dy*dy)
}

// Displacement returns the shortest signed vector from `from` to `to`.
// Each component lies in (-W/2, W/2] and (-H/2, H/2] respectively.
func (d Domain) Displacement(from, to r2.Vec) r2.Vec {
	return r2.Vec{
		X: signedGap(to.X-from.X, d.Width),
		Y: signedGap(to.Y-from.Y, d.Height),
	}
}

// MaxDistance is the largest distance two points of the domain can have.
func (d Domain) MaxDistance() float64 {
	return math.Hypot(d.Width/2, d.Height/2)
}

func (d Domain) String() string {
	return fmt.Sprintf("%gx%g", d.Width, d.Height)
}

// mod is a true modulo with result in [0, m).
func mod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	// r+m can round up to m for tiny negative r
	if r >= m {
		r = 0
	}
	return r
}

func axisGap(a, b, size float64) float64 {
	g := mod(math.Abs(a-b), size)
	return math.Min(g, size-g)
}

func signedGap(delta, size float64) float64 {
	g := mod(delta, size)
	if g > size/2 {
		g -= size
	}
	return g
}
