package vicsek

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/vicsek/internal/torus"
)

// coneWidth is the full opening angle of the "cone" heading mode.
const coneWidth = math.Pi / 4

// initParticles draws cfg.ParticleCount particles. For each particle the
// position draws come first, then the heading draw.
func initParticles(cfg Config, d torus.Domain, src uniformSource) []Particle {
	n := cfg.ParticleCount
	ps := make([]Particle, n)

	g := int(math.Ceil(math.Sqrt(float64(n))))
	cw, ch := d.Width/float64(g), d.Height/float64(g)

	for i := range ps {
		var x, y float64
		switch cfg.InitPositions {
		case PositionsGrid:
			row, col := i/g, i%g
			x = (float64(col)+0.5)*cw + src.Uniform(-cw/4, cw/4)
			y = (float64(row)+0.5)*ch + src.Uniform(-ch/4, ch/4)
		default:
			x = src.Uniform(0, d.Width)
			y = src.Uniform(0, d.Height)
		}

		var theta float64
		switch cfg.InitHeadings {
		case HeadingsAligned:
			theta = 0
		case HeadingsCone:
			theta = src.Uniform(-coneWidth/2, coneWidth/2)
		default:
			theta = src.Uniform(0, 2*math.Pi)
		}

		ps[i] = Particle{Pos: d.Wrap(r2.Vec{X: x, Y: y}), Theta: theta}
	}
	return ps
}
