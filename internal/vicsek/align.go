package vicsek

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// cancelEpsilon bounds, per summed unit vector, the magnitude below which
// a heading sum counts as exact cancellation. atan2 of the rounding
// residue would otherwise pick an arbitrary direction.
const cancelEpsilon = 1e-12

// alignHeadings writes the post-alignment heading of every particle into
// dst. It reads only headings, units, neighbors and noise, so the result
// does not depend on the order (or parallelism) in which particles are
// processed.
func alignHeadings(dst, headings []float64, units []r2.Vec, neighbors [][]int, noise []float64, workers int) {
	parallelFor(len(headings), workers, func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = alignOne(i, headings, units, neighbors[i], noise[i])
		}
	})
}

func alignOne(i int, headings []float64, units []r2.Vec, nb []int, noise float64) float64 {
	if len(nb) == 0 {
		return headings[i] + noise
	}

	sum := units[i]
	for _, j := range nb {
		sum = r2.Add(sum, units[j])
	}

	avg := math.Atan2(sum.Y, sum.X)
	if math.Hypot(sum.X, sum.Y) < cancelEpsilon*float64(len(nb)+1) {
		avg = math.Atan2(0, 0)
	}
	return avg + noise
}

// drawNoise fills noise with one U(-η/2, η/2) draw per particle, in index
// order.
func drawNoise(noise []float64, src uniformSource, amplitude float64) {
	for i := range noise {
		noise[i] = src.Uniform(-amplitude/2, amplitude/2)
	}
}

type uniformSource interface {
	Uniform(min, max float64) float64
}
