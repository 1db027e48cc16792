// Package rng provides the seeded pseudo-random stream behind every
// stochastic choice of a simulation run.
//
// The generator is a small linear congruential recurrence. It is not meant
// for anything beyond reproducible toy statistics: the same seed and the
// same call order always yield the same sequence, which is what replays and
// regression tests rely on.
package rng

const (
	multiplier = 9301
	increment  = 49297
	modulus    = 233280
)

// Source is a deterministic uniform generator. It is not safe for
// concurrent use.
type Source struct {
	seed  int64
	state int64
}

// New returns a source seeded with seed. Any integer is accepted; the seed
// is reduced into [0, modulus) before the first draw.
func New(seed int64) *Source {
	return &Source{seed: seed, state: reduce(seed)}
}

// Seed returns the seed the source was created with.
func (s *Source) Seed() int64 { return s.seed }

// Float64 advances the state and returns a value in [0, 1).
func (s *Source) Float64() float64 {
	s.state = (s.state*multiplier + increment) % modulus
	return float64(s.state) / modulus
}

// Uniform returns a value in [min, max).
func (s *Source) Uniform(min, max float64) float64 {
	return min + (max-min)*s.Float64()
}

// Period is the length of the cycle of the recurrence.
func Period() int { return modulus }

func reduce(seed int64) int64 {
	r := seed % modulus
	if r < 0 {
		r += modulus
	}
	return r
}
