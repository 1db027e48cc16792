package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Autocorrelation returns the normalized autocorrelation ρ(0..maxLag) of
// data. ρ(0) is 1 unless the series is constant, in which case every lag
// is 0.
func Autocorrelation(data []float64, maxLag int) []float64 {
	n := len(data)
	if n == 0 || maxLag < 0 {
		return nil
	}
	if maxLag >= n {
		maxLag = n - 1
	}

	mean := meanOf(data)
	c0 := 0.0
	for _, v := range data {
		d := v - mean
		c0 += d * d
	}

	acf := make([]float64, maxLag+1)
	if c0 == 0 {
		return acf
	}
	for lag := 0; lag <= maxLag; lag++ {
		c := 0.0
		for i := 0; i+lag < n; i++ {
			c += (data[i] - mean) * (data[i+lag] - mean)
		}
		acf[lag] = c / c0
	}
	return acf
}

// IntegratedTime returns τ = 1/2 + Σ ρ(k), summed until ρ first drops to
// or below zero. An uncorrelated series gives roughly 1/2.
func IntegratedTime(data []float64) float64 {
	acf := Autocorrelation(data, len(data)/2)
	tau := 0.5
	for k := 1; k < len(acf); k++ {
		if acf[k] <= 0 {
			break
		}
		tau += acf[k]
	}
	return tau
}

// Detrend subtracts the least-squares line through (i, data[i]).
func Detrend(data []float64) []float64 {
	out := make([]float64, len(data))
	if len(data) < 2 {
		copy(out, data)
		if len(out) == 1 {
			out[0] = 0
		}
		return out
	}

	xs := make([]float64, len(data))
	floats.Span(xs, 0, float64(len(data)-1))
	alpha, beta := stat.LinearRegression(xs, data, nil, false)

	for i, v := range data {
		out[i] = v - (alpha + beta*xs[i])
	}
	return out
}

// Summary holds descriptive statistics of a series.
type Summary struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Tau    float64 `json:"tau"`
	// StdErr is the standard error of the mean corrected for
	// autocorrelation.
	StdErr float64 `json:"std_err"`
}

func Summarize(data []float64) Summary {
	if len(data) == 0 {
		return Summary{}
	}
	s := Summary{
		N:    len(data),
		Min:  floats.Min(data),
		Max:  floats.Max(data),
		Tau:  IntegratedTime(data),
		Mean: meanOf(data),
	}
	if len(data) > 1 {
		s.StdDev = stat.StdDev(data, nil)
		eff := float64(len(data)) / (2 * s.Tau)
		if eff < 1 {
			eff = 1
		}
		s.StdErr = s.StdDev / math.Sqrt(eff)
	}
	return s
}

func meanOf(data []float64) float64 {
	return stat.Mean(data, nil)
}
