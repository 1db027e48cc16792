package analysis

import (
	"math"
	"math/bits"
	"math/cmplx"
)

// FFT is a recursive radix-2 transform. The input is zero-padded to the
// next power of two.
func FFT(data []float64) []complex128 {
	return fft(padPow2(data))
}

func fft(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)

	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := fft(even)
	fodd := fft(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}

	return result
}

// PowerSpectrum returns the magnitudes of the first half of the transform
// of the mean-removed series. Bin k corresponds to a period of n/k steps,
// where n is the padded length.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	centered := make([]float64, len(data))
	mean := meanOf(data)
	for i, v := range data {
		centered[i] = v - mean
	}

	fft := FFT(centered)
	ps := make([]float64, len(fft)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}

	return ps
}

// DominantPeriod returns the period in steps of the strongest non-zero
// frequency, or 0 when the spectrum is flat.
func DominantPeriod(data []float64) float64 {
	ps := PowerSpectrum(data)
	best, at := 0.0, 0
	for k := 1; k < len(ps); k++ {
		if ps[k] > best {
			best, at = ps[k], k
		}
	}
	if at == 0 {
		return 0
	}
	return float64(2*len(ps)) / float64(at)
}

func padPow2(data []float64) []float64 {
	n := len(data)
	if n <= 1 || n&(n-1) == 0 {
		return data
	}
	padded := make([]float64, 1<<bits.Len(uint(n)))
	copy(padded, data)
	return padded
}
