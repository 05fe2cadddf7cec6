package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT transforms data, whose length must be a power of two.
func FFT(data []float64) ([]complex128, error) {
	n := len(data)
	if n == 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("fft requires power of 2 length, got %d", n)
	}
	return fft.FFTReal(data), nil
}

// Spectrum returns the magnitude of the first half of the transform of data
// after removing its mean and zero padding it to a power of two. Bin i has
// frequency i / (n * sampleDt) where n is the padded length.
func Spectrum(data []float64) (power []float64, n int) {
	n = 1
	for n < len(data) {
		n *= 2
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	if len(data) > 0 {
		mean /= float64(len(data))
	}
	padded := make([]float64, n)
	for i, v := range data {
		padded[i] = v - mean
	}

	f := fft.FFTReal(padded)
	power = make([]float64, n/2)
	for i := range power {
		power[i] = cmplx.Abs(f[i])
	}
	return power, n
}

// Dominant returns the frequency of the strongest non-zero bin of data
// sampled every sampleDt, and that bin's magnitude. A constant or too short
// series yields zero.
func Dominant(data []float64, sampleDt float64) (freq, magnitude float64) {
	if len(data) < 4 || sampleDt <= 0 {
		return 0, 0
	}
	power, n := Spectrum(data)
	idx := 0
	for i := 1; i < len(power); i++ {
		if power[i] > magnitude {
			magnitude, idx = power[i], i
		}
	}
	if magnitude < 1e-12 {
		return 0, 0
	}
	return float64(idx) / (float64(n) * sampleDt), magnitude
}

// Settle returns the index of the first sample after which every value lies
// within tol of the final value, or -1 for an empty series.
func Settle(data []float64, tol float64) int {
	if len(data) == 0 {
		return -1
	}
	final := data[len(data)-1]
	for i := len(data) - 1; i >= 0; i-- {
		if math.Abs(data[i]-final) > tol {
			return i + 1
		}
	}
	return 0
}
