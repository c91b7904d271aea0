package pitch

import (
	"github.com/mjibson/go-dsp/fft"
)

// Correlator computes the unnormalized autocorrelation of a window:
// c[lag] = sum x[j]*x[j+lag] for every lag in [0, len(x)).
type Correlator interface {
	Correlate(x []float64) []float64
}

// DirectCorrelator evaluates the autocorrelation sum directly in O(n²).
type DirectCorrelator struct{}

// Correlate implements Correlator.
func (DirectCorrelator) Correlate(x []float64) []float64 {
	n := len(x)
	c := make([]float64, n)
	for lag := 0; lag < n; lag++ {
		sum := 0.0
		for j := 0; j < n-lag; j++ {
			sum += x[j] * x[j+lag]
		}
		c[lag] = sum
	}
	return c
}

// FFTCorrelator computes the same sequence as DirectCorrelator through the
// power spectrum (Wiener-Khinchin) in O(n log n). The window is zero padded to
// at least twice its length so the circular correlation does not wrap.
type FFTCorrelator struct{}

// Correlate implements Correlator.
func (FFTCorrelator) Correlate(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}

	size := 1
	for size < 2*n {
		size <<= 1
	}

	padded := make([]complex128, size)
	for i, v := range x {
		padded[i] = complex(v, 0)
	}

	spectrum := fft.FFT(padded)

	// |X|² is the spectrum of the autocorrelation
	for i, v := range spectrum {
		spectrum[i] = complex(real(v)*real(v)+imag(v)*imag(v), 0)
	}

	r := fft.IFFT(spectrum)

	c := make([]float64, n)
	for lag := range c {
		c[lag] = real(r[lag])
	}
	return c
}

// CorrelatorByName returns the correlator for a configuration value
// ("direct" or "fft"); unknown names fall back to DirectCorrelator.
func CorrelatorByName(name string) Correlator {
	if name == "fft" {
		return FFTCorrelator{}
	}
	return DirectCorrelator{}
}
