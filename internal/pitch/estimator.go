package pitch

import (
	"math"
)

// Default estimator thresholds on a [-1, 1] sample scale.
const (
	DefaultSilenceRMS    = 0.01
	DefaultTrimThreshold = 0.2
)

// Options tunes the autocorrelation estimator.
type Options struct {
	SilenceRMS    float64    // Frames with lower RMS are treated as silence
	TrimThreshold float64    // Amplitude that marks the start/end of the active region
	Correlator    Correlator // Autocorrelation backend, DirectCorrelator when nil
}

// DefaultOptions returns the empirically tuned thresholds.
func DefaultOptions() Options {
	return Options{
		SilenceRMS:    DefaultSilenceRMS,
		TrimThreshold: DefaultTrimThreshold,
		Correlator:    DirectCorrelator{},
	}
}

// Estimator finds the fundamental frequency of a mono frame using
// autocorrelation with an energy gate and parabolic peak refinement.
// It holds no state between calls.
type Estimator struct {
	opts Options
}

// NewEstimator creates an estimator. Zero-valued options fall back to defaults.
func NewEstimator(opts Options) *Estimator {
	def := DefaultOptions()
	if opts.SilenceRMS <= 0 {
		opts.SilenceRMS = def.SilenceRMS
	}
	if opts.TrimThreshold <= 0 {
		opts.TrimThreshold = def.TrimThreshold
	}
	if opts.Correlator == nil {
		opts.Correlator = def.Correlator
	}
	return &Estimator{opts: opts}
}

// Estimate returns the fundamental frequency of samples in Hz. Silence returns
// ErrVolumeThreshold; a window without a usable period returns ErrNoPeriod.
func (e *Estimator) Estimate(samples []float32, sampleRate float64) (float64, error) {
	if len(samples) == 0 || sampleRate <= 0 {
		return 0, ErrEmptyBuffer
	}

	if RMS(samples) < e.opts.SilenceRMS {
		return 0, ErrVolumeThreshold
	}

	start, end := activeRegion(samples, float32(e.opts.TrimThreshold))
	window := make([]float64, end-start)
	for i := range window {
		window[i] = float64(samples[start+i])
	}
	if len(window) < 3 {
		return 0, ErrNoPeriod
	}

	c := e.opts.Correlator.Correlate(window)

	period, ok := peakLag(c)
	if !ok {
		return 0, ErrNoPeriod
	}

	freq := sampleRate / period
	if math.IsNaN(freq) || math.IsInf(freq, 0) || freq <= 0 {
		return 0, ErrNoPeriod
	}
	return freq, nil
}

// RMS returns the root-mean-square level of samples.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, s := range samples {
		v := float64(s)
		sumSquares += v * v
	}
	return math.Sqrt(sumSquares / float64(len(samples)))
}

// activeRegion returns [start, end) of the sustained part of the frame: the
// first quiet sample in the first half and the last quiet sample in the second
// half. Missing trim points leave the frame edges in place.
func activeRegion(samples []float32, threshold float32) (int, int) {
	size := len(samples)
	start, end := 0, size-1

	for i := 0; i < size/2; i++ {
		if abs32(samples[i]) < threshold {
			start = i
			break
		}
	}
	for i := 1; i < size/2; i++ {
		if abs32(samples[size-i]) < threshold {
			end = size - i
			break
		}
	}

	if end < start {
		end = start
	}
	return start, end
}

// peakLag skips the initial descent of c, picks the highest lag after it and
// refines it with a parabola through its neighbours. ok is false when the
// correlation has no interior peak.
func peakLag(c []float64) (float64, bool) {
	n := len(c)

	d := 0
	for d < n-1 && c[d] > c[d+1] {
		d++
	}
	if d >= n-1 {
		return 0, false
	}

	maxPos := -1
	maxVal := math.Inf(-1)
	for i := d; i < n; i++ {
		if c[i] > maxVal {
			maxVal = c[i]
			maxPos = i
		}
	}
	if maxPos <= 0 || maxPos >= n-1 {
		return 0, false
	}

	t0 := float64(maxPos)
	x1, x2, x3 := c[maxPos-1], c[maxPos], c[maxPos+1]
	a := (x1 + x3 - 2*x2) / 2
	b := (x3 - x1) / 2
	if a != 0 {
		t0 -= b / (2 * a)
	}
	if t0 <= 0 {
		return 0, false
	}
	return t0, true
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
