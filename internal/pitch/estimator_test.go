package pitch

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sine returns n samples of a sine wave starting at phase zero.
func sine(freq, sampleRate float64, n int, amplitude float64) []float32 {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(amplitude * math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
	}
	return samples
}

// frameFor picks a power-of-two frame long enough to hold several periods.
func frameFor(freq, sampleRate float64) int {
	n := 2048
	for float64(n) < 7*sampleRate/freq {
		n *= 2
	}
	return n
}

func TestEstimate_SineAccuracy(t *testing.T) {
	const sampleRate = 44100.0

	correlators := map[string]Correlator{
		"direct": DirectCorrelator{},
		"fft":    FFTCorrelator{},
	}

	for name, corr := range correlators {
		e := NewEstimator(Options{Correlator: corr})
		for _, f := range []float64{20, 55, 110, 130, 220, 440, 520, 880, 1760, 2000} {
			t.Run(fmt.Sprintf("%s/%.0fHz", name, f), func(t *testing.T) {
				got, err := e.Estimate(sine(f, sampleRate, frameFor(f, sampleRate), 0.8), sampleRate)
				require.NoError(t, err)
				assert.InDelta(t, f, got, f*0.01)
			})
		}
	}
}

func TestEstimate_OtherSampleRates(t *testing.T) {
	e := NewEstimator(DefaultOptions())

	for _, sr := range []float64{16000, 22050, 48000} {
		got, err := e.Estimate(sine(330, sr, 2048, 0.5), sr)
		require.NoError(t, err, "sr=%v", sr)
		assert.InDelta(t, 330, got, 3.3, "sr=%v", sr)
	}
}

func TestEstimate_QuietSineBelowTrimThreshold(t *testing.T) {
	e := NewEstimator(DefaultOptions())

	// RMS ~0.07 clears the gate while no sample reaches the trim amplitude.
	got, err := e.Estimate(sine(440, 44100, 2048, 0.1), 44100)
	require.NoError(t, err)
	assert.InDelta(t, 440, got, 4.4)
}

func TestEstimate_SilenceGate(t *testing.T) {
	e := NewEstimator(DefaultOptions())

	frames := map[string][]float32{
		"zeros":      make([]float32, 2048),
		"faint sine": sine(440, 44100, 2048, 0.01), // RMS ~0.007
		"faint dc":   constant(2048, 0.009),
	}
	for name, frame := range frames {
		t.Run(name, func(t *testing.T) {
			assert.Less(t, RMS(frame), DefaultSilenceRMS)
			got, err := e.Estimate(frame, 44100)
			assert.ErrorIs(t, err, ErrVolumeThreshold)
			assert.ErrorIs(t, err, ErrNoPitch)
			assert.Zero(t, got)
		})
	}
}

func TestEstimate_DegenerateWindows(t *testing.T) {
	e := NewEstimator(DefaultOptions())

	frames := map[string][]float32{
		"dc":        constant(2048, 0.5),
		"one":       {0.9},
		"two":       {0.9, -0.9},
		"three":     {0.9, 0.9, 0.9},
		"ramp":      ramp(2048),
		"alternate": alternating(7, 0.9),
	}
	for name, frame := range frames {
		t.Run(name, func(t *testing.T) {
			var got float64
			var err error
			assert.NotPanics(t, func() { got, err = e.Estimate(frame, 44100) })
			if err != nil {
				assert.ErrorIs(t, err, ErrNoPitch)
				return
			}
			assert.False(t, math.IsNaN(got) || math.IsInf(got, 0))
			assert.Greater(t, got, 0.0)
		})
	}
}

func TestEstimate_DCHasNoPeriod(t *testing.T) {
	e := NewEstimator(DefaultOptions())

	_, err := e.Estimate(constant(2048, 0.5), 44100)
	assert.ErrorIs(t, err, ErrNoPeriod)
}

func TestEstimate_InvalidInput(t *testing.T) {
	e := NewEstimator(DefaultOptions())

	_, err := e.Estimate(nil, 44100)
	assert.ErrorIs(t, err, ErrEmptyBuffer)

	_, err = e.Estimate(sine(440, 44100, 2048, 0.8), 0)
	assert.ErrorIs(t, err, ErrEmptyBuffer)
}

func TestNewEstimator_Defaults(t *testing.T) {
	e := NewEstimator(Options{})
	assert.Equal(t, DefaultSilenceRMS, e.opts.SilenceRMS)
	assert.Equal(t, DefaultTrimThreshold, e.opts.TrimThreshold)
	assert.IsType(t, DirectCorrelator{}, e.opts.Correlator)
}

func TestEstimate_CustomSilenceGate(t *testing.T) {
	e := NewEstimator(Options{SilenceRMS: 0.2})

	_, err := e.Estimate(sine(440, 44100, 2048, 0.2), 44100) // RMS ~0.14
	assert.ErrorIs(t, err, ErrVolumeThreshold)
}

func TestActiveRegion(t *testing.T) {
	samples := []float32{0.9, 0.8, 0.1, 0.5, 0.5, 0.5, 0.05, 0.9}
	start, end := activeRegion(samples, 0.2)
	assert.Equal(t, 2, start)
	assert.Equal(t, 6, end)

	loud := constant(8, 0.9)
	start, end = activeRegion(loud, 0.2)
	assert.Equal(t, 0, start)
	assert.Equal(t, 7, end)
}

func TestCorrelators_Agree(t *testing.T) {
	x := make([]float64, 777)
	for i := range x {
		x[i] = 0.6*math.Sin(float64(i)*0.07) + 0.3*math.Sin(float64(i)*0.31+1)
	}

	direct := DirectCorrelator{}.Correlate(x)
	viaFFT := FFTCorrelator{}.Correlate(x)
	require.Len(t, viaFFT, len(direct))

	tol := 1e-9 * direct[0]
	for lag := range direct {
		assert.InDelta(t, direct[lag], viaFFT[lag], tol, "lag %d", lag)
	}

	assert.Nil(t, FFTCorrelator{}.Correlate(nil))
}

func TestCorrelatorByName(t *testing.T) {
	assert.IsType(t, FFTCorrelator{}, CorrelatorByName("fft"))
	assert.IsType(t, DirectCorrelator{}, CorrelatorByName("direct"))
	assert.IsType(t, DirectCorrelator{}, CorrelatorByName(""))
}

func ExampleDirectCorrelator() {
	c := DirectCorrelator{}.Correlate([]float64{1, 2, 3})
	fmt.Println(c)

	// Output:
	// [14 8 3]
}

func constant(n int, v float32) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func ramp(n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = float32(i) / float32(n)
	}
	return s
}

func alternating(n int, v float32) []float32 {
	s := make([]float32, n)
	for i := range s {
		if i%2 == 0 {
			s[i] = v
		} else {
			s[i] = -v
		}
	}
	return s
}
