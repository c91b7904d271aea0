package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xlemi/vocalrange/internal/audio"
	"github.com/0xlemi/vocalrange/internal/config"
	"github.com/0xlemi/vocalrange/internal/pitch"
)

func tone(freq float64, seconds float64, sampleRate int) []float32 {
	samples := make([]float32, int(seconds*float64(sampleRate)))
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return samples
}

func TestOrderRange(t *testing.T) {
	low, high, err := orderRange("a4", "E2")
	require.NoError(t, err)
	assert.Equal(t, "E2", low)
	assert.Equal(t, "A4", high)

	low, high, err = orderRange("C#3", "C#3")
	require.NoError(t, err)
	assert.Equal(t, "C#3", low)
	assert.Equal(t, "C#3", high)

	_, _, err = orderRange("H2", "A4")
	assert.Error(t, err)
	_, _, err = orderRange("C3", "A")
	assert.Error(t, err)
}

func TestAnalyzeRecording(t *testing.T) {
	const sr = 44100
	samples := append(tone(220, 0.5, sr), make([]float32, sr/4)...)
	samples = append(samples, tone(440, 0.5, sr)...)
	buf := &audio.AudioBuffer{Samples: samples, SampleRate: sr}

	detector := pitch.NewAutocorrelationDetector(pitch.DefaultOptions(), pitch.DefaultMapper)
	a := analyzeRecording(detector, buf, 2048, 1024)

	assert.Equal(t, len(audio.Frames(samples, 2048, 1024)), a.Frames)
	require.NotNil(t, a.Low)
	require.NotNil(t, a.High)
	assert.Equal(t, "A3", a.Low.FullName())
	assert.Equal(t, "A4", a.High.FullName())
	assert.Less(t, len(a.Detections), a.Frames, "silent frames report no pitch")

	first := a.Detections[0]
	assert.Equal(t, time.Duration(0), first.At)

	var out bytes.Buffer
	require.NoError(t, a.print(&out, false))
	text := out.String()
	assert.Contains(t, text, "A3")
	assert.Contains(t, text, "Lowest:  A3")
	assert.Contains(t, text, "Highest: A4")
}

func TestAnalysisPrint_NoPitch(t *testing.T) {
	var out bytes.Buffer
	err := analysis{Frames: 4}.print(&out, false)
	assert.ErrorIs(t, err, errNoPitch)
	assert.Contains(t, out.String(), "0 of 4 frames")
}

func TestNoteCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"note", "440"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "A4 +0.0 cents\n", out.String())

	root = newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"note", "5"})
	assert.ErrorIs(t, root.Execute(), pitch.ErrOutOfRange)
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvGeminiAPIKey, "")
	t.Setenv(config.EnvOpenAIAPIKey, "from-env")

	path := filepath.Join(t.TempDir(), "vocalrange.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
audio:
  backend: malgo
pitch:
  correlator: fft
log:
  level: debug
`), 0o600))

	opts := &options{configPath: path}
	flags := testFlags(opts)
	require.NoError(t, flags.Parse([]string{"--backend", "portaudio", "--provider", "openai", "--hysteresis", "12"}))

	cfg, err := loadConfig(flags, opts)
	require.NoError(t, err)
	assert.Equal(t, config.BackendPortAudio, cfg.Audio.Backend)
	assert.Equal(t, config.CorrelatorFFT, cfg.Pitch.Correlator)
	assert.Equal(t, config.LogDebug, cfg.Log.Level)
	assert.Equal(t, 12.0, cfg.Pitch.HysteresisCents)
	assert.Equal(t, config.ProviderOpenAI, cfg.Advisor.Provider)
	assert.Equal(t, "from-env", cfg.Advisor.APIKey)
}

func TestLoadConfig_Invalid(t *testing.T) {
	opts := &options{}
	flags := testFlags(opts)
	require.NoError(t, flags.Parse([]string{"--backend", "alsa"}))

	_, err := loadConfig(flags, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audio.backend")
}

func testFlags(opts *options) *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringVar(&opts.backend, "backend", "", "")
	flags.StringVar(&opts.provider, "provider", "", "")
	flags.Float64Var(&opts.hysteresis, "hysteresis", 0, "")
	return flags
}
