package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xlemi/vocalrange/internal/config"
)

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	require.NoError(t, config.Validate(cfg))

	assert.Equal(t, config.BackendPortAudio, cfg.Audio.Backend)
	assert.Equal(t, 2048, cfg.Audio.BufferSize)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.InDelta(t, 0.01, cfg.Pitch.SilenceRMS, 1e-12)
	assert.InDelta(t, 0.2, cfg.Pitch.TrimThreshold, 1e-12)
	assert.Equal(t, config.CorrelatorDirect, cfg.Pitch.Correlator)
	assert.Zero(t, cfg.Pitch.HysteresisCents)
	assert.Equal(t, 15*time.Second, cfg.Advisor.Timeout)
	assert.Empty(t, cfg.Metrics.ListenAddr)
}

func TestLoadFromReader_OverridesDefaults(t *testing.T) {
	t.Parallel()
	yaml := `
audio:
  backend: malgo
  buffer_size: 4096
pitch:
  correlator: fft
  hysteresis_cents: 10
advisor:
  provider: openai
  timeout: 5s
log:
  level: debug
  file: /tmp/vocalrange.log
metrics:
  listen_addr: 127.0.0.1:9464
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	require.NoError(t, err)

	assert.Equal(t, config.BackendMalgo, cfg.Audio.Backend)
	assert.Equal(t, 4096, cfg.Audio.BufferSize)
	assert.Equal(t, 44100, cfg.Audio.SampleRate, "unset fields keep defaults")
	assert.Equal(t, config.CorrelatorFFT, cfg.Pitch.Correlator)
	assert.InDelta(t, 10, cfg.Pitch.HysteresisCents, 1e-12)
	assert.Equal(t, config.ProviderOpenAI, cfg.Advisor.Provider)
	assert.Equal(t, 5*time.Second, cfg.Advisor.Timeout)
	assert.Equal(t, config.LogDebug, cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:9464", cfg.Metrics.ListenAddr)
}

func TestLoadFromReader_EmptyDocument(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("pitch:\n  window: 10\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()
	yaml := `
audio:
  backend: alsa
  channels: 6
pitch:
  min_hz: 500
  max_hz: 100
  correlator: wavelet
advisor:
  provider: anthropic
log:
  level: trace
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	require.Error(t, err)

	for _, want := range []string{
		"audio.backend",
		"audio.channels",
		"pitch.min_hz",
		"pitch.correlator",
		"advisor.provider",
		"log.level",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("audio:\n  sample_rate: 48000\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 48000, cfg.Audio.SampleRate)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()
	env := map[string]string{
		config.EnvGeminiAPIKey: "gemini-key",
		config.EnvOpenAIAPIKey: "openai-key",
	}
	getenv := func(k string) string { return env[k] }

	cfg := config.Default()
	config.ApplyEnv(cfg, getenv)
	assert.Equal(t, "gemini-key", cfg.Advisor.APIKey)

	cfg = config.Default()
	cfg.Advisor.Provider = config.ProviderOpenAI
	config.ApplyEnv(cfg, getenv)
	assert.Equal(t, "openai-key", cfg.Advisor.APIKey)

	env[config.EnvAPIKey] = "generic"
	cfg = config.Default()
	config.ApplyEnv(cfg, getenv)
	assert.Equal(t, "generic", cfg.Advisor.APIKey)

	cfg = config.Default()
	cfg.Advisor.APIKey = "from-file"
	config.ApplyEnv(cfg, getenv)
	assert.Equal(t, "from-file", cfg.Advisor.APIKey)
}

func TestLoadEnv_ReadsDotEnv(t *testing.T) {
	const key = "VOCALRANGE_TEST_DOTENV_KEY"
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=secret\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	config.LoadEnv(path, filepath.Join(t.TempDir(), "missing.env"))
	assert.Equal(t, "secret", os.Getenv(key))
}

func TestAdvisorConfig_ModelOrDefault(t *testing.T) {
	t.Parallel()
	assert.Equal(t, config.DefaultGeminiModel, config.AdvisorConfig{Provider: config.ProviderGemini}.ModelOrDefault())
	assert.Equal(t, config.DefaultOpenAIModel, config.AdvisorConfig{Provider: config.ProviderOpenAI}.ModelOrDefault())
	assert.Equal(t, "custom", config.AdvisorConfig{Model: "custom"}.ModelOrDefault())
}
