// Package config provides the configuration schema and loader for vocalrange.
package config

import "time"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Backend selects the microphone capture implementation.
type Backend string

const (
	BackendPortAudio Backend = "portaudio"
	BackendMalgo     Backend = "malgo"
)

// IsValid reports whether b is a recognised audio backend.
func (b Backend) IsValid() bool {
	return b == BackendPortAudio || b == BackendMalgo
}

// Correlator selects how the pitch estimator computes autocorrelation.
type Correlator string

const (
	CorrelatorDirect Correlator = "direct"
	CorrelatorFFT    Correlator = "fft"
)

// IsValid reports whether c is a recognised correlator.
func (c Correlator) IsValid() bool {
	return c == CorrelatorDirect || c == CorrelatorFFT
}

// Provider selects the vocal advisory backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// IsValid reports whether p is a recognised advisory provider.
func (p Provider) IsValid() bool {
	return p == ProviderGemini || p == ProviderOpenAI
}

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Audio   AudioConfig   `yaml:"audio"`
	Pitch   PitchConfig   `yaml:"pitch"`
	Advisor AdvisorConfig `yaml:"advisor"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// AudioConfig configures microphone capture.
type AudioConfig struct {
	// Backend is the capture library to use.
	Backend Backend `yaml:"backend"`

	// BufferSize is the number of mono samples per analysed frame.
	BufferSize int `yaml:"buffer_size"`

	// SampleRate in Hz.
	SampleRate int `yaml:"sample_rate"`

	// Channels to open on the input device; they are mixed down to mono.
	Channels int `yaml:"channels"`

	// Amplification is applied to every sample after mixing.
	Amplification float64 `yaml:"amplification"`
}

// PitchConfig tunes the pitch estimator and note mapper.
type PitchConfig struct {
	// SilenceRMS is the energy gate; quieter frames report no pitch.
	SilenceRMS float64 `yaml:"silence_rms"`

	// TrimThreshold bounds the analysed window to the signal's active region.
	TrimThreshold float64 `yaml:"trim_threshold"`

	// MinHz and MaxHz bound the frequencies mapped to notes.
	MinHz float64 `yaml:"min_hz"`
	MaxHz float64 `yaml:"max_hz"`

	Correlator Correlator `yaml:"correlator"`

	// HysteresisCents keeps the previous note near semitone boundaries.
	// Zero disables it.
	HysteresisCents float64 `yaml:"hysteresis_cents"`
}

// AdvisorConfig configures the service that turns a range into advice.
type AdvisorConfig struct {
	Provider Provider `yaml:"provider"`

	// Model is the provider-specific model name.
	Model string `yaml:"model"`

	// APIKey is normally supplied through the environment; see [ApplyEnv].
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds a single advisory request.
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level LogLevel `yaml:"level"`

	// File receives log output. Empty discards logs while the TUI runs.
	File string `yaml:"file"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// ListenAddr serves /metrics when non-empty (e.g. "127.0.0.1:9464").
	ListenAddr string `yaml:"listen_addr"`
}

// Default model names per provider.
const (
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// Default returns a configuration with every value set.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			Backend:       BackendPortAudio,
			BufferSize:    2048,
			SampleRate:    44100,
			Channels:      1,
			Amplification: 1.0,
		},
		Pitch: PitchConfig{
			SilenceRMS:    0.01,
			TrimThreshold: 0.2,
			MinHz:         20,
			MaxHz:         8000,
			Correlator:    CorrelatorDirect,
		},
		Advisor: AdvisorConfig{
			Provider: ProviderGemini,
			Timeout:  15 * time.Second,
		},
		Log: LogConfig{
			Level: LogInfo,
		},
	}
}

// ModelOrDefault returns the configured model or the provider's default.
func (a AdvisorConfig) ModelOrDefault() string {
	if a.Model != "" {
		return a.Model
	}
	if a.Provider == ProviderOpenAI {
		return DefaultOpenAIModel
	}
	return DefaultGeminiModel
}
