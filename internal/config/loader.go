package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path over [Default] and returns
// the validated result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r over [Default] and validates
// the result. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Audio
	if !cfg.Audio.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("audio.backend %q is invalid; valid values: portaudio, malgo", cfg.Audio.Backend))
	}
	if cfg.Audio.BufferSize < 64 {
		errs = append(errs, fmt.Errorf("audio.buffer_size %d is too small; minimum 64", cfg.Audio.BufferSize))
	}
	if cfg.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d must be positive", cfg.Audio.SampleRate))
	}
	if cfg.Audio.Channels < 1 || cfg.Audio.Channels > 2 {
		errs = append(errs, fmt.Errorf("audio.channels %d is out of range [1, 2]", cfg.Audio.Channels))
	}
	if cfg.Audio.Amplification < 0.1 || cfg.Audio.Amplification > 10 {
		errs = append(errs, fmt.Errorf("audio.amplification %.2f is out of range [0.1, 10]", cfg.Audio.Amplification))
	}

	// Pitch
	if cfg.Pitch.SilenceRMS < 0 || cfg.Pitch.SilenceRMS >= 1 {
		errs = append(errs, fmt.Errorf("pitch.silence_rms %.3f is out of range [0, 1)", cfg.Pitch.SilenceRMS))
	}
	if cfg.Pitch.TrimThreshold < 0 || cfg.Pitch.TrimThreshold >= 1 {
		errs = append(errs, fmt.Errorf("pitch.trim_threshold %.3f is out of range [0, 1)", cfg.Pitch.TrimThreshold))
	}
	if cfg.Pitch.MinHz <= 0 || cfg.Pitch.MaxHz <= cfg.Pitch.MinHz {
		errs = append(errs, fmt.Errorf("pitch.min_hz %.1f and pitch.max_hz %.1f must satisfy 0 < min_hz < max_hz", cfg.Pitch.MinHz, cfg.Pitch.MaxHz))
	}
	if !cfg.Pitch.Correlator.IsValid() {
		errs = append(errs, fmt.Errorf("pitch.correlator %q is invalid; valid values: direct, fft", cfg.Pitch.Correlator))
	}
	if cfg.Pitch.HysteresisCents < 0 || cfg.Pitch.HysteresisCents > 50 {
		errs = append(errs, fmt.Errorf("pitch.hysteresis_cents %.1f is out of range [0, 50]", cfg.Pitch.HysteresisCents))
	}

	// Advisor
	if !cfg.Advisor.Provider.IsValid() {
		errs = append(errs, fmt.Errorf("advisor.provider %q is invalid; valid values: gemini, openai", cfg.Advisor.Provider))
	}
	if cfg.Advisor.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("advisor.timeout %s must be positive", cfg.Advisor.Timeout))
	}

	// Log
	if cfg.Log.Level != "" && !cfg.Log.Level.IsValid() {
		errs = append(errs, fmt.Errorf("log.level %q is invalid; valid values: debug, info, warn, error", cfg.Log.Level))
	}

	return errors.Join(errs...)
}

// Environment variables consulted by [ApplyEnv], in order of precedence.
const (
	EnvAPIKey       = "API_KEY"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// LoadEnv loads variables from the given .env files (default ".env") into
// the process environment. Missing files are ignored; existing variables win.
func LoadEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// ApplyEnv fills advisor.api_key from the environment when the file left it
// empty. getenv is usually os.Getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if cfg.Advisor.APIKey != "" {
		return
	}

	keys := []string{EnvAPIKey, EnvGeminiAPIKey}
	if cfg.Advisor.Provider == ProviderOpenAI {
		keys = []string{EnvAPIKey, EnvOpenAIAPIKey}
	}
	for _, k := range keys {
		if v := getenv(k); v != "" {
			cfg.Advisor.APIKey = v
			return
		}
	}
}
