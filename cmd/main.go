package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/0xlemi/vocalrange/internal/config"
	"github.com/0xlemi/vocalrange/internal/observe"
	"github.com/0xlemi/vocalrange/internal/pitch"
)

// options holds the command-line flags. Flags override the config file only
// when set explicitly.
type options struct {
	configPath  string
	backend     string
	input       string
	logFile     string
	logLevel    string
	metricsAddr string
	correlator  string
	hysteresis  float64
	provider    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "vocalrange",
		Short: "Measure your vocal range and get coaching advice",
		Long: "vocalrange listens while you sing your lowest and highest comfortable notes,\n" +
			"then asks a language model for your voice type, songs that suit your range\n" +
			"and exercises to expand it.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML configuration file")
	pf.StringVar(&opts.logFile, "log-file", "", "write logs to this file")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&opts.correlator, "correlator", "", "autocorrelation method: direct or fft")
	pf.StringVar(&opts.provider, "provider", "", "advisory provider: gemini or openai")

	f := root.Flags()
	f.StringVar(&opts.backend, "backend", "", "audio backend: portaudio or malgo")
	f.StringVarP(&opts.input, "input", "i", "", "replay a WAV file instead of the microphone")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	f.Float64Var(&opts.hysteresis, "hysteresis", 0, "hold the previous note within this many cents of a semitone boundary")

	root.AddCommand(
		newAnalyzeCmd(opts),
		newAdviseCmd(opts),
		newNoteCmd(),
	)
	return root
}

// loadConfig builds the effective configuration from defaults, the config
// file, explicit flags and finally the environment for the API key.
func loadConfig(flags *pflag.FlagSet, opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, err
		}
	}
	applyFlags(cfg, flags, opts)

	config.LoadEnv()
	config.ApplyEnv(cfg, os.Getenv)

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config, flags *pflag.FlagSet, opts *options) {
	if flags.Changed("backend") {
		cfg.Audio.Backend = config.Backend(opts.backend)
	}
	if flags.Changed("log-file") {
		cfg.Log.File = opts.logFile
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = config.LogLevel(opts.logLevel)
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.ListenAddr = opts.metricsAddr
	}
	if flags.Changed("correlator") {
		cfg.Pitch.Correlator = config.Correlator(opts.correlator)
	}
	if flags.Changed("hysteresis") {
		cfg.Pitch.HysteresisCents = opts.hysteresis
	}
	if flags.Changed("provider") {
		cfg.Advisor.Provider = config.Provider(opts.provider)
	}
}

// setupLogging installs the configured logger as the slog default. Without a
// log file, output is discarded so it cannot corrupt the terminal UI.
func setupLogging(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	logger, closer, err := observe.NewLogger(string(cfg.Log.Level), cfg.Log.File)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	slog.SetDefault(logger)
	return logger, closer, nil
}

func newDetector(cfg *config.Config) pitch.Detector {
	return pitch.NewAutocorrelationDetector(
		pitch.Options{
			SilenceRMS:    cfg.Pitch.SilenceRMS,
			TrimThreshold: cfg.Pitch.TrimThreshold,
			Correlator:    pitch.CorrelatorByName(string(cfg.Pitch.Correlator)),
		},
		pitch.Mapper{MinHz: cfg.Pitch.MinHz, MaxHz: cfg.Pitch.MaxHz},
	)
}
