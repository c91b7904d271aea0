package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/0xlemi/vocalrange/internal/advisor"
	"github.com/0xlemi/vocalrange/internal/audio"
	"github.com/0xlemi/vocalrange/internal/config"
	"github.com/0xlemi/vocalrange/internal/observe"
	"github.com/0xlemi/vocalrange/internal/session"
	"github.com/0xlemi/vocalrange/internal/ui"
)

func runTUI(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd.Flags(), opts)
	if err != nil {
		return err
	}

	logger, closer, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	if cfg.Metrics.ListenAddr != "" {
		stop, err := serveMetrics(cfg.Metrics.ListenAddr, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	adv, err := advisor.New(cmd.Context(), cfg.Advisor, advisor.WithLogger(logger))
	if err != nil {
		return err
	}

	open := microphoneOpener(cfg.Audio, logger)
	if opts.input != "" {
		if open, err = replayOpener(opts.input, cfg.Audio.BufferSize); err != nil {
			return err
		}
	}

	sess := session.New(newDetector(cfg),
		session.WithLogger(logger),
		session.WithHysteresis(cfg.Pitch.HysteresisCents),
	)
	model := ui.NewModel(ui.Config{
		Session: sess,
		Advisor: adv,
		Open:    open,
		Logger:  logger,
	})

	logger.Info("starting vocalrange",
		"backend", cfg.Audio.Backend,
		"provider", cfg.Advisor.Provider,
		"input", opts.input,
	)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

// amplifiedCapturer is a microphone whose gain can be adjusted.
type amplifiedCapturer interface {
	audio.Capturer
	SetAmplification(factor float32)
}

// microphoneOpener opens a fresh device for every session so a denied or
// busy microphone can be retried.
func microphoneOpener(cfg config.AudioConfig, logger *slog.Logger) ui.OpenFunc {
	return func() (audio.Capturer, error) {
		var c amplifiedCapturer
		switch cfg.Backend {
		case config.BackendMalgo:
			c = audio.NewMalgoCapturer(cfg.BufferSize, cfg.SampleRate, cfg.Channels, logger)
		default:
			c = audio.NewPortAudioCapturer(cfg.BufferSize, cfg.SampleRate, cfg.Channels)
		}
		c.SetAmplification(float32(cfg.Amplification))

		if err := c.Start(); err != nil {
			return nil, err
		}
		logger.Info("audio capture started",
			"backend", cfg.Backend,
			"sample_rate", cfg.SampleRate,
			"buffer_size", cfg.BufferSize,
		)
		return c, nil
	}
}

// replayOpener loops the frames of a WAV file in place of a microphone.
func replayOpener(path string, frameSize int) (ui.OpenFunc, error) {
	buf, err := audio.LoadWAV(path)
	if err != nil {
		return nil, err
	}
	frames := audio.Frames(buf.Samples, frameSize, frameSize)
	if len(frames) == 0 {
		return nil, fmt.Errorf("%s: shorter than one %d-sample frame", path, frameSize)
	}

	return func() (audio.Capturer, error) {
		c := audio.NewReplayCapturer(frames, buf.SampleRate, true)
		if err := c.Start(); err != nil {
			return nil, err
		}
		return c, nil
	}, nil
}

// serveMetrics installs the Prometheus exporter and serves /metrics until
// stop is called.
func serveMetrics(addr string, logger *slog.Logger) (stop func(), err error) {
	shutdownProvider, err := observe.InitProvider()
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	srv, err := observe.ListenMetrics(addr)
	if err != nil {
		_ = shutdownProvider(context.Background())
		return nil, fmt.Errorf("listen metrics: %w", err)
	}

	go func() {
		if err := srv.Serve(); err != nil {
			logger.Error("metrics server error", "err", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := errors.Join(srv.Shutdown(ctx), shutdownProvider(ctx)); err != nil {
			logger.Warn("metrics shutdown", "err", err)
		}
	}, nil
}
