package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xlemi/vocalrange/internal/audio"
	"github.com/0xlemi/vocalrange/internal/pitch"
)

func newAnalyzeCmd(opts *options) *cobra.Command {
	var hop int
	var all bool

	cmd := &cobra.Command{
		Use:   "analyze FILE.wav",
		Short: "Detect the notes sung in a WAV recording",
		Long: "analyze runs the pitch detector over a recording frame by frame and prints\n" +
			"each note change together with the lowest and highest notes found.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags(), opts)
			if err != nil {
				return err
			}
			logger, closer, err := setupLogging(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			buf, err := audio.LoadWAV(args[0])
			if err != nil {
				return err
			}
			logger.Debug("loaded recording", "path", args[0], "samples", len(buf.Samples), "sample_rate", buf.SampleRate)

			size := cfg.Audio.BufferSize
			if hop <= 0 {
				hop = size / 2
			}
			result := analyzeRecording(newDetector(cfg), buf, size, hop)
			return result.print(cmd.OutOrStdout(), all)
		},
	}

	cmd.Flags().IntVar(&hop, "hop", 0, "samples between frame starts (default half the buffer size)")
	cmd.Flags().BoolVar(&all, "all", false, "print every detected frame, not only note changes")
	return cmd
}

// detection is a note found in one frame of a recording.
type detection struct {
	At   time.Duration
	Note *pitch.Note
}

type analysis struct {
	Frames     int
	Detections []detection
	Low, High  *pitch.Note
}

// analyzeRecording detects the pitch of every full frame of buf.
func analyzeRecording(detector pitch.Detector, buf *audio.AudioBuffer, size, hop int) analysis {
	var a analysis
	for i, frame := range audio.Frames(buf.Samples, size, hop) {
		a.Frames++
		note, err := detector.DetectPitch(&audio.AudioBuffer{Samples: frame, SampleRate: buf.SampleRate})
		if err != nil {
			continue
		}

		at := time.Duration(float64(i*hop) / float64(buf.SampleRate) * float64(time.Second))
		a.Detections = append(a.Detections, detection{At: at, Note: note})

		if a.Low == nil || note.Frequency < a.Low.Frequency {
			a.Low = note
		}
		if a.High == nil || note.Frequency > a.High.Frequency {
			a.High = note
		}
	}
	return a
}

var errNoPitch = errors.New("no pitch detected")

func (a analysis) print(w io.Writer, all bool) error {
	last := ""
	for _, d := range a.Detections {
		name := d.Note.FullName()
		if !all && name == last {
			continue
		}
		last = name
		fmt.Fprintf(w, "%8.2fs  %-4s %8.1f Hz  %+6.1f cents\n", d.At.Seconds(), name, d.Note.Frequency, d.Note.Cents)
	}

	fmt.Fprintf(w, "\n%d of %d frames had a pitch\n", len(a.Detections), a.Frames)
	if a.Low == nil {
		return errNoPitch
	}
	fmt.Fprintf(w, "Lowest:  %s (%.1f Hz)\n", a.Low.FullName(), a.Low.Frequency)
	fmt.Fprintf(w, "Highest: %s (%.1f Hz)\n", a.High.FullName(), a.High.Frequency)
	return nil
}
