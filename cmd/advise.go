package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/0xlemi/vocalrange/internal/advisor"
	"github.com/0xlemi/vocalrange/internal/pitch"
)

func newAdviseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "advise LOW HIGH",
		Short: "Get voice-type advice for a known range, e.g. advise E2 A4",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			low, high, err := orderRange(args[0], args[1])
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd.Flags(), opts)
			if err != nil {
				return err
			}
			logger, closer, err := setupLogging(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			adv, err := advisor.New(cmd.Context(), cfg.Advisor, advisor.WithLogger(logger))
			if err != nil {
				return err
			}
			report, err := adv.Analyze(cmd.Context(), low, high)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), low, high, report)
			return nil
		},
	}
}

// orderRange validates two note names and returns them lowest first in
// canonical spelling.
func orderRange(a, b string) (low, high string, err error) {
	nameA, octA, err := pitch.ParseNote(a)
	if err != nil {
		return "", "", err
	}
	nameB, octB, err := pitch.ParseNote(b)
	if err != nil {
		return "", "", err
	}
	hzA, err := pitch.FrequencyOf(nameA, octA)
	if err != nil {
		return "", "", err
	}
	hzB, err := pitch.FrequencyOf(nameB, octB)
	if err != nil {
		return "", "", err
	}

	low = nameA + strconv.Itoa(octA)
	high = nameB + strconv.Itoa(octB)
	if hzB < hzA {
		low, high = high, low
	}
	return low, high, nil
}

func printReport(w io.Writer, low, high string, r *advisor.Report) {
	fmt.Fprintf(w, "Range: %s to %s\n", low, high)
	fmt.Fprintf(w, "Voice type: %s\n", r.VoiceType)
	if r.Description != "" {
		fmt.Fprintf(w, "\n%s\n", r.Description)
	}

	if len(r.Songs) > 0 {
		fmt.Fprintln(w, "\nSongs for your range:")
		for i, s := range r.Songs {
			fmt.Fprintf(w, "  %d. %s", i+1, s.Title)
			if s.Artist != "" {
				fmt.Fprintf(w, " (%s)", s.Artist)
			}
			fmt.Fprintln(w)
			if s.Reason != "" {
				fmt.Fprintf(w, "     %s\n", s.Reason)
			}
		}
	}

	if len(r.Exercises) > 0 {
		fmt.Fprintln(w, "\nExercises:")
		for _, e := range r.Exercises {
			fmt.Fprintf(w, "  - %s\n", e.Name)
			if e.Instructions != "" {
				fmt.Fprintf(w, "     %s\n", e.Instructions)
			}
		}
	}
}

func newNoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "note HZ",
		Short: "Name the note closest to a frequency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hz, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid frequency %q: %w", args[0], err)
			}
			n, err := pitch.MapFrequency(hz)
			if err != nil {
				return fmt.Errorf("%.2f Hz: %w", hz, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %+.1f cents\n", n.FullName(), n.Cents)
			return nil
		},
	}
}
