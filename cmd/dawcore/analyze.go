// ABOUTME: analyze, align and timecode commands
// ABOUTME: Onset and tempo analysis of audio files plus tempo-map time conversion
package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/444radio/dawcore/pkg/audio/decode"
	"github.com/444radio/dawcore/pkg/onset"
	"github.com/444radio/dawcore/pkg/timing"
)

var (
	threshold   float64
	windowMs    float64
	clipStart   float64
	bpm         float64
	gridName    string
	beatsPerBar int
	meter       string
	fps         int
	quantize    string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <audio-file>",
	Short: "Detect onsets and estimate tempo",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var alignCmd = &cobra.Command{
	Use:   "align <audio-file>",
	Short: "Compute the start time that puts a clip's first onset on the grid",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlign,
}

var timecodeCmd = &cobra.Command{
	Use:   "timecode <seconds|bar:beat.sub>...",
	Short: "Convert between seconds, musical time and SMPTE",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTimecode,
}

func init() {
	for _, c := range []*cobra.Command{analyzeCmd, alignCmd} {
		c.Flags().Float64Var(&threshold, "threshold", 0, "RMS onset threshold (0 uses the default)")
		c.Flags().Float64Var(&windowMs, "window-ms", 0, "RMS window in milliseconds (0 uses the default)")
	}

	alignCmd.Flags().Float64Var(&clipStart, "start", 0, "Current clip start in seconds")
	alignCmd.Flags().StringVar(&gridName, "grid", "beat", "Grid to align to: bar, beat or subdivision")
	alignCmd.Flags().IntVar(&beatsPerBar, "beats-per-bar", 4, "Beats per bar for bar alignment")

	for _, c := range []*cobra.Command{alignCmd, timecodeCmd} {
		c.Flags().Float64Var(&bpm, "bpm", cfg.BPM, "Tempo in beats per minute")
	}
	timecodeCmd.Flags().StringVar(&meter, "meter", "4/4", "Time signature")
	timecodeCmd.Flags().IntVar(&fps, "fps", 30, "SMPTE frames per second")
	timecodeCmd.Flags().StringVar(&quantize, "quantize", "off", "Also show the time quantized to 1/4, 1/8 or 1/16")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(alignCmd)
	rootCmd.AddCommand(timecodeCmd)
}

func onsetOptions() onset.Options {
	return onset.Options{WindowMs: windowMs, Threshold: threshold}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	buf, err := decode.File(args[0])
	if err != nil {
		return err
	}
	opts := onsetOptions()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "File:       %s\n", args[0])
	fmt.Fprintf(out, "Format:     %dHz, %d channels, %.3fs\n", buf.Format.SampleRate, buf.Format.Channels, buf.Duration())
	fmt.Fprintf(out, "Peak:       %.3f\n", buf.Peak())
	fmt.Fprintf(out, "Threshold:  %.4f suggested\n", onset.OptimalThreshold(buf))
	fmt.Fprintf(out, "First onset %.3fs\n", onset.FirstOnset(buf, opts))

	onsets := onset.AllOnsets(buf, opts)
	fmt.Fprintf(out, "Onsets:     %d\n", len(onsets))
	for i, t := range onsets {
		if i == 16 {
			fmt.Fprintf(out, "  ... %d more\n", len(onsets)-i)
			break
		}
		fmt.Fprintf(out, "  %.3fs\n", t)
	}

	if est, ok := onset.Tempo(buf, opts); ok {
		fmt.Fprintf(out, "Tempo:      %.1f bpm (confidence %.2f)\n", est.BPM, est.Confidence)
	} else {
		fmt.Fprintf(out, "Tempo:      not enough onsets\n")
	}
	return nil
}

func runAlign(cmd *cobra.Command, args []string) error {
	grid, err := timing.ParseGrid(gridName)
	if err != nil {
		return err
	}
	// timing.New would silently swap a bad tempo for the default
	if err := onset.ValidateBPM(bpm); err != nil {
		return err
	}
	buf, err := decode.File(args[0])
	if err != nil {
		return err
	}

	var a onset.Alignment
	switch grid {
	case timing.GridBar:
		a, err = onset.AlignToBar(buf, clipStart, bpm, beatsPerBar, onsetOptions())
	case timing.GridBeat:
		a, err = onset.AlignToBeat(buf, clipStart, bpm, onsetOptions())
	default:
		a, err = onset.AutoAlignWithEngine(buf.Samples, buf.Format.SampleRate, buf.Format.Channels,
			clipStart, timing.New(cfg.SampleRate, bpm), grid, onsetOptions())
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Onset:      %.3fs into the clip\n", a.OnsetTime)
	fmt.Fprintf(out, "Start:      %.3fs -> %.3fs (shift %+.3fs)\n", clipStart, a.AlignedStartTime, a.ShiftAmount)
	fmt.Fprintf(out, "Confidence: %.2f\n", a.Confidence)
	return nil
}

func runTimecode(cmd *cobra.Command, args []string) error {
	engine := timing.New(cfg.SampleRate, bpm)
	num, den, err := parseMeter(meter)
	if err != nil {
		return err
	}
	if err := engine.SetTimeSignature(num, den, 0); err != nil {
		return err
	}
	q, err := timing.ParseQuantize(quantize)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, arg := range args {
		var seconds float64
		if strings.Contains(arg, ":") {
			m, err := timing.ParseMusical(arg)
			if err != nil {
				return err
			}
			seconds = engine.MusicalToSeconds(m)
		} else {
			seconds, err = strconv.ParseFloat(arg, 64)
			if err != nil {
				return fmt.Errorf("invalid time %q: %w", arg, err)
			}
		}

		fmt.Fprintf(out, "%-12s %10.3fs  %-10s  %s  sample %d", arg, seconds,
			engine.FormatMusical(seconds), engine.SecondsToSMPTE(seconds, fps), engine.SecondsToSamples(seconds))
		if q != timing.QuantizeOff {
			snapped := engine.Quantize(seconds, q)
			fmt.Fprintf(out, "  %s -> %.3fs (%s)", q, snapped, engine.FormatMusical(snapped))
		}
		fmt.Fprintln(out)
	}
	return nil
}

// parseMeter parses "3/4" style time signatures
func parseMeter(s string) (int, int, error) {
	n, d, ok := strings.Cut(s, "/")
	if !ok {
		return 0, 0, fmt.Errorf("invalid meter %q", s)
	}
	num, err := strconv.Atoi(n)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid meter %q: %w", s, err)
	}
	den, err := strconv.Atoi(d)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid meter %q: %w", s, err)
	}
	return num, den, nil
}
