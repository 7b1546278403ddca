// ABOUTME: play command
// ABOUTME: Streams a project through the audio graph with a transport TUI
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/444radio/dawcore/internal/ui"
	"github.com/444radio/dawcore/pkg/audio/output"
	"github.com/444radio/dawcore/pkg/graph"
	"github.com/444radio/dawcore/pkg/scheduler"
)

var (
	playFrom  float64
	noTUI     bool
	bufferMs  int
	bitDepth  int
	lookAhead time.Duration
)

var playCmd = &cobra.Command{
	Use:   "play <project.json>",
	Short: "Play a project on the default audio device",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlay,
}

func init() {
	playCmd.Flags().Float64Var(&playFrom, "from", 0, "Project time to start from in seconds")
	playCmd.Flags().BoolVar(&noTUI, "no-tui", false, "Disable TUI, stream logs to stderr instead")
	playCmd.Flags().IntVar(&bufferMs, "buffer-ms", 0, "Device buffer in milliseconds (0 lets the driver choose)")
	playCmd.Flags().IntVar(&bitDepth, "bit-depth", 32, "Device sample format: 16 or 32 (float)")
	playCmd.Flags().DurationVar(&lookAhead, "lookahead", cfg.LookAhead, "Scheduler look-ahead window")

	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg.LookAhead = lookAhead
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	p, buffers, rate, err := loadProject(ctx, args[0])
	if err != nil {
		return err
	}
	engine, err := p.Engine(rate)
	if err != nil {
		return err
	}
	clips, err := p.ScheduledClips(buffers)
	if err != nil {
		return err
	}

	gctx := graph.NewContext(rate)
	sched := scheduler.New(gctx, scheduler.Config{LookAhead: cfg.LookAhead, Interval: cfg.Interval})
	defer sched.Stop()

	for _, t := range p.Tracks {
		sched.AddTrack(t.ID, t.Volume, t.Pan)
	}
	for _, t := range p.Tracks {
		if t.Mute {
			if err := sched.SetTrackMute(t.ID, true); err != nil {
				return err
			}
		}
		if t.Solo {
			if err := sched.SetTrackSolo(t.ID, true, nil); err != nil {
				return err
			}
		}
	}

	out := output.NewOto(gctx, output.Config{
		SampleRate: rate,
		BufferSize: time.Duration(bufferMs) * time.Millisecond,
		BitDepth:   bitDepth,
	})
	if err := out.Open(); err != nil {
		return fmt.Errorf("failed to open audio output: %w", err)
	}
	defer func() {
		if err := out.Close(); err != nil {
			log.Printf("Failed to close audio output: %v", err)
		}
	}()

	end := scheduler.LastClipEnd(clips)
	sched.Start(clips, playFrom, nil)
	log.Printf("Playing %q: %d clips, %.2fs, output latency %v", p.Name, len(clips), end, out.Latency())
	defer func() {
		stats := out.Clock().Stats()
		log.Printf("Output clock: quality %v, drift %.6f, %d samples, %d resets",
			stats.Quality, stats.Drift, stats.SampleCount, stats.Resets)
	}()

	transport := heardTransport{Scheduler: sched, out: out}
	finished := make(chan struct{})
	go waitForEnd(ctx, transport.ProjectTime, end, endPollInterval, finished)

	if noTUI {
		select {
		case <-ctx.Done():
			log.Printf("Interrupted")
		case <-finished:
			log.Printf("Playback finished")
		}
		return nil
	}

	tui := ui.New(fmt.Sprintf("dawcore: %s", p.Name), transport, out, engine)
	go func() {
		select {
		case <-ctx.Done():
		case <-finished:
		case <-tui.QuitChan():
			return
		}
		tui.Stop()
	}()
	return tui.Run()
}

const endPollInterval = 100 * time.Millisecond

// heardTransport reports the playhead the listener hears rather than the
// one the graph has rendered ahead to
type heardTransport struct {
	*scheduler.Scheduler
	out *output.Oto
}

func (h heardTransport) ProjectTime() (float64, bool) {
	return h.ProjectTimeAt(h.out.PlayedTime())
}

// waitForEnd closes finished once position passes end or stops reporting
func waitForEnd(ctx context.Context, position func() (float64, bool), end float64, interval time.Duration, finished chan<- struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pt, ok := position(); !ok || pt >= end {
				close(finished)
				return
			}
		}
	}
}
