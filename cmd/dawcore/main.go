// ABOUTME: Entry point for the dawcore command line
// ABOUTME: Builds the cobra command tree and shared config, logging and cache setup
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/444radio/dawcore/internal/config"
	"github.com/444radio/dawcore/internal/project"
	"github.com/444radio/dawcore/internal/version"
	"github.com/444radio/dawcore/pkg/audio/decode"
	"github.com/444radio/dawcore/pkg/cache"
)

var (
	cfg = config.Load()

	sampleRate int
	cacheMB    int
	cachePath  string
	logFile    string
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   version.Product,
	Short: "Multitrack audio engine: playback, editing, analysis and export",
	Long: `dawcore plays, renders and analyzes multitrack projects described by a
JSON project file.

Examples:
  dawcore play song.json
  dawcore render song.json -o mix.wav
  dawcore analyze loop.wav
  dawcore align loop.wav --start 1.93 --bpm 120 --grid bar
  dawcore timecode 12.5 --bpm 90 --meter 3/4
  dawcore cache stats`,
	Version:           version.String(),
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&sampleRate, "sample-rate", cfg.SampleRate, "Engine sample rate in Hz")
	rootCmd.PersistentFlags().IntVar(&cacheMB, "cache-mb", cfg.CacheMB, "In-memory buffer cache size in MB")
	rootCmd.PersistentFlags().StringVar(&cachePath, "cache-path", cfg.CachePath, "Persistent buffer cache file (empty disables)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", cfg.LogFile, "Log file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Also stream logs to stderr")
}

// setup applies flag overrides and routes logging before any command runs
func setup(cmd *cobra.Command, args []string) error {
	cfg.SampleRate = sampleRate
	cfg.CacheMB = cacheMB
	cfg.CachePath = cachePath
	cfg.LogFile = logFile
	if err := cfg.Validate(); err != nil {
		return err
	}

	// play owns the terminal when its TUI runs, so stderr logging is opt-in
	var out io.Writer = io.Discard
	if verbose || (cmd == playCmd && noTUI) {
		out = os.Stderr
	}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("error opening log file: %w", err)
		}
		out = io.MultiWriter(out, f)
	}
	log.SetOutput(out)
	log.Printf("Starting %s %s", version.Product, version.String())
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openCache builds the buffer cache; a persistent store that cannot be
// opened leaves the cache memory-only
func openCache() *cache.Manager {
	var store cache.Store
	if cfg.CachePath != "" {
		bolt, err := cache.OpenBoltStore(cfg.CachePath)
		if err != nil {
			log.Printf("Buffer cache store unavailable, using memory only: %v", err)
		} else {
			store = bolt
		}
	}
	return cache.NewManager(cfg.CacheBytes(), store)
}

// loadProject reads a project and decodes its sources at the engine rate
func loadProject(ctx context.Context, path string) (*project.Project, project.Buffers, int, error) {
	p, err := project.Load(path)
	if err != nil {
		return nil, nil, 0, err
	}

	rate := cfg.SampleRate
	if p.SampleRate > 0 {
		rate = p.SampleRate
	}

	buffers := openCache()
	defer func() {
		if err := buffers.Close(); err != nil {
			log.Printf("Failed to close buffer cache: %v", err)
		}
	}()

	start := time.Now()
	decoded, err := project.LoadSources(ctx, p, buffers, decode.File, rate)
	if err != nil {
		return nil, nil, 0, err
	}
	log.Printf("Loaded %d sources for %q in %v", len(decoded), p.Name, time.Since(start).Round(time.Millisecond))
	return p, decoded, rate, nil
}
