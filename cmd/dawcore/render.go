// ABOUTME: render command
// ABOUTME: Mixes a project offline and writes a 16-bit stereo WAV file
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/444radio/dawcore/pkg/export"
)

var (
	outputFile  string
	exportDir   string
	renderStart float64
	renderEnd   float64
)

var renderCmd = &cobra.Command{
	Use:   "render <project.json>",
	Short: "Render a project to a WAV file",
	Long: `Mixes every track of the project offline and writes a 16-bit stereo WAV.

Without --output the file is named <project>-<timestamp>.wav inside --dir.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .wav file path")
	renderCmd.Flags().StringVar(&exportDir, "dir", cfg.ExportDir, "Directory for timestamped exports")
	renderCmd.Flags().Float64Var(&renderStart, "start", 0, "Render start in seconds")
	renderCmd.Flags().Float64Var(&renderEnd, "end", 0, "Render end in seconds (0 renders to the last clip)")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	p, buffers, rate, err := loadProject(ctx, args[0])
	if err != nil {
		return err
	}

	tracks := p.ExportTracks(buffers)
	opts := export.Options{SampleRate: rate, StartTime: renderStart, EndTime: renderEnd}

	path := outputFile
	if path == "" {
		path, err = export.NewExporter(rate).ExportAndDownload(ctx, tracks, p.Name, exportDir, opts)
		if err != nil {
			return err
		}
	} else {
		wav, err := export.NewExporter(rate).ExportProjectToWAV(ctx, tracks, opts)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, wav, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Rendered %q (%.2fs) to %s [%s]\n",
		p.Name, p.Duration(buffers), path, export.FormatFileSize(info.Size()))
	return nil
}
