// ABOUTME: Source loading and clip conversion for projects
// ABOUTME: Decodes sources through the buffer cache and builds scheduler and export clips
package project

import (
	"context"
	"fmt"
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/444radio/dawcore/pkg/audio"
	"github.com/444radio/dawcore/pkg/audio/resample"
	"github.com/444radio/dawcore/pkg/cache"
	"github.com/444radio/dawcore/pkg/edit"
	"github.com/444radio/dawcore/pkg/export"
	"github.com/444radio/dawcore/pkg/scheduler"
)

// Buffers maps clip sources to decoded audio at the project rate
type Buffers map[string]*audio.Buffer

// LoadSources decodes every source the project uses, in parallel, through
// the buffer cache, and converts each to sampleRate
func LoadSources(ctx context.Context, p *Project, buffers *cache.Manager, load cache.LoadFunc, sampleRate int) (Buffers, error) {
	sources := p.Sources()
	loaded := make([]*audio.Buffer, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, src := range sources {
		g.Go(func() error {
			path := p.SourcePath(src)
			buf, err := buffers.GetOrLoad(ctx, path, load)
			if err != nil {
				return fmt.Errorf("failed to load source %s: %w", src, err)
			}

			converted, err := resample.Convert(buf, sampleRate)
			if err != nil {
				return fmt.Errorf("failed to convert source %s: %w", src, err)
			}
			if converted != buf {
				log.Printf("Resampled %s: %dHz -> %dHz", src, buf.Format.SampleRate, sampleRate)
			}
			loaded[i] = converted
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(Buffers, len(sources))
	for i, src := range sources {
		out[src] = loaded[i]
	}
	return out, nil
}

// region returns the edits a clip applies to its source, or nil when the
// clip plays the whole source untouched
func (c Clip) region(sourceDuration float64) *edit.ClipRegion {
	if c.Region != nil {
		r := *c.Region
		r.ClipID = c.ID
		return &r
	}
	if c.Loop {
		return nil
	}

	end := sourceDuration
	if c.Duration > 0 {
		end = min(end, c.Offset+c.Duration)
	}
	if c.Offset == 0 && end >= sourceDuration {
		return nil
	}
	r := edit.NewRegion(c.ID, c.Offset, end)
	return &r
}

// ScheduledClips builds the scheduler's clip list. Region edits are baked
// into new buffers so the live mix matches the exported one.
func (p *Project) ScheduledClips(buffers Buffers) ([]scheduler.ScheduledClip, error) {
	var out []scheduler.ScheduledClip
	for _, t := range p.Tracks {
		for _, c := range t.Clips {
			buf, ok := buffers[c.Source]
			if !ok {
				log.Printf("Clip %s: source %s not loaded", c.ID, c.Source)
				continue
			}

			sc := scheduler.ScheduledClip{
				TrackID:   t.ID,
				ClipID:    c.ID,
				Buffer:    buf,
				StartTime: c.StartTime,
				Offset:    c.Offset,
				Duration:  c.Duration,
				Loop:      c.Loop,
			}

			if c.Region != nil {
				rendered, err := edit.Render(buf, *c.region(buf.Duration()))
				if err != nil {
					return nil, fmt.Errorf("failed to render clip %s: %w", c.ID, err)
				}
				sc.Buffer = rendered
				sc.Offset = 0
				sc.Duration = rendered.Duration()
			} else if sc.Duration == 0 {
				sc.Duration = buf.Duration() - c.Offset
			}

			out = append(out, sc)
		}
	}
	return out, nil
}

// ExportTracks builds the exporter's track list. Looping clips are
// exported as a single pass of their source.
func (p *Project) ExportTracks(buffers Buffers) []export.Track {
	tracks := make([]export.Track, 0, len(p.Tracks))
	for _, t := range p.Tracks {
		et := export.Track{
			ID:     t.ID,
			Volume: t.Volume,
			Pan:    t.Pan,
			Mute:   t.Mute,
			Solo:   t.Solo,
		}
		for _, c := range t.Clips {
			buf, ok := buffers[c.Source]
			if !ok {
				log.Printf("Clip %s: source %s not loaded", c.ID, c.Source)
				continue
			}
			et.Clips = append(et.Clips, export.Clip{
				ID:        c.ID,
				Buffer:    buf,
				StartTime: c.StartTime,
				Region:    c.region(buf.Duration()),
			})
		}
		tracks = append(tracks, et)
	}
	return tracks
}

// Duration returns the end of the latest clip as exported, one pass per loop
func (p *Project) Duration(buffers Buffers) float64 {
	return export.CalculateExportDuration(p.ExportTracks(buffers))
}
