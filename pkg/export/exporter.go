// ABOUTME: Project exporter driving the mix worker
// ABOUTME: Prepares clips, renders the mix and writes timestamped WAV files
package export

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/444radio/dawcore/pkg/audio"
	"github.com/444radio/dawcore/pkg/audio/encode"
	"github.com/444radio/dawcore/pkg/audio/resample"
	"github.com/444radio/dawcore/pkg/edit"
)

// ErrEmptyRender is returned when the requested range holds no audio
var ErrEmptyRender = errors.New("render produced no audio")

// Track is one track of a project to export
type Track struct {
	ID     string
	Volume float64
	Pan    float64
	Mute   bool
	Solo   bool
	Clips  []Clip
}

// Clip places a buffer on a track; times are project seconds
type Clip struct {
	ID        string
	Buffer    *audio.Buffer
	StartTime float64
	Region    *edit.ClipRegion // optional trim and edits baked in before mixing
}

// Duration is how long the clip sounds once its region is applied
func (c Clip) Duration() float64 {
	if c.Buffer == nil {
		return 0
	}
	if c.Region == nil {
		return c.Buffer.Duration()
	}

	end := math.Min(c.Region.End, c.Buffer.Duration())
	speed := c.Region.TimeStretch * edit.PitchRate(c.Region.PitchShift)
	if end <= c.Region.Start || speed <= 0 {
		return 0
	}
	return (end - c.Region.Start) / speed
}

// Options selects the range and rate of an export. Zero values render
// the whole project at the exporter's rate.
type Options struct {
	SampleRate int
	StartTime  float64
	EndTime    float64 // 0 renders to the end of the last clip
}

// Exporter renders projects offline, one worker per export
type Exporter struct {
	sampleRate int
	now        func() time.Time
}

// NewExporter creates an exporter with a default project sample rate
func NewExporter(sampleRate int) *Exporter {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Exporter{
		sampleRate: sampleRate,
		now:        time.Now,
	}
}

// preparedClip is a clip ready to hand to the worker
type preparedClip struct {
	track       int
	id          string
	src         Clip
	buf         *audio.Buffer
	startSample int64
}

// Render mixes tracks into an interleaved stereo buffer
func (e *Exporter) Render(ctx context.Context, tracks []Track, opts Options) (*audio.Buffer, error) {
	rate := opts.SampleRate
	if rate <= 0 {
		rate = e.sampleRate
	}
	jobID := uuid.NewString()
	started := time.Now()

	clips, err := prepareClips(ctx, tracks, rate)
	if err != nil {
		return nil, err
	}

	w := NewWorker()
	defer w.Close()

	settings := make([]TrackSettings, len(tracks))
	for i := range settings {
		settings[i] = DefaultTrackSettings()
	}
	if _, err := w.Call(ctx, Init{SampleRate: rate, Tracks: settings}); err != nil {
		return nil, fmt.Errorf("failed to init mix worker: %w", err)
	}

	for i, t := range tracks {
		update := TrackUpdate{Gain: &t.Volume, Pan: &t.Pan, Muted: &t.Mute, Solo: &t.Solo}
		if _, err := w.Call(ctx, UpdateTrack{TrackIndex: i, Update: update}); err != nil {
			return nil, fmt.Errorf("failed to update track %d: %w", i, err)
		}
	}

	for _, c := range clips {
		req := LoadClip{
			TrackIndex:  c.track,
			ClipID:      c.id,
			Buffer:      NewOwnedBuffer(c.buf.Samples),
			Channels:    c.buf.Format.Channels,
			StartSample: c.startSample,
		}
		if _, err := w.Call(ctx, req); err != nil {
			return nil, fmt.Errorf("failed to load clip %s: %w", c.id, err)
		}
	}

	render := RenderMix{StartSample: int64(math.Floor(opts.StartTime * float64(rate)))}
	if opts.EndTime > 0 {
		end := int64(math.Floor(opts.EndTime * float64(rate)))
		render.EndSample = &end
	}

	reply, err := w.Call(ctx, render)
	if err != nil {
		return nil, fmt.Errorf("failed to render mix: %w", err)
	}
	done, ok := reply.(RenderDone)
	if !ok {
		return nil, fmt.Errorf("failed to render mix: unexpected reply %T", reply)
	}

	samples, err := done.Buffer.Take()
	if err != nil {
		return nil, fmt.Errorf("failed to take mix: %w", err)
	}
	if done.Length == 0 {
		return nil, ErrEmptyRender
	}

	log.Printf("Export %s: mixed %d clips on %d tracks, %.2fs in %v",
		jobID, len(clips), len(tracks), float64(done.Length)/float64(done.SampleRate), time.Since(started))

	return &audio.Buffer{
		Samples: samples,
		Format:  audio.Format{SampleRate: done.SampleRate, Channels: 2},
	}, nil
}

// prepareClips bakes regions and converts every clip to rate, in parallel
func prepareClips(ctx context.Context, tracks []Track, rate int) ([]preparedClip, error) {
	var jobs []preparedClip
	for i, t := range tracks {
		for _, c := range t.Clips {
			if c.Buffer == nil {
				log.Printf("Skipping clip %s on track %d: no buffer", c.ID, i)
				continue
			}
			id := c.ID
			if id == "" {
				id = uuid.NewString()
			}
			jobs = append(jobs, preparedClip{
				track:       i,
				id:          id,
				src:         c,
				startSample: int64(math.Floor(c.StartTime * float64(rate))),
			})
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i := range jobs {
		job := &jobs[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			buf, err := prepareClip(job.src, rate)
			if err != nil {
				return fmt.Errorf("failed to prepare clip %s: %w", job.id, err)
			}
			job.buf = buf
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return jobs, nil
}

// prepareClip returns samples the worker may own outright
func prepareClip(c Clip, rate int) (*audio.Buffer, error) {
	buf := c.Buffer
	if c.Region != nil {
		rendered, err := edit.Render(buf, *c.Region)
		if err != nil {
			return nil, err
		}
		buf = rendered
	}

	converted, err := resample.Convert(buf, rate)
	if err != nil {
		return nil, err
	}
	if converted == c.Buffer {
		converted = c.Buffer.Clone()
	}
	return converted, nil
}

// ExportProjectToWAV renders tracks and encodes them as PCM16 stereo WAV
func (e *Exporter) ExportProjectToWAV(ctx context.Context, tracks []Track, opts Options) ([]byte, error) {
	mix, err := e.Render(ctx, tracks, opts)
	if err != nil {
		return nil, err
	}

	data, err := encode.Float32ToWAV(mix.Samples, mix.Format.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mix: %w", err)
	}
	return data, nil
}

// ExportAndDownload writes the export to dir as <projectName>-<unix millis>.wav
// and returns the file path
func (e *Exporter) ExportAndDownload(ctx context.Context, tracks []Track, projectName, dir string, opts Options) (string, error) {
	if projectName == "" {
		projectName = "mix"
	}
	log.Printf("Exporting project: %s", projectName)

	data, err := e.ExportProjectToWAV(ctx, tracks, opts)
	if err != nil {
		return "", err
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create export dir: %w", err)
		}
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-%d.wav", projectName, e.now().UnixMilli()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}

	log.Printf("Export complete: %s (%s)", path, FormatFileSize(int64(len(data))))
	return path, nil
}

// CalculateExportDuration returns the end of the latest clip in seconds.
// Clips without a buffer are not exported and do not count.
func CalculateExportDuration(tracks []Track) float64 {
	var longest float64
	for _, t := range tracks {
		for _, c := range t.Clips {
			if c.Buffer == nil {
				continue
			}
			longest = math.Max(longest, c.StartTime+c.Duration())
		}
	}
	return longest
}

// EstimateExportSize returns the WAV file size in bytes for a PCM export
func EstimateExportSize(durationSeconds float64, sampleRate, channels, bitsPerSample int) int64 {
	bytesPerSecond := float64(sampleRate * channels * bitsPerSample / 8)
	return int64(durationSeconds*bytesPerSecond) + encode.WAVHeaderSize
}

// FormatFileSize renders a byte count for display
func FormatFileSize(bytes int64) string {
	return humanize.IBytes(uint64(max(bytes, 0)))
}
