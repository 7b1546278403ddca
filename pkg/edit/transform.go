// ABOUTME: Buffer transforms that produce new buffers
// ABOUTME: Reverse, linear time stretch and playback-rate pitch shift
package edit

import (
	"fmt"
	"math"

	"github.com/444radio/dawcore/pkg/audio"
	"github.com/444radio/dawcore/pkg/audio/resample"
	"github.com/444radio/dawcore/pkg/graph"
)

// SourceFactory creates buffer sources; *graph.Context satisfies it
type SourceFactory interface {
	NewSource(buf *audio.Buffer) *graph.Source
}

// ReverseBuffer returns a copy of buf with frames in reverse order
func ReverseBuffer(buf *audio.Buffer) *audio.Buffer {
	frames := buf.Frames()
	channels := buf.Format.Channels
	out := audio.NewBuffer(buf.Format, frames)

	for i := 0; i < frames; i++ {
		src := (frames - 1 - i) * channels
		copy(out.Samples[i*channels:(i+1)*channels], buf.Samples[src:src+channels])
	}
	return out
}

// TimeStretch returns a copy of buf resampled to frames/rate frames.
// Pitch moves with the rate.
func TimeStretch(buf *audio.Buffer, rate float64) (*audio.Buffer, error) {
	samples, err := resample.Stretch(buf.Samples, buf.Format.Channels, rate)
	if err != nil {
		return nil, fmt.Errorf("failed to stretch: %w", err)
	}
	return &audio.Buffer{Samples: samples, Format: buf.Format}, nil
}

// PitchRate converts semitones to a playback rate; 12 semitones doubles it
func PitchRate(semitones float64) float64 {
	return math.Pow(2, semitones/12)
}

// NewPitchShiftedSource creates a source for buf playing semitones higher.
// Duration shrinks by the same factor.
func NewPitchShiftedSource(f SourceFactory, buf *audio.Buffer, semitones float64) (*graph.Source, error) {
	src := f.NewSource(buf)
	if err := src.SetPlaybackRate(PitchRate(semitones)); err != nil {
		return nil, fmt.Errorf("failed to pitch shift by %v semitones: %w", semitones, err)
	}
	return src, nil
}
