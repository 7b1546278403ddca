// ABOUTME: Convenience wrappers taking decoded audio buffers
// ABOUTME: Pass buffer samples, rate and channel count to the detectors
package onset

import (
	"github.com/444radio/dawcore/pkg/audio"
)

// FirstOnset is DetectFirstOnset for a buffer
func FirstOnset(buf *audio.Buffer, opts Options) float64 {
	return DetectFirstOnset(buf.Samples, buf.Format.SampleRate, buf.Format.Channels, opts)
}

// AllOnsets is DetectAllOnsets for a buffer
func AllOnsets(buf *audio.Buffer, opts Options) []float64 {
	return DetectAllOnsets(buf.Samples, buf.Format.SampleRate, buf.Format.Channels, opts)
}

// AlignToBeat is AutoAlignClipToBeat for a buffer
func AlignToBeat(buf *audio.Buffer, currentStart, bpm float64, opts Options) (Alignment, error) {
	return AutoAlignClipToBeat(buf.Samples, buf.Format.SampleRate, buf.Format.Channels, currentStart, bpm, opts)
}

// AlignToBar is AutoAlignClipToBar for a buffer
func AlignToBar(buf *audio.Buffer, currentStart, bpm float64, beatsPerBar int, opts Options) (Alignment, error) {
	return AutoAlignClipToBar(buf.Samples, buf.Format.SampleRate, buf.Format.Channels, currentStart, bpm, beatsPerBar, opts)
}

// Tempo is AnalyzeTempo for a buffer
func Tempo(buf *audio.Buffer, opts Options) (TempoEstimate, bool) {
	return AnalyzeTempo(buf.Samples, buf.Format.SampleRate, buf.Format.Channels, opts)
}

// OptimalThreshold is CalculateOptimalThreshold for a buffer
func OptimalThreshold(buf *audio.Buffer) float64 {
	return CalculateOptimalThreshold(buf.Samples, buf.Format.Channels)
}
