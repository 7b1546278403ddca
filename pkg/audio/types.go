// ABOUTME: Audio type definitions
// ABOUTME: Defines audio formats, decoded float buffers and sample conversions
package audio

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidFormat is returned when a format has no sample rate or channels
var ErrInvalidFormat = errors.New("invalid audio format")

// Format describes a decoded audio stream
type Format struct {
	SampleRate int
	Channels   int
}

// Validate checks that the format can describe real audio
func (f Format) Validate() error {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return fmt.Errorf("%w: %dHz %dch", ErrInvalidFormat, f.SampleRate, f.Channels)
	}
	return nil
}

// Buffer represents decoded PCM audio as interleaved float32 samples in [-1, 1]
type Buffer struct {
	Samples []float32 // Interleaved by channel
	Format  Format
}

// NewBuffer allocates a silent buffer holding the given number of frames
func NewBuffer(format Format, frames int) *Buffer {
	if frames < 0 {
		frames = 0
	}
	return &Buffer{
		Samples: make([]float32, frames*format.Channels),
		Format:  format,
	}
}

// FromPlanar interleaves per-channel sample slices into a Buffer.
// All channels are truncated to the shortest one.
func FromPlanar(planar [][]float32, sampleRate int) *Buffer {
	channels := len(planar)
	if channels == 0 {
		return &Buffer{Format: Format{SampleRate: sampleRate, Channels: 1}}
	}

	frames := len(planar[0])
	for _, ch := range planar[1:] {
		if len(ch) < frames {
			frames = len(ch)
		}
	}

	buf := NewBuffer(Format{SampleRate: sampleRate, Channels: channels}, frames)
	for ch, data := range planar {
		for i := 0; i < frames; i++ {
			buf.Samples[i*channels+ch] = data[i]
		}
	}
	return buf
}

// Frames returns the number of sample frames (samples per channel)
func (b *Buffer) Frames() int {
	if b == nil || b.Format.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

// Duration returns the buffer length in seconds
func (b *Buffer) Duration() float64 {
	if b == nil || b.Format.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.Format.SampleRate)
}

// SizeBytes returns the memory footprint of the sample data
func (b *Buffer) SizeBytes() int64 {
	if b == nil {
		return 0
	}
	return int64(len(b.Samples)) * 4
}

// At returns one sample; out-of-range reads are silent
func (b *Buffer) At(frame, ch int) float32 {
	if frame < 0 || ch < 0 || ch >= b.Format.Channels {
		return 0
	}
	idx := frame*b.Format.Channels + ch
	if idx >= len(b.Samples) {
		return 0
	}
	return b.Samples[idx]
}

// Channel copies out a single channel
func (b *Buffer) Channel(ch int) []float32 {
	frames := b.Frames()
	out := make([]float32, frames)
	if ch < 0 || ch >= b.Format.Channels {
		return out
	}
	for i := 0; i < frames; i++ {
		out[i] = b.Samples[i*b.Format.Channels+ch]
	}
	return out
}

// Planar splits the buffer into per-channel slices
func (b *Buffer) Planar() [][]float32 {
	planar := make([][]float32, b.Format.Channels)
	for ch := range planar {
		planar[ch] = b.Channel(ch)
	}
	return planar
}

// Clone returns a deep copy
func (b *Buffer) Clone() *Buffer {
	samples := make([]float32, len(b.Samples))
	copy(samples, b.Samples)
	return &Buffer{Samples: samples, Format: b.Format}
}

// Peak returns the largest absolute sample value
func (b *Buffer) Peak() float32 {
	var peak float32
	for _, s := range b.Samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}

// FloatToInt16 converts a float sample to 16-bit PCM, clamping to [-1, 1].
// Negative values scale by 0x8000 and positive by 0x7FFF so both ends are reachable.
func FloatToInt16(sample float32) int16 {
	s := float64(sample)
	if math.IsNaN(s) {
		return 0
	}
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	if s < 0 {
		return int16(s * 0x8000)
	}
	return int16(s * 0x7FFF)
}

// Int16ToFloat converts a 16-bit PCM sample to float in [-1, 1)
func Int16ToFloat(sample int16) float32 {
	return float32(sample) / 0x8000
}

// IntToFloat converts a signed integer sample of the given bit depth to float
func IntToFloat(sample int32, bitDepth int) float32 {
	if bitDepth <= 0 || bitDepth > 32 {
		return 0
	}
	scale := float64(int64(1) << uint(bitDepth-1))
	return float32(float64(sample) / scale)
}
