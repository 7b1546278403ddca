// ABOUTME: Offline rendering of a clip region into a new buffer
// ABOUTME: Applies trim, reverse, rate changes, gain and fades
package edit

import (
	"fmt"
	"math"

	"github.com/444radio/dawcore/pkg/audio"
	"github.com/444radio/dawcore/pkg/audio/resample"
)

// Render bakes region into a new buffer cut from buf. The region end is
// clamped to the buffer; buf itself is never modified.
func Render(buf *audio.Buffer, region ClipRegion) (*audio.Buffer, error) {
	if err := buf.Format.Validate(); err != nil {
		return nil, err
	}
	if err := region.Validate(); err != nil {
		return nil, err
	}

	rate := float64(buf.Format.SampleRate)
	channels := buf.Format.Channels
	first := int(math.Floor(region.Start * rate))
	last := min(buf.Frames(), int(math.Floor(region.End*rate)))
	if first >= last {
		return nil, fmt.Errorf("%w: %v-%v outside %.3fs buffer",
			ErrInvalidRegion, region.Start, region.End, buf.Duration())
	}

	out := &audio.Buffer{
		Samples: make([]float32, (last-first)*channels),
		Format:  buf.Format,
	}
	copy(out.Samples, buf.Samples[first*channels:last*channels])

	if region.Reversed {
		out = ReverseBuffer(out)
	}

	if speed := region.TimeStretch * PitchRate(region.PitchShift); speed != 1 {
		samples, err := resample.Stretch(out.Samples, channels, speed)
		if err != nil {
			return nil, fmt.Errorf("failed to apply rate %v: %w", speed, err)
		}
		out.Samples = samples
	}

	applyGain(out, region)
	return out, nil
}

func applyGain(buf *audio.Buffer, region ClipRegion) {
	frames := buf.Frames()
	channels := buf.Format.Channels
	rate := float64(buf.Format.SampleRate)
	length := float64(frames) / rate

	for i := 0; i < frames; i++ {
		t := float64(i) / rate
		g := region.Gain

		if f := region.FadeIn; f != nil && t < f.Duration {
			g *= FadeGain(*f, t/f.Duration, false)
		}
		if f := region.FadeOut; f != nil {
			if start := length - f.Duration; t >= start {
				g *= FadeGain(*f, (t-start)/f.Duration, true)
			}
		}

		if g == 1 {
			continue
		}
		for ch := 0; ch < channels; ch++ {
			buf.Samples[i*channels+ch] *= float32(g)
		}
	}
}
