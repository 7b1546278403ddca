// ABOUTME: Simple linear resampler for converting audio sample rates and stretching
// ABOUTME: Used for project sample-rate conversion and clip time-stretch via linear interpolation
package resample

import (
	"errors"
	"fmt"
	"math"

	"github.com/444radio/dawcore/pkg/audio"
)

// ErrInvalidRate is returned for non-positive or non-finite rates
var ErrInvalidRate = errors.New("invalid resample rate")

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		position:   0.0,
	}
}

// Resample converts input samples to output sample rate using linear interpolation
// input: interleaved samples at inputRate
// output: interleaved samples at outputRate
func (r *Resampler) Resample(input []float32, output []float32) int {
	if len(input) == 0 {
		return 0
	}

	inputFrames := len(input) / r.channels
	outputFrames := len(output) / r.channels

	outIdx := 0

	for outIdx < outputFrames {
		inputPos := r.position
		inputIdx := int(inputPos)

		if inputIdx >= inputFrames {
			break
		}

		frac := inputPos - float64(inputIdx)
		nextIdx := inputIdx + 1
		if nextIdx >= inputFrames {
			nextIdx = inputFrames - 1
		}

		for ch := 0; ch < r.channels; ch++ {
			sample1 := input[inputIdx*r.channels+ch]
			sample2 := input[nextIdx*r.channels+ch]
			output[outIdx*r.channels+ch] = float32(float64(sample1)*(1.0-frac) + float64(sample2)*frac)
		}

		outIdx++
		r.position += r.ratio
	}

	// Keep the fractional position relative to the next chunk
	r.position -= float64(inputFrames)
	if r.position < 0 {
		r.position = 0
	}

	return outIdx * r.channels
}

// OutputSamplesNeeded calculates how many output samples will be produced from input samples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(math.Ceil(float64(inputFrames) / r.ratio))
	return outputFrames * r.channels
}

// Convert resamples a whole buffer to outputRate, returning a new buffer.
// A buffer already at outputRate is returned unchanged.
func Convert(buf *audio.Buffer, outputRate int) (*audio.Buffer, error) {
	if outputRate <= 0 {
		return nil, fmt.Errorf("%w: output rate %d", ErrInvalidRate, outputRate)
	}
	if err := buf.Format.Validate(); err != nil {
		return nil, err
	}
	if buf.Format.SampleRate == outputRate {
		return buf, nil
	}

	r := New(buf.Format.SampleRate, outputRate, buf.Format.Channels)
	output := make([]float32, r.OutputSamplesNeeded(len(buf.Samples)))
	n := r.Resample(buf.Samples, output)

	return &audio.Buffer{
		Samples: output[:n],
		Format:  audio.Format{SampleRate: outputRate, Channels: buf.Format.Channels},
	}, nil
}

// Stretch resamples interleaved samples to floor(frames/rate) frames by linear
// interpolation. rate 2 halves the length, 0.5 doubles it; pitch moves with it.
func Stretch(samples []float32, channels int, rate float64) ([]float32, error) {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("%w: %d channels", audio.ErrInvalidFormat, channels)
	}

	frames := len(samples) / channels
	newFrames := int(math.Floor(float64(frames) / rate))
	out := make([]float32, newFrames*channels)
	if frames == 0 {
		return out, nil
	}

	for i := 0; i < newFrames; i++ {
		sourceIndex := float64(i) * rate
		index1 := int(sourceIndex)
		if index1 > frames-1 {
			index1 = frames - 1
		}
		index2 := index1 + 1
		if index2 > frames-1 {
			index2 = frames - 1
		}
		fraction := float32(sourceIndex - float64(index1))

		for ch := 0; ch < channels; ch++ {
			a := samples[index1*channels+ch]
			b := samples[index2*channels+ch]
			out[i*channels+ch] = a*(1-fraction) + b*fraction
		}
	}

	return out, nil
}
