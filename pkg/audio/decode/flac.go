// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes FLAC streams frame by frame to float32 buffers
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"

	"github.com/444radio/dawcore/pkg/audio"
)

// FLACDecoder decodes FLAC audio
type FLACDecoder struct{}

// Decode converts a FLAC stream to a float buffer
func (FLACDecoder) Decode(r io.Reader) (*audio.Buffer, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)
	format := audio.Format{SampleRate: int(info.SampleRate), Channels: channels}
	if err := format.Validate(); err != nil {
		return nil, err
	}

	samples := make([]float32, 0, int(info.NSamples)*channels)
	for {
		frame, err := stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("flac frame error: %w", err)
		}

		for i := 0; i < int(frame.BlockSize); i++ {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, audio.IntToFloat(frame.Subframes[ch].Samples[i], bitDepth))
			}
		}
	}

	return &audio.Buffer{Samples: samples, Format: format}, nil
}
