// ABOUTME: WAV audio decoder
// ABOUTME: Decodes PCM WAV files through go-audio/wav to float32 buffers
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/wav"

	"github.com/444radio/dawcore/pkg/audio"
)

var errInvalidWAV = errors.New("not a valid wav file")

// WAVDecoder decodes WAV audio
type WAVDecoder struct{}

// Decode converts a WAV stream to a float buffer.
// Readers that cannot seek are buffered in memory first.
func (WAVDecoder) Decode(r io.Reader) (*audio.Buffer, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read wav: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, errInvalidWAV
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav decode error: %w", err)
	}

	format := audio.Format{SampleRate: int(dec.SampleRate), Channels: int(dec.NumChans)}
	if err := format.Validate(); err != nil {
		return nil, err
	}

	bitDepth := int(dec.BitDepth)
	samples := make([]float32, len(pcm.Data))
	for i, v := range pcm.Data {
		if bitDepth == 8 {
			// 8-bit WAV is unsigned
			samples[i] = float32(v-128) / 128
			continue
		}
		samples[i] = audio.IntToFloat(int32(v), bitDepth)
	}

	return &audio.Buffer{Samples: samples, Format: format}, nil
}
