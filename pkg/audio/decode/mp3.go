// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes MP3 streams to float32 stereo buffers
package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/444radio/dawcore/pkg/audio"
)

// MP3Decoder decodes MP3 audio
type MP3Decoder struct{}

// Decode converts an MP3 stream to a float buffer.
// go-mp3 always produces 16-bit stereo.
func (MP3Decoder) Decode(r io.Reader) (*audio.Buffer, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode error: %w", err)
	}

	numSamples := len(pcm) / 2
	numSamples -= numSamples % 2

	buf := &audio.Buffer{
		Samples: make([]float32, numSamples),
		Format:  audio.Format{SampleRate: decoder.SampleRate(), Channels: 2},
	}
	for i := 0; i < numSamples; i++ {
		sample16 := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		buf.Samples[i] = audio.Int16ToFloat(sample16)
	}

	return buf, nil
}
