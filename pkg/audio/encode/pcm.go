// ABOUTME: PCM audio encoder
// ABOUTME: Encodes float32 samples to 16-bit little-endian PCM bytes
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/444radio/dawcore/pkg/audio"
)

// PCMEncoder encodes PCM audio
type PCMEncoder struct{}

// NewPCM creates a new PCM encoder; 16 is the only supported bit depth
func NewPCM(bitDepth int) (*PCMEncoder, error) {
	if bitDepth != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16)", bitDepth)
	}
	return &PCMEncoder{}, nil
}

// Encode converts float samples to PCM bytes
func (e *PCMEncoder) Encode(samples []float32) ([]byte, error) {
	output := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(output[i*2:], uint16(audio.FloatToInt16(sample)))
	}
	return output, nil
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}
