// ABOUTME: WAV container writer for exported mixes
// ABOUTME: Wraps go-audio/wav to produce RIFF/WAVE PCM16 stereo files
package encode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/444radio/dawcore/pkg/audio"
)

const (
	// WAVHeaderSize is the size of a canonical PCM WAV header
	WAVHeaderSize = 44

	wavChannels  = 2
	wavBitDepth  = 16
	wavFormatPCM = 1
)

// Float32ToWAV encodes interleaved stereo float samples as a PCM16 WAV file.
// The result is always WAVHeaderSize + len(samples)*2 bytes long.
func Float32ToWAV(samples []float32, sampleRate int) ([]byte, error) {
	var buf seekBuffer
	if err := encodeWAV(&buf, samples, sampleRate); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteWAV writes samples as a PCM16 stereo WAV to w.
// Writers that cannot seek are filled from an in-memory encode.
func WriteWAV(w io.Writer, samples []float32, sampleRate int) error {
	if ws, ok := w.(io.WriteSeeker); ok {
		return encodeWAV(ws, samples, sampleRate)
	}

	data, err := Float32ToWAV(samples, sampleRate)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write wav: %w", err)
	}
	return nil
}

func encodeWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", audio.ErrInvalidFormat, sampleRate)
	}
	if len(samples)%wavChannels != 0 {
		return fmt.Errorf("%w: %d samples is not whole stereo frames", audio.ErrInvalidFormat, len(samples))
	}

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(audio.FloatToInt16(s))
	}

	enc := wav.NewEncoder(w, sampleRate, wavBitDepth, wavChannels, wavFormatPCM)
	ib := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: wavChannels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("failed to encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize wav: %w", err)
	}
	return nil
}

var errNegativeOffset = errors.New("negative seek offset")

// seekBuffer is an in-memory io.WriteSeeker; the wav encoder seeks back to
// patch chunk sizes on Close.
type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	end := b.pos + len(p)
	if end > len(b.data) {
		if end > cap(b.data) {
			grown := make([]byte, end, 2*end)
			copy(grown, b.data)
			b.data = grown
		} else {
			b.data = b.data[:end]
		}
	}
	copy(b.data[b.pos:], p)
	b.pos = end
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(b.pos) + offset
	case io.SeekEnd:
		abs = int64(len(b.data)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, errNegativeOffset
	}
	b.pos = int(abs)
	return abs, nil
}

func (b *seekBuffer) Bytes() []byte {
	return bytes.Clone(b.data)
}
