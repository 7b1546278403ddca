// ABOUTME: Decoder interface definition and extension lookup
// ABOUTME: Common interface for all audio decoders plus whole-file helpers
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/444radio/dawcore/pkg/audio"
)

// ErrUnsupportedFormat is returned for files with no matching decoder
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Decoder decodes a complete encoded stream to a float buffer
type Decoder interface {
	// Decode reads r to the end and returns the decoded audio
	Decode(r io.Reader) (*audio.Buffer, error)
}

// ForPath picks a decoder from the file extension
func ForPath(path string) (Decoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return MP3Decoder{}, nil
	case ".flac":
		return FLACDecoder{}, nil
	case ".wav", ".wave":
		return WAVDecoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// File decodes the audio file at path
func File(path string) (*audio.Buffer, error) {
	decoder, err := ForPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	buf, err := decoder.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return buf, nil
}
