// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for audio playback backends
package output

import (
	"io"
	"time"
)

// Output represents an audio output device
type Output interface {
	// Open initializes the output device and starts pulling audio
	Open() error

	// CurrentTime returns the smoothed playback clock in seconds
	CurrentTime() float64

	// Latency returns how much audio is queued ahead of the speaker
	Latency() time.Duration

	// PlayedTime returns CurrentTime less Latency, floored at zero
	PlayedTime() float64

	// Close releases output resources
	Close() error
}

// Renderer produces interleaved float32 little-endian stereo on demand
type Renderer interface {
	io.Reader
	SampleRate() int
}
