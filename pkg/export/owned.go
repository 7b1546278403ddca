// ABOUTME: Move-only sample buffer handle
// ABOUTME: Hands interleaved samples across goroutines exactly once
package export

import (
	"errors"
	"sync"
)

// ErrBufferMoved is returned when an OwnedBuffer has already been taken
var ErrBufferMoved = errors.New("buffer already moved")

// OwnedBuffer holds samples until their new owner takes them
type OwnedBuffer struct {
	mu      sync.Mutex
	samples []float32
	moved   bool
}

// NewOwnedBuffer wraps samples; the caller must not use them afterwards
func NewOwnedBuffer(samples []float32) *OwnedBuffer {
	return &OwnedBuffer{samples: samples}
}

// Take returns the samples and invalidates the handle
func (b *OwnedBuffer) Take() ([]float32, error) {
	if b == nil {
		return nil, ErrBufferMoved
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.moved {
		return nil, ErrBufferMoved
	}
	samples := b.samples
	b.samples = nil
	b.moved = true
	return samples, nil
}

// Moved reports whether Take has been called
func (b *OwnedBuffer) Moved() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.moved
}
