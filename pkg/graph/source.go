// ABOUTME: Buffer source node that plays an audio buffer at an exact context time
// ABOUTME: Supports offset, duration, looping, playback rate and ended callbacks
package graph

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/444radio/dawcore/pkg/audio"
)

var (
	// ErrSourceStopped is returned when stopping a source that already stopped or ended
	ErrSourceStopped = errors.New("source already stopped")

	// ErrSourceNotStarted is returned when stopping a source that was never started
	ErrSourceNotStarted = errors.New("source not started")

	// ErrSourceStarted is returned when starting a source twice
	ErrSourceStarted = errors.New("source already started")
)

type sourceState int

const (
	sourceIdle sourceState = iota
	sourceStarted
	sourceStopped
	sourceEnded
)

// Source plays one buffer once (or looped) into a Bus
type Source struct {
	ctx *Context
	buf *audio.Buffer

	mu       sync.Mutex
	state    sourceState
	bus      *Bus
	start    float64 // context time playback begins
	offset   float64 // buffer seconds at start
	duration float64 // buffer seconds to play, 0 = to the end
	loop     bool
	rate     float64
	stopAt   float64
	hasStop  bool
	onEnded  func()
	notified bool
}

// Buffer returns the buffer the source plays
func (s *Source) Buffer() *audio.Buffer {
	return s.buf
}

// Connect routes the source into bus; nil routes straight to the output
func (s *Source) Connect(bus *Bus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bus = bus
}

// SetLoop makes the source wrap around the whole buffer
func (s *Source) SetLoop(loop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loop = loop
}

// SetPlaybackRate changes speed and pitch together; 2 plays an octave up
func (s *Source) SetPlaybackRate(rate float64) error {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return fmt.Errorf("invalid playback rate %v", rate)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = rate
	return nil
}

// PlaybackRate returns the current playback rate
func (s *Source) PlaybackRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

// OnEnded registers fn to run once when the source finishes or is stopped.
// It runs on the rendering goroutine after the block that ended it.
func (s *Source) OnEnded(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEnded = fn
}

// Start schedules playback at context time when, beginning offset seconds
// into the buffer and playing duration buffer-seconds (0 plays to the end,
// or forever when looping). A start time already in the past plays from
// where the source would be had it started on time.
func (s *Source) Start(when, offset, duration float64) error {
	if offset < 0 || duration < 0 {
		return fmt.Errorf("invalid start offset %v duration %v", offset, duration)
	}

	s.mu.Lock()
	if s.state != sourceIdle {
		s.mu.Unlock()
		return ErrSourceStarted
	}
	s.state = sourceStarted
	s.start = when
	s.offset = offset
	s.duration = duration
	s.mu.Unlock()

	s.ctx.addSource(s)
	return nil
}

// Stop ends playback at the current context time
func (s *Source) Stop() error {
	return s.StopAt(s.ctx.CurrentTime())
}

// StopAt ends playback at context time when
func (s *Source) StopAt(when float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case sourceIdle:
		return ErrSourceNotStarted
	case sourceStopped, sourceEnded:
		return ErrSourceStopped
	}

	if s.hasStop && s.stopAt <= when {
		return nil
	}
	s.stopAt = when
	s.hasStop = true
	if when <= s.ctx.CurrentTime() {
		s.state = sourceStopped
	}
	return nil
}

// StartTime returns the context time playback begins
func (s *Source) StartTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.start
}

// Playing reports whether the source is started and not yet finished
func (s *Source) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == sourceStarted
}

// render mixes the source into dst (interleaved stereo) for the block that
// starts at frame blockStart. It returns true once the source is finished.
func (s *Source) render(dst []float32, blockStart int64, outRate int) (done bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == sourceStopped || s.state == sourceEnded {
		s.state = sourceEnded
		return true
	}

	buf := s.buf
	if buf == nil || buf.Format.Validate() != nil || buf.Frames() == 0 {
		s.state = sourceEnded
		return true
	}

	channels := buf.Format.Channels
	bufFrames := buf.Frames()
	bufRate := float64(buf.Format.SampleRate)
	bufDuration := float64(bufFrames) / bufRate
	outStep := 1 / float64(outRate)

	frames := len(dst) / 2
	for i := 0; i < frames; i++ {
		t := float64(blockStart+int64(i)) * outStep
		if s.hasStop && t >= s.stopAt {
			s.state = sourceEnded
			return true
		}
		if t < s.start {
			continue
		}

		played := (t - s.start) * s.rate
		if s.duration > 0 && played >= s.duration {
			s.state = sourceEnded
			return true
		}

		pos := s.offset + played
		if s.loop {
			pos = math.Mod(pos, bufDuration)
		} else if pos >= bufDuration {
			s.state = sourceEnded
			return true
		}

		framePos := pos * bufRate
		idx := int(framePos)
		if idx >= bufFrames {
			idx = bufFrames - 1
		}
		next := idx + 1
		if next >= bufFrames {
			if s.loop {
				next = 0
			} else {
				next = bufFrames - 1
			}
		}
		frac := float32(framePos - float64(idx))

		left := lerp(buf.Samples[idx*channels], buf.Samples[next*channels], frac)
		right := left
		if channels > 1 {
			right = lerp(buf.Samples[idx*channels+1], buf.Samples[next*channels+1], frac)
		}

		dst[i*2] += left
		dst[i*2+1] += right
	}

	return false
}

// endedCallback returns the callback once
func (s *Source) endedCallback() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notified {
		return nil
	}
	s.notified = true
	return s.onEnded
}

func (s *Source) output() *Bus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus
}

func lerp(a, b, frac float32) float32 {
	return a + (b-a)*frac
}
