// ABOUTME: Audio context that owns the output timeline and renders the graph
// ABOUTME: Pull-model renderer producing interleaved stereo float32 blocks
package graph

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"github.com/444radio/dawcore/pkg/audio"
)

// Context renders sources through buses to a stereo output
type Context struct {
	sampleRate int
	frames     atomic.Int64

	mu      sync.Mutex
	buses   map[string]*Bus
	order   []*Bus
	sources []*Source
	direct  []float32
	scratch []float32
}

// NewContext creates a context producing sampleRate frames per second
func NewContext(sampleRate int) *Context {
	return &Context{
		sampleRate: sampleRate,
		buses:      make(map[string]*Bus),
	}
}

// SampleRate returns the output sample rate
func (c *Context) SampleRate() int {
	return c.sampleRate
}

// CurrentTime returns the context time in seconds: frames rendered so far
func (c *Context) CurrentTime() float64 {
	return float64(c.frames.Load()) / float64(c.sampleRate)
}

// Frames returns the number of frames rendered so far
func (c *Context) Frames() int64 {
	return c.frames.Load()
}

// NewBus returns the bus with id, creating it if needed
func (c *Context) NewBus(id string) *Bus {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.buses[id]; ok {
		return b
	}
	b := newBus(id)
	c.buses[id] = b
	c.order = append(c.order, b)
	return b
}

// RemoveBus disconnects a bus; sources feeding it stop
func (c *Context) RemoveBus(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.buses[id]
	if !ok {
		return
	}
	b.removed = true
	delete(c.buses, id)
	for i, ob := range c.order {
		if ob == b {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// NewSource creates an idle source for buf
func (c *Context) NewSource(buf *audio.Buffer) *Source {
	return &Source{ctx: c, buf: buf, rate: 1}
}

// ActiveSources returns how many sources are started and not yet finished
func (c *Context) ActiveSources() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sources)
}

func (c *Context) addSource(s *Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = append(c.sources, s)
}

// Render fills out with interleaved stereo and advances the timeline.
// Ended callbacks run after the block is rendered.
func (c *Context) Render(out []float32) {
	frames := len(out) / 2
	clear(out)
	if frames == 0 {
		return
	}

	callbacks := c.renderBlock(out[:frames*2], frames)
	for _, fn := range callbacks {
		fn()
	}
}

func (c *Context) renderBlock(out []float32, frames int) []func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	blockStart := c.frames.Load()
	step := 1 / float64(c.sampleRate)
	startTime := float64(blockStart) * step

	for _, b := range c.order {
		b.prepare(frames)
	}
	if cap(c.direct) < frames*2 {
		c.direct = make([]float32, frames*2)
	}
	c.direct = c.direct[:frames*2]
	clear(c.direct)

	var callbacks []func()
	live := c.sources[:0]
	for _, s := range c.sources {
		bus := s.output()
		dst := c.direct
		if bus != nil {
			if bus.removed {
				s.StopAt(startTime)
			}
			dst = bus.mix
		}

		if s.render(dst, blockStart, c.sampleRate) {
			if fn := s.endedCallback(); fn != nil {
				callbacks = append(callbacks, fn)
			}
			continue
		}
		live = append(live, s)
	}
	clear(c.sources[len(live):])
	c.sources = live

	for _, b := range c.order {
		b.mixInto(out, startTime, step)
	}
	for i, v := range c.direct {
		out[i] += v
	}

	c.frames.Add(int64(frames))
	return callbacks
}

// Read renders float32 little-endian stereo into p, for output devices
// that pull bytes. It never returns an error; silence is rendered when
// nothing is playing.
func (c *Context) Read(p []byte) (int, error) {
	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}

	if cap(c.scratch) < frames*2 {
		c.scratch = make([]float32, frames*2)
	}
	block := c.scratch[:frames*2]
	c.Render(block)

	for i, v := range block {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return frames * 8, nil
}
