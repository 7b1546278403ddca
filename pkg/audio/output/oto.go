// ABOUTME: Oto-based audio output implementation
// ABOUTME: Pulls float32 stereo from a renderer and feeds the output clock
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/444radio/dawcore/pkg/audio/encode"
	"github.com/444radio/dawcore/pkg/clock"
)

const (
	outputChannels = 2
	floatFrameSize = 4 * outputChannels
)

// Config describes how the device is opened
type Config struct {
	SampleRate int
	// BufferSize is the device buffer; 0 lets oto choose
	BufferSize time.Duration
	// BitDepth 16 sends signed 16-bit samples; anything else sends float32
	BitDepth int
}

// Oto output implementation using oto library
type Oto struct {
	cfg    Config
	reader *clockedReader

	mu     sync.Mutex
	otoCtx *oto.Context
	player *oto.Player
	volume float64
	muted  bool
	ready  bool
}

// NewOto creates a new Oto output pulling from src
func NewOto(src Renderer, cfg Config) *Oto {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = src.SampleRate()
	}

	return &Oto{
		cfg:    cfg,
		reader: newClockedReader(src, cfg.SampleRate, clock.New(), time.Now),
		volume: 1,
	}
}

// Open initializes the output device
func (o *Oto) Open() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ready {
		log.Printf("Audio output already initialized, reusing context")
		return nil
	}

	format := oto.FormatFloat32LE
	var r io.Reader = o.reader
	if o.cfg.BitDepth == 16 {
		pcm, err := encode.NewPCM(16)
		if err != nil {
			return err
		}
		format = oto.FormatSignedInt16LE
		r = &pcmReader{src: o.reader, enc: pcm}
	}

	op := &oto.NewContextOptions{
		SampleRate:   o.cfg.SampleRate,
		ChannelCount: outputChannels,
		Format:       format,
		BufferSize:   o.cfg.BufferSize,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.player = ctx.NewPlayer(r)
	o.player.SetVolume(o.volume)
	o.player.Play()
	o.ready = true

	log.Printf("Audio output initialized: %dHz, %d channels", o.cfg.SampleRate, outputChannels)

	return nil
}

// CurrentTime returns the smoothed playback clock in seconds
func (o *Oto) CurrentTime() float64 {
	return o.reader.clock.Now()
}

// PlayedTime returns the clock time of the sample now leaving the device,
// which trails CurrentTime by the queued Latency
func (o *Oto) PlayedTime() float64 {
	return heardTime(o.CurrentTime(), o.Latency())
}

func heardTime(rendered float64, queued time.Duration) float64 {
	heard := rendered - queued.Seconds()
	if heard < 0 {
		return 0
	}
	return heard
}

// Clock exposes the output clock for quality reporting
func (o *Oto) Clock() *clock.OutputClock {
	return o.reader.clock
}

// Latency returns the audio queued in the player but not yet heard
func (o *Oto) Latency() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return 0
	}
	bytesPerFrame := floatFrameSize
	if o.cfg.BitDepth == 16 {
		bytesPerFrame = 2 * outputChannels
	}
	frames := o.player.BufferedSize() / bytesPerFrame
	return time.Duration(float64(frames) / float64(o.cfg.SampleRate) * float64(time.Second))
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	var err error
	if o.player != nil {
		err = o.player.Close()
		o.player = nil
	}
	if o.otoCtx != nil {
		if suspendErr := o.otoCtx.Suspend(); suspendErr != nil && err == nil {
			err = suspendErr
		}
		o.ready = false
	}
	return err
}

// SetVolume sets the master volume (0-1)
func (o *Oto) SetVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.volume = volume
	o.apply()
	log.Printf("Master volume set to %.2f", volume)
}

// SetMuted sets mute state
func (o *Oto) SetMuted(muted bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.muted = muted
	o.apply()
	log.Printf("Muted: %v", muted)
}

// Volume returns the master volume
func (o *Oto) Volume() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.volume
}

// IsMuted returns mute state
func (o *Oto) IsMuted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.muted
}

func (o *Oto) apply() {
	if o.player != nil {
		o.player.SetVolume(getVolumeMultiplier(o.volume, o.muted))
	}
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume float64, muted bool) float64 {
	if muted {
		return 0.0
	}
	return volume
}

// clockedReader reports render progress to the output clock after every pull
type clockedReader struct {
	src        io.Reader
	sampleRate int
	clock      *clock.OutputClock
	now        func() time.Time
	frames     int64
}

func newClockedReader(src io.Reader, sampleRate int, c *clock.OutputClock, now func() time.Time) *clockedReader {
	return &clockedReader{src: src, sampleRate: sampleRate, clock: c, now: now}
}

func (r *clockedReader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if n > 0 {
		r.frames += int64(n / floatFrameSize)
		r.clock.Observe(float64(r.frames)/float64(r.sampleRate), r.now())
	}
	return n, err
}

// pcmReader converts float32 frames from src to 16-bit PCM
type pcmReader struct {
	src     io.Reader
	enc     encode.Encoder
	scratch []byte
	floats  []float32
}

func (r *pcmReader) Read(p []byte) (int, error) {
	frames := len(p) / (2 * outputChannels)
	if frames == 0 {
		return 0, nil
	}

	need := frames * floatFrameSize
	if cap(r.scratch) < need {
		r.scratch = make([]byte, need)
		r.floats = make([]float32, frames*outputChannels)
	}
	n, err := io.ReadFull(r.src, r.scratch[:need])
	samples := n / 4
	for i := 0; i < samples; i++ {
		r.floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(r.scratch[i*4:]))
	}

	data, encErr := r.enc.Encode(r.floats[:samples])
	if encErr != nil {
		return 0, encErr
	}
	copy(p, data)
	return len(data), err
}
