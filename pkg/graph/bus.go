// ABOUTME: Track bus with automatable gain and stereo pan
// ABOUTME: Sums connected sources and applies equal-power panning per sample
package graph

import "math"

// Bus mixes the sources connected to it through a gain and a pan stage
type Bus struct {
	id      string
	gain    *Param
	pan     *Param
	removed bool

	mix       []float32
	gainCurve []float32
	panCurve  []float32
}

func newBus(id string) *Bus {
	return &Bus{
		id:   id,
		gain: NewParam(1),
		pan:  NewParam(0),
	}
}

// ID returns the bus identifier
func (b *Bus) ID() string {
	return b.id
}

// Gain returns the linear gain param (1 = unity)
func (b *Bus) Gain() *Param {
	return b.gain
}

// Pan returns the stereo pan param in [-1, 1]
func (b *Bus) Pan() *Param {
	return b.pan
}

// prepare sizes and clears the scratch buffers for a block
func (b *Bus) prepare(frames int) {
	if cap(b.mix) < frames*2 {
		b.mix = make([]float32, frames*2)
		b.gainCurve = make([]float32, frames)
		b.panCurve = make([]float32, frames)
	}
	b.mix = b.mix[:frames*2]
	b.gainCurve = b.gainCurve[:frames]
	b.panCurve = b.panCurve[:frames]
	clear(b.mix)
}

// mixInto applies gain and pan to the summed block and adds it to out
func (b *Bus) mixInto(out []float32, start, step float64) {
	b.gain.Fill(b.gainCurve, start, step)
	b.pan.Fill(b.panCurve, start, step)

	for i := range b.gainCurve {
		left, right := panStereo(b.mix[i*2], b.mix[i*2+1], float64(b.panCurve[i]))
		g := b.gainCurve[i]
		out[i*2] += left * g
		out[i*2+1] += right * g
	}

	b.gain.Prune(start)
	b.pan.Prune(start)
}

// panStereo is the equal-power stereo panner for a stereo input
func panStereo(left, right float32, pan float64) (float32, float32) {
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}

	if pan <= 0 {
		x := (pan + 1) * math.Pi / 2
		gainL := float32(math.Cos(x))
		gainR := float32(math.Sin(x))
		return left + right*gainL, right * gainR
	}

	x := pan * math.Pi / 2
	gainL := float32(math.Cos(x))
	gainR := float32(math.Sin(x))
	return left * gainL, right + left*gainR
}
