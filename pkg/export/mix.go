// ABOUTME: Offline multi-track mixing
// ABOUTME: Sums clips into stereo with gain, pan, mute, solo and peak normalisation
package export

import (
	"errors"
	"fmt"
	"math"
)

// DefaultSampleRate is used when Init leaves the rate unset
const DefaultSampleRate = 48000

var errNoBuffer = errors.New("clip has no buffer")

type mixClip struct {
	id          string
	samples     []float32 // interleaved
	channels    int
	startSample int64
}

func (c mixClip) frames() int64 {
	return int64(len(c.samples) / c.channels)
}

type mixTrack struct {
	settings TrackSettings
	clips    []mixClip
}

// mixProject is the worker's state; only the worker goroutine touches it
type mixProject struct {
	sampleRate int
	tracks     []*mixTrack
}

func newMixProject() *mixProject {
	return &mixProject{sampleRate: DefaultSampleRate}
}

func (p *mixProject) init(r Init) {
	p.sampleRate = r.SampleRate
	if p.sampleRate <= 0 {
		p.sampleRate = DefaultSampleRate
	}
	p.tracks = make([]*mixTrack, len(r.Tracks))
	for i, s := range r.Tracks {
		p.tracks[i] = &mixTrack{settings: s}
	}
}

func (p *mixProject) loadClip(r LoadClip) error {
	if r.TrackIndex < 0 {
		return fmt.Errorf("invalid track index %d", r.TrackIndex)
	}
	if r.Buffer == nil {
		return errNoBuffer
	}
	samples, err := r.Buffer.Take()
	if err != nil {
		return err
	}

	channels := r.Channels
	if channels <= 0 {
		channels = 1
	}

	for len(p.tracks) <= r.TrackIndex {
		p.tracks = append(p.tracks, nil)
	}
	if p.tracks[r.TrackIndex] == nil {
		p.tracks[r.TrackIndex] = &mixTrack{settings: DefaultTrackSettings()}
	}

	track := p.tracks[r.TrackIndex]
	track.clips = append(track.clips, mixClip{
		id:          r.ClipID,
		samples:     samples,
		channels:    channels,
		startSample: r.StartSample,
	})
	return nil
}

func (p *mixProject) updateTrack(r UpdateTrack) {
	if r.TrackIndex < 0 || r.TrackIndex >= len(p.tracks) || p.tracks[r.TrackIndex] == nil {
		return
	}
	r.Update.apply(&p.tracks[r.TrackIndex].settings)
}

// lastSample is the end of the latest clip on any track
func (p *mixProject) lastSample() int64 {
	var last int64
	for _, track := range p.tracks {
		if track == nil {
			continue
		}
		for _, clip := range track.clips {
			last = max(last, clip.startSample+clip.frames())
		}
	}
	return last
}

// render mixes [start, end) into interleaved stereo and returns it with its
// length in frames. Output peaking above full scale is normalised.
func (p *mixProject) render(start int64, end *int64) ([]float32, int) {
	renderEnd := p.lastSample()
	if end != nil {
		renderEnd = *end
	}
	length := renderEnd - start
	if length <= 0 {
		return []float32{}, 0
	}

	left := make([]float32, length)
	right := make([]float32, length)

	hasSolo := false
	for _, track := range p.tracks {
		if track != nil && track.settings.Solo {
			hasSolo = true
			break
		}
	}

	for _, track := range p.tracks {
		if track == nil || track.settings.Muted {
			continue
		}
		if hasSolo && !track.settings.Solo {
			continue
		}

		gain := track.settings.Gain
		pan := track.settings.Pan
		for _, clip := range track.clips {
			mixClipInto(left, right, clip, start, gain, pan)
		}
	}

	peak := 1e-9
	for i := range left {
		peak = math.Max(peak, math.Max(math.Abs(float64(left[i])), math.Abs(float64(right[i]))))
	}
	if peak > 1 {
		norm := float32(1 / peak)
		for i := range left {
			left[i] *= norm
			right[i] *= norm
		}
	}

	out := make([]float32, length*2)
	for i := range left {
		out[i*2] = left[i]
		out[i*2+1] = right[i]
	}
	return out, int(length)
}

// mixClipInto adds one clip to the output. Mono clips are panned; clips
// with two or more channels use their first two at track gain.
func mixClipInto(left, right []float32, clip mixClip, start int64, gain, pan float64) {
	writeStart := max(0, clip.startSample-start)
	readOffset := max(0, start-clip.startSample)
	writeLength := min(clip.frames()-readOffset, int64(len(left))-writeStart)
	if writeLength <= 0 {
		return
	}

	ch := int64(clip.channels)
	if clip.channels == 1 {
		leftGain := float32(gain * (1 - math.Max(0, pan)))
		rightGain := float32(gain * (1 + math.Min(0, pan)))
		for i := int64(0); i < writeLength; i++ {
			s := clip.samples[readOffset+i]
			left[writeStart+i] += s * leftGain
			right[writeStart+i] += s * rightGain
		}
		return
	}

	g := float32(gain)
	for i := int64(0); i < writeLength; i++ {
		idx := (readOffset + i) * ch
		left[writeStart+i] += clip.samples[idx] * g
		right[writeStart+i] += clip.samples[idx+1] * g
	}
}
