// ABOUTME: Time engine holding tempo and time-signature maps
// ABOUTME: Converts between seconds, samples, musical time and SMPTE
package timing

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

const (
	DefaultSampleRate = 48000
	DefaultBPM        = 120

	// Changes closer than this replace each other
	replaceTolerance = 0.001

	// Positions this close below a grid line count as on it
	beatEpsilon = 1e-9
)

var (
	// ErrInvalidTempo is returned for non-positive tempos or negative times
	ErrInvalidTempo = errors.New("invalid tempo")

	// ErrInvalidTimeSignature is returned for malformed signatures or negative times
	ErrInvalidTimeSignature = errors.New("invalid time signature")
)

// TempoChange sets the tempo from At seconds onward
type TempoChange struct {
	BPM float64
	At  float64
}

// TimeSignature sets the meter from At seconds onward
type TimeSignature struct {
	Numerator   int
	Denominator int
	At          float64
}

// Engine converts between time units for one project.
// It is safe for concurrent use.
type Engine struct {
	mu           sync.RWMutex
	sampleRate   int
	tempoMap     []TempoChange
	signatureMap []TimeSignature
}

// New creates an engine in 4/4 at bpm. Non-positive arguments take the defaults.
func New(sampleRate int, bpm float64) *Engine {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if bpm <= 0 || math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		bpm = DefaultBPM
	}
	return &Engine{
		sampleRate:   sampleRate,
		tempoMap:     []TempoChange{{BPM: bpm, At: 0}},
		signatureMap: []TimeSignature{{Numerator: 4, Denominator: 4, At: 0}},
	}
}

// SampleRate returns the project sample rate
func (e *Engine) SampleRate() int {
	return e.sampleRate
}

// SetTempo sets bpm from at seconds onward, replacing any change within 1ms
func (e *Engine) SetTempo(bpm, at float64) error {
	if bpm <= 0 || math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		return fmt.Errorf("%w: %v bpm", ErrInvalidTempo, bpm)
	}
	if at < 0 || math.IsNaN(at) {
		return fmt.Errorf("%w: at %vs", ErrInvalidTempo, at)
	}
	at = snapToZero(at)

	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.tempoMap[:0]
	for _, t := range e.tempoMap {
		if math.Abs(t.At-at) > replaceTolerance {
			kept = append(kept, t)
		}
	}
	e.tempoMap = append(kept, TempoChange{BPM: bpm, At: at})
	sort.SliceStable(e.tempoMap, func(i, j int) bool {
		return e.tempoMap[i].At < e.tempoMap[j].At
	})
	return nil
}

// SetTimeSignature sets the meter from at seconds onward, replacing any change within 1ms
func (e *Engine) SetTimeSignature(numerator, denominator int, at float64) error {
	if numerator <= 0 || denominator <= 0 || denominator&(denominator-1) != 0 {
		return fmt.Errorf("%w: %d/%d", ErrInvalidTimeSignature, numerator, denominator)
	}
	if at < 0 || math.IsNaN(at) {
		return fmt.Errorf("%w: at %vs", ErrInvalidTimeSignature, at)
	}
	at = snapToZero(at)

	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.signatureMap[:0]
	for _, ts := range e.signatureMap {
		if math.Abs(ts.At-at) > replaceTolerance {
			kept = append(kept, ts)
		}
	}
	e.signatureMap = append(kept, TimeSignature{Numerator: numerator, Denominator: denominator, At: at})
	sort.SliceStable(e.signatureMap, func(i, j int) bool {
		return e.signatureMap[i].At < e.signatureMap[j].At
	})
	return nil
}

// snapToZero keeps the time-zero fallback entry at exactly zero
func snapToZero(at float64) float64 {
	if at <= replaceTolerance {
		return 0
	}
	return at
}

// TempoAt returns the tempo change active at t
func (e *Engine) TempoAt(t float64) TempoChange {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tempoAt(t)
}

// TimeSignatureAt returns the time signature active at t
func (e *Engine) TimeSignatureAt(t float64) TimeSignature {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.signatureAt(t)
}

// BPM returns the base tempo (the entry at time zero)
func (e *Engine) BPM() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tempoMap[0].BPM
}

// TimeSignature returns the base time signature
func (e *Engine) TimeSignature() TimeSignature {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.signatureMap[0]
}

// TempoMap returns a copy of the tempo map
func (e *Engine) TempoMap() []TempoChange {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]TempoChange(nil), e.tempoMap...)
}

// TimeSignatureMap returns a copy of the time-signature map
func (e *Engine) TimeSignatureMap() []TimeSignature {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]TimeSignature(nil), e.signatureMap...)
}

// Reset drops every tempo and signature change, keeping the time-zero entries
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tempoMap = e.tempoMap[:1]
	e.signatureMap = e.signatureMap[:1]
}

func (e *Engine) tempoAt(t float64) TempoChange {
	for i := len(e.tempoMap) - 1; i >= 0; i-- {
		if e.tempoMap[i].At <= t {
			return e.tempoMap[i]
		}
	}
	return e.tempoMap[0]
}

func (e *Engine) signatureAt(t float64) TimeSignature {
	for i := len(e.signatureMap) - 1; i >= 0; i-- {
		if e.signatureMap[i].At <= t {
			return e.signatureMap[i]
		}
	}
	return e.signatureMap[0]
}

// segment is a span with one tempo and one meter
type segment struct {
	start     float64
	beatDur   float64
	perBar    int
	startBars float64 // bars elapsed before start, fractional after a mid-bar tempo change
}

// barBase splits the bar position at the segment start into a whole bar
// index and the beats already elapsed inside that bar
func (s segment) barBase() (int, float64) {
	whole := math.Floor(s.startBars)
	return int(whole), (s.startBars - whole) * float64(s.perBar)
}

// segments merges both maps into constant-tempo, constant-meter spans.
// A time-signature change always begins a new bar.
func (e *Engine) segments() []segment {
	times := make([]float64, 0, len(e.tempoMap)+len(e.signatureMap))
	meterAt := make(map[float64]bool, len(e.signatureMap))
	for _, t := range e.tempoMap {
		times = append(times, t.At)
	}
	for _, ts := range e.signatureMap {
		times = append(times, ts.At)
		meterAt[ts.At] = true
	}
	sort.Float64s(times)

	segs := make([]segment, 0, len(times))
	bars := 0.0
	for i, start := range times {
		if i > 0 && start == times[i-1] {
			continue
		}
		if n := len(segs); n > 0 {
			prev := &segs[n-1]
			bars += (start - prev.start) / prev.beatDur / float64(prev.perBar)
			if meterAt[start] {
				bars = nextBarLine(bars)
			}
		}
		segs = append(segs, segment{
			start:     start,
			beatDur:   60 / e.tempoAt(start).BPM,
			perBar:    e.signatureAt(start).Numerator,
			startBars: bars,
		})
	}
	return segs
}

// nextBarLine rounds a bar position up to a whole bar, treating values
// within rounding error of a bar line as on it
func nextBarLine(bars float64) float64 {
	if r := math.Round(bars); math.Abs(bars-r) < beatEpsilon {
		return r
	}
	return math.Ceil(bars)
}

// SecondsToMusical converts seconds to a zero-indexed musical position
func (e *Engine) SecondsToMusical(t float64) MusicalTime {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.secondsToMusical(t)
}

func (e *Engine) secondsToMusical(t float64) MusicalTime {
	segs := e.segments()
	seg := segs[0]
	for _, s := range segs[1:] {
		if s.start <= t {
			seg = s
		}
	}

	baseBar, lead := seg.barBase()
	totalBeats := (t-seg.start)/seg.beatDur + lead + beatEpsilon

	beatsPerBar := float64(seg.perBar)
	bars := int(math.Floor(totalBeats / beatsPerBar))
	beatsInBar := math.Mod(totalBeats, beatsPerBar)
	beats := int(math.Floor(beatsInBar))
	subdivisions := int(math.Floor((beatsInBar - float64(beats)) * SubdivisionsPerBeat))

	return MusicalTime{
		Bars:         baseBar + bars,
		Beats:        beats,
		Subdivisions: max(0, min(SubdivisionsPerBeat-1, subdivisions)),
	}
}

// MusicalToSeconds converts a zero-indexed musical position to seconds,
// integrating across tempo and signature changes
func (e *Engine) MusicalToSeconds(m MusicalTime) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.musicalToSeconds(m)
}

func (e *Engine) musicalToSeconds(m MusicalTime) float64 {
	segs := e.segments()
	inBar := float64(m.Beats) + float64(m.Subdivisions)/SubdivisionsPerBeat

	for i := len(segs) - 1; i >= 0; i-- {
		s := segs[i]
		baseBar, lead := s.barBase()
		beatsIntoSeg := float64(m.Bars-baseBar)*float64(s.perBar) + inBar - lead
		if (m.Bars >= baseBar && beatsIntoSeg >= 0) || i == 0 {
			return s.start + beatsIntoSeg*s.beatDur
		}
	}
	return 0
}

// SecondsToSamples converts seconds to a sample count, rounding down
func (e *Engine) SecondsToSamples(t float64) int64 {
	return int64(math.Floor(t * float64(e.sampleRate)))
}

// SamplesToSeconds converts a sample count to seconds
func (e *Engine) SamplesToSeconds(n int64) float64 {
	return float64(n) / float64(e.sampleRate)
}

// Position reports t in every time unit
func (e *Engine) Position(t float64) Position {
	return Position{
		Seconds: t,
		Samples: e.SecondsToSamples(t),
		Musical: e.SecondsToMusical(t),
		SMPTE:   SecondsToSMPTE(t, 30),
	}
}

// FormatMusical formats t as a 1-indexed bar:beat.subdivision string
func (e *Engine) FormatMusical(t float64) string {
	return e.SecondsToMusical(t).String()
}

// SecondsToSMPTE formats t as HH:MM:SS:FF; fps <= 0 uses 30
func SecondsToSMPTE(t float64, fps int) string {
	if fps <= 0 {
		fps = 30
	}
	if t < 0 || math.IsNaN(t) {
		t = 0
	}

	hours := int(math.Floor(t / 3600))
	minutes := int(math.Floor(math.Mod(t, 3600) / 60))
	secs := int(math.Floor(math.Mod(t, 60)))
	frames := int(math.Floor(math.Mod(t, 1) * float64(fps)))

	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, secs, frames)
}

// SecondsToSMPTE formats t as HH:MM:SS:FF; fps <= 0 uses 30
func (e *Engine) SecondsToSMPTE(t float64, fps int) string {
	return SecondsToSMPTE(t, fps)
}

// BeatDurationAt returns the length of one beat in seconds at t
func (e *Engine) BeatDurationAt(t float64) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return 60 / e.tempoAt(t).BPM
}

// BarDurationAt returns the length of one bar in seconds at t
func (e *Engine) BarDurationAt(t float64) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return 60 / e.tempoAt(t).BPM * float64(e.signatureAt(t).Numerator)
}

// SubdivisionDurationAt returns the length of one sixteenth note in seconds at t
func (e *Engine) SubdivisionDurationAt(t float64) float64 {
	return e.BeatDurationAt(t) / SubdivisionsPerBeat
}

// IsOnSameBeat reports whether a and b fall in the same bar and beat
func (e *Engine) IsOnSameBeat(a, b float64) bool {
	ma := e.SecondsToMusical(a)
	mb := e.SecondsToMusical(b)
	return ma.Bars == mb.Bars && ma.Beats == mb.Beats
}
