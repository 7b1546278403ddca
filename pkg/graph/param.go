// ABOUTME: Automatable parameter with scheduled value events
// ABOUTME: Evaluates set, linear, exponential and curve events at any context time
package graph

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

var (
	// ErrNonPositiveValue is returned for exponential ramps to values <= 0
	ErrNonPositiveValue = errors.New("exponential ramp target must be positive")

	// ErrInvalidCurve is returned for curves with fewer than two points or no duration
	ErrInvalidCurve = errors.New("invalid value curve")
)

type eventKind int

const (
	eventSet eventKind = iota
	eventLinear
	eventExponential
	eventCurve
)

type event struct {
	kind     eventKind
	time     float64
	value    float64
	curve    []float64
	duration float64
}

// endTime is when the event stops changing the value
func (e event) endTime() float64 {
	if e.kind == eventCurve {
		return e.time + e.duration
	}
	return e.time
}

// endValue is the value the event leaves behind
func (e event) endValue() float64 {
	if e.kind == eventCurve {
		return e.curve[len(e.curve)-1]
	}
	return e.value
}

// Param is a value that can be automated over context time
type Param struct {
	mu           sync.Mutex
	defaultValue float64
	events       []event
}

// NewParam creates a param holding defaultValue until an event changes it
func NewParam(defaultValue float64) *Param {
	return &Param{defaultValue: defaultValue}
}

// DefaultValue returns the value used before any event
func (p *Param) DefaultValue() float64 {
	return p.defaultValue
}

// SetValueAtTime jumps to value at time t
func (p *Param) SetValueAtTime(value, t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.insert(event{kind: eventSet, time: t, value: value})
}

// LinearRampToValueAtTime ramps linearly from the previous event to value, arriving at t
func (p *Param) LinearRampToValueAtTime(value, t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.insert(event{kind: eventLinear, time: t, value: value})
}

// ExponentialRampToValueAtTime ramps exponentially from the previous event to value, arriving at t
func (p *Param) ExponentialRampToValueAtTime(value, t float64) error {
	if value <= 0 {
		return fmt.Errorf("%w: %v", ErrNonPositiveValue, value)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.insert(event{kind: eventExponential, time: t, value: value})
	return nil
}

// SetValueCurveAtTime follows curve, linearly interpolated, over [t, t+duration]
func (p *Param) SetValueCurveAtTime(curve []float64, t, duration float64) error {
	if len(curve) < 2 || duration <= 0 {
		return fmt.Errorf("%w: %d points over %vs", ErrInvalidCurve, len(curve), duration)
	}
	values := make([]float64, len(curve))
	copy(values, curve)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.insert(event{kind: eventCurve, time: t, curve: values, duration: duration})
	return nil
}

// CancelScheduledValues removes every event at or after t
func (p *Param) CancelScheduledValues(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancel(t)
}

// RampTo holds the current value at now and ramps linearly to target over
// seconds, discarding any automation scheduled from now on.
func (p *Param) RampTo(now, target, seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := p.valueAt(now)
	p.cancel(now)
	p.insert(event{kind: eventSet, time: now, value: current})
	if seconds <= 0 {
		p.insert(event{kind: eventSet, time: now, value: target})
		return
	}
	p.insert(event{kind: eventLinear, time: now + seconds, value: target})
}

// SetValueNow discards automation from now on and jumps to value
func (p *Param) SetValueNow(now, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancel(now)
	p.insert(event{kind: eventSet, time: now, value: value})
}

// ValueAt evaluates the automation at context time t
func (p *Param) ValueAt(t float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.valueAt(t)
}

// Fill writes the value at start, start+step, ... into dst
func (p *Param) Fill(dst []float32, start, step float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.events) == 0 {
		v := float32(p.defaultValue)
		for i := range dst {
			dst[i] = v
		}
		return
	}
	for i := range dst {
		dst[i] = float32(p.valueAt(start + float64(i)*step))
	}
}

// Prune collapses events that finished at or before t into a single set event
func (p *Param) Prune(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := 0
	for k < len(p.events) && p.events[k].endTime() <= t {
		k++
	}
	if k == 0 || (k == 1 && p.events[0].kind == eventSet) {
		return
	}

	last := p.events[k-1]
	collapsed := event{kind: eventSet, time: last.endTime(), value: last.endValue()}
	p.events = append([]event{collapsed}, p.events[k:]...)
}

// EventCount returns the number of scheduled events
func (p *Param) EventCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// insert keeps events ordered by time; equal times keep insertion order
func (p *Param) insert(e event) {
	i := sort.Search(len(p.events), func(i int) bool {
		return p.events[i].time > e.time
	})
	p.events = append(p.events, event{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = e
}

func (p *Param) cancel(t float64) {
	i := sort.Search(len(p.events), func(i int) bool {
		return p.events[i].time >= t
	})
	p.events = p.events[:i]
}

func (p *Param) valueAt(t float64) float64 {
	value := p.defaultValue
	prevTime := 0.0

	for _, e := range p.events {
		switch e.kind {
		case eventSet:
			if t < e.time {
				return value
			}
			value = e.value

		case eventLinear:
			if t < e.time {
				if e.time <= prevTime || t < prevTime {
					return value
				}
				frac := (t - prevTime) / (e.time - prevTime)
				return value + (e.value-value)*frac
			}
			value = e.value

		case eventExponential:
			if t < e.time {
				if e.time <= prevTime || t < prevTime || value <= 0 {
					return value
				}
				frac := (t - prevTime) / (e.time - prevTime)
				return value * math.Pow(e.value/value, frac)
			}
			value = e.value

		case eventCurve:
			if t < e.time {
				return value
			}
			if t < e.time+e.duration {
				return curveValue(e.curve, (t-e.time)/e.duration)
			}
			value = e.endValue()
		}
		prevTime = e.endTime()
	}

	return value
}

// curveValue interpolates a curve at x in [0, 1)
func curveValue(curve []float64, x float64) float64 {
	pos := x * float64(len(curve)-1)
	k := int(pos)
	if k >= len(curve)-1 {
		return curve[len(curve)-1]
	}
	frac := pos - float64(k)
	return curve[k] + (curve[k+1]-curve[k])*frac
}
