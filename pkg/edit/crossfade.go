// ABOUTME: Crossfades and gain envelopes on gain params
// ABOUTME: Equal-power and linear crossfades plus piecewise-linear envelopes
package edit

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/444radio/dawcore/pkg/graph"
)

// ErrInvalidCrossfade is returned for crossfades with no positive duration
var ErrInvalidCrossfade = errors.New("invalid crossfade")

// CrossfadeCurve selects how two clips trade places
type CrossfadeCurve int

const (
	// CrossfadeEqualPower keeps summed power constant (cos/sin)
	CrossfadeEqualPower CrossfadeCurve = iota
	// CrossfadeLinear keeps summed amplitude constant
	CrossfadeLinear
)

func (c CrossfadeCurve) String() string {
	switch c {
	case CrossfadeEqualPower:
		return "equal-power"
	case CrossfadeLinear:
		return "linear"
	default:
		return fmt.Sprintf("CrossfadeCurve(%d)", int(c))
	}
}

// ParseCrossfadeCurve parses "equal-power" or "linear"
func ParseCrossfadeCurve(s string) (CrossfadeCurve, error) {
	switch strings.ToLower(s) {
	case "equal-power", "equalpower", "":
		return CrossfadeEqualPower, nil
	case "linear":
		return CrossfadeLinear, nil
	default:
		return 0, fmt.Errorf("%w: curve %q", ErrInvalidCrossfade, s)
	}
}

// CrossfadeGains returns the outgoing and incoming gains at x in [0, 1]
func CrossfadeGains(curve CrossfadeCurve, x float64) (float64, float64) {
	x = math.Max(0, math.Min(1, x))
	if curve == CrossfadeLinear {
		return 1 - x, x
	}
	return math.Cos(x * math.Pi / 2), math.Sin(x * math.Pi / 2)
}

// CreateCrossfade fades gain a out and gain b in over [start, start+duration]
func (e *Editor) CreateCrossfade(a, b *graph.Param, start, duration float64, curve CrossfadeCurve) error {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return fmt.Errorf("%w: duration %v", ErrInvalidCrossfade, duration)
	}

	if curve == CrossfadeLinear {
		a.SetValueAtTime(1, start)
		a.LinearRampToValueAtTime(0, start+duration)
		b.SetValueAtTime(0, start)
		b.LinearRampToValueAtTime(1, start+duration)
		return nil
	}

	n := e.curveLength(duration)
	out := make([]float64, n)
	in := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i], in[i] = CrossfadeGains(CrossfadeEqualPower, float64(i)/float64(n))
	}

	if err := a.SetValueCurveAtTime(out, start, duration); err != nil {
		return fmt.Errorf("failed to schedule fade out: %w", err)
	}
	if err := b.SetValueCurveAtTime(in, start, duration); err != nil {
		return fmt.Errorf("failed to schedule fade in: %w", err)
	}
	return nil
}

// EnvelopePoint is a gain value at a time relative to the envelope start
type EnvelopePoint struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// ApplyGainEnvelope replaces automation from startTime on with linear ramps
// through points. The first point's value holds at startTime; an empty
// envelope sets unity gain.
func ApplyGainEnvelope(param *graph.Param, startTime float64, points []EnvelopePoint) {
	param.CancelScheduledValues(startTime)

	first := 1.0
	if len(points) > 0 {
		first = points[0].Value
	}
	param.SetValueAtTime(first, startTime)

	for _, p := range points[min(1, len(points)):] {
		param.LinearRampToValueAtTime(p.Value, startTime+p.Time)
	}
}

// EnvelopeGain evaluates an envelope at t seconds after its start
func EnvelopeGain(points []EnvelopePoint, t float64) float64 {
	if len(points) == 0 {
		return 1
	}

	value, prevTime := points[0].Value, 0.0
	for _, p := range points[1:] {
		if t < p.Time {
			if p.Time <= prevTime {
				return value
			}
			return value + (p.Value-value)*(t-prevTime)/(p.Time-prevTime)
		}
		value, prevTime = p.Value, p.Time
	}
	return value
}
