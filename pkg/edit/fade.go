// ABOUTME: Fade curves for clip regions
// ABOUTME: Schedules fades on gain params and evaluates them for offline rendering
package edit

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/444radio/dawcore/pkg/graph"
)

// ErrInvalidFade is returned for fades with no positive duration or unknown type
var ErrInvalidFade = errors.New("invalid fade")

// silenceFloor stands in for 0 where exponential ramps cannot reach it
const silenceFloor = 0.001

// FadeType selects the fade curve shape
type FadeType int

const (
	FadeLinear FadeType = iota
	FadeExponential
	FadeLogarithmic
	FadeSCurve
)

var fadeNames = map[FadeType]string{
	FadeLinear:      "linear",
	FadeExponential: "exponential",
	FadeLogarithmic: "logarithmic",
	FadeSCurve:      "scurve",
}

func (f FadeType) String() string {
	if name, ok := fadeNames[f]; ok {
		return name
	}
	return fmt.Sprintf("FadeType(%d)", int(f))
}

// ParseFadeType parses a fade name such as "scurve"
func ParseFadeType(s string) (FadeType, error) {
	for t, name := range fadeNames {
		if strings.EqualFold(s, name) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: type %q", ErrInvalidFade, s)
}

// MarshalText encodes the fade name
func (f FadeType) MarshalText() ([]byte, error) {
	if _, ok := fadeNames[f]; !ok {
		return nil, fmt.Errorf("%w: type %d", ErrInvalidFade, int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText decodes a fade name
func (f *FadeType) UnmarshalText(text []byte) error {
	t, err := ParseFadeType(string(text))
	if err != nil {
		return err
	}
	*f = t
	return nil
}

// FadeConfig is a fade shape and its length in seconds
type FadeConfig struct {
	Type     FadeType `json:"type"`
	Duration float64  `json:"duration"`
}

func (f *FadeConfig) validate() error {
	if f == nil {
		return nil
	}
	if _, ok := fadeNames[f.Type]; !ok {
		return fmt.Errorf("%w: type %d", ErrInvalidFade, int(f.Type))
	}
	if f.Duration <= 0 || math.IsNaN(f.Duration) || math.IsInf(f.Duration, 0) {
		return fmt.Errorf("%w: duration %v", ErrInvalidFade, f.Duration)
	}
	return nil
}

// ApplyFade schedules fades on param for a clip playing from startTime for
// duration seconds. The fade-in starts at startTime; the fade-out ends at
// startTime+duration.
func (e *Editor) ApplyFade(param *graph.Param, startTime, duration float64, fadeIn, fadeOut *FadeConfig) error {
	if err := fadeIn.validate(); err != nil {
		return err
	}
	if err := fadeOut.validate(); err != nil {
		return err
	}

	if fadeIn != nil {
		if err := e.applyFadeIn(param, startTime, *fadeIn); err != nil {
			return fmt.Errorf("failed to apply fade in: %w", err)
		}
	}
	if fadeOut != nil {
		if err := e.applyFadeOut(param, startTime+duration-fadeOut.Duration, *fadeOut); err != nil {
			return fmt.Errorf("failed to apply fade out: %w", err)
		}
	}
	return nil
}

func (e *Editor) applyFadeIn(param *graph.Param, start float64, fade FadeConfig) error {
	end := start + fade.Duration

	switch fade.Type {
	case FadeLinear:
		param.SetValueAtTime(0, start)
		param.LinearRampToValueAtTime(1, end)
	case FadeExponential:
		param.SetValueAtTime(silenceFloor, start)
		return param.ExponentialRampToValueAtTime(1, end)
	case FadeLogarithmic:
		param.SetValueAtTime(0, start)
		return param.SetValueCurveAtTime(LogCurve(e.curveLength(fade.Duration), false), start, fade.Duration)
	case FadeSCurve:
		param.SetValueAtTime(0, start)
		return param.SetValueCurveAtTime(SCurve(e.curveLength(fade.Duration)), start, fade.Duration)
	}
	return nil
}

func (e *Editor) applyFadeOut(param *graph.Param, start float64, fade FadeConfig) error {
	end := start + fade.Duration
	param.SetValueAtTime(1, start)

	switch fade.Type {
	case FadeLinear:
		param.LinearRampToValueAtTime(silenceFloor, end)
	case FadeExponential:
		return param.ExponentialRampToValueAtTime(silenceFloor, end)
	case FadeLogarithmic:
		return param.SetValueCurveAtTime(LogCurve(e.curveLength(fade.Duration), true), start, fade.Duration)
	case FadeSCurve:
		curve := SCurve(e.curveLength(fade.Duration))
		reverse(curve)
		return param.SetValueCurveAtTime(curve, start, fade.Duration)
	}
	return nil
}

// curveLength is one point per sample, never fewer than two
func (e *Editor) curveLength(duration float64) int {
	return max(2, int(math.Ceil(duration*float64(e.sampleRate))))
}

// LogCurve samples log10(1+9x) for x = i/n; invert gives 1 minus that
func LogCurve(n int, invert bool) []float64 {
	curve := make([]float64, n)
	for i := range curve {
		curve[i] = logShape(float64(i)/float64(n), invert)
	}
	return curve
}

// SCurve samples a sigmoid over [-3, 3)
func SCurve(n int) []float64 {
	curve := make([]float64, n)
	for i := range curve {
		curve[i] = sigmoid((float64(i)/float64(n) - 0.5) * 6)
	}
	return curve
}

// FadeGain evaluates a fade at x in [0, 1] through it, matching the
// automation ApplyFade schedules
func FadeGain(fade FadeConfig, x float64, fadeOut bool) float64 {
	x = math.Max(0, math.Min(1, x))

	switch fade.Type {
	case FadeExponential:
		if fadeOut {
			return math.Pow(silenceFloor, x)
		}
		return silenceFloor * math.Pow(1/silenceFloor, x)
	case FadeLogarithmic:
		return logShape(x, fadeOut)
	case FadeSCurve:
		if fadeOut {
			return sigmoid((0.5 - x) * 6)
		}
		return sigmoid((x - 0.5) * 6)
	default:
		if fadeOut {
			return 1 + (silenceFloor-1)*x
		}
		return x
	}
}

func logShape(x float64, invert bool) float64 {
	v := math.Log(1+x*9) / math.Log(10)
	if invert {
		return 1 - v
	}
	return v
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func reverse(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
