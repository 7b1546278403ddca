// ABOUTME: Snap-to-grid and quantize operations
// ABOUTME: Closed enums for grid sizes and quantize values with string parsing
package timing

import (
	"errors"
	"fmt"
)

// ErrUnknownGrid is returned when parsing an unknown grid or quantize name
var ErrUnknownGrid = errors.New("unknown grid value")

// Grid selects the snap resolution
type Grid int

const (
	GridNone Grid = iota
	GridBar
	GridBeat
	GridSubdivision
)

func (g Grid) String() string {
	switch g {
	case GridBar:
		return "bar"
	case GridBeat:
		return "beat"
	case GridSubdivision:
		return "subdivision"
	default:
		return "none"
	}
}

// ParseGrid parses "bar", "beat", "subdivision" or "none"
func ParseGrid(s string) (Grid, error) {
	switch s {
	case "bar":
		return GridBar, nil
	case "beat":
		return GridBeat, nil
	case "subdivision":
		return GridSubdivision, nil
	case "none", "":
		return GridNone, nil
	default:
		return GridNone, fmt.Errorf("%w: %q", ErrUnknownGrid, s)
	}
}

// Quantize selects the note value recorded input is pulled to
type Quantize int

const (
	QuantizeOff Quantize = iota
	QuantizeQuarter
	QuantizeEighth
	QuantizeSixteenth
)

func (q Quantize) String() string {
	switch q {
	case QuantizeQuarter:
		return "1/4"
	case QuantizeEighth:
		return "1/8"
	case QuantizeSixteenth:
		return "1/16"
	default:
		return "off"
	}
}

// ParseQuantize parses "1/4", "1/8", "1/16" or "off"
func ParseQuantize(s string) (Quantize, error) {
	switch s {
	case "1/4":
		return QuantizeQuarter, nil
	case "1/8":
		return QuantizeEighth, nil
	case "1/16":
		return QuantizeSixteenth, nil
	case "off", "":
		return QuantizeOff, nil
	default:
		return QuantizeOff, fmt.Errorf("%w: %q", ErrUnknownGrid, s)
	}
}

// SnapToBar returns the start of the bar containing t
func (e *Engine) SnapToBar(t float64) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m := e.secondsToMusical(t)
	return e.musicalToSeconds(MusicalTime{Bars: m.Bars})
}

// SnapToBeat returns the start of the beat containing t
func (e *Engine) SnapToBeat(t float64) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m := e.secondsToMusical(t)
	return e.musicalToSeconds(MusicalTime{Bars: m.Bars, Beats: m.Beats})
}

// SnapToSubdivision returns the start of the sixteenth note containing t
func (e *Engine) SnapToSubdivision(t float64) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.musicalToSeconds(e.secondsToMusical(t))
}

// SnapToGrid snaps t to the given grid; GridNone returns t
func (e *Engine) SnapToGrid(t float64, g Grid) float64 {
	switch g {
	case GridBar:
		return e.SnapToBar(t)
	case GridBeat:
		return e.SnapToBeat(t)
	case GridSubdivision:
		return e.SnapToSubdivision(t)
	default:
		return t
	}
}

// BarStartTime returns the start of the bar containing t
func (e *Engine) BarStartTime(t float64) float64 {
	return e.SnapToBar(t)
}

// BeatStartTime returns the start of the beat containing t
func (e *Engine) BeatStartTime(t float64) float64 {
	return e.SnapToBeat(t)
}

// Quantize pulls t to the given note value; QuantizeOff returns t unchanged
func (e *Engine) Quantize(t float64, q Quantize) float64 {
	if q == QuantizeOff {
		return t
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	m := e.secondsToMusical(t)
	switch q {
	case QuantizeQuarter:
		m.Subdivisions = 0
	case QuantizeEighth:
		if m.Subdivisions >= 2 {
			m.Subdivisions = 2
		} else {
			m.Subdivisions = 0
		}
	}
	return e.musicalToSeconds(m)
}
