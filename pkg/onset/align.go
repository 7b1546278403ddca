// ABOUTME: Auto-alignment of clips to the beat or bar grid
// ABOUTME: Shifts a clip so its first onset lands on the nearest grid line
package onset

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/444radio/dawcore/pkg/timing"
)

// ErrInvalidGrid is returned for non-positive tempos or bar lengths
var ErrInvalidGrid = errors.New("invalid alignment grid")

// Alignment is the result of moving a clip onto the grid
type Alignment struct {
	OnsetTime        float64 // onset inside the clip
	AlignedStartTime float64 // new clip start, never negative
	ShiftAmount      float64
	Confidence       float64 // 1 when already on the grid
}

// TempoEstimate is a BPM guess from onset spacing
type TempoEstimate struct {
	BPM        float64
	Confidence float64
}

// ValidateBPM rejects tempos no grid can be built from
func ValidateBPM(bpm float64) error {
	if bpm <= 0 || math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		return fmt.Errorf("%w: bpm %v", ErrInvalidGrid, bpm)
	}
	return nil
}

// AutoAlignClipToBeat moves a clip starting at currentStart so its first
// onset falls on the nearest beat at bpm
func AutoAlignClipToBeat(samples []float32, sampleRate, channels int, currentStart, bpm float64, opts Options) (Alignment, error) {
	if err := ValidateBPM(bpm); err != nil {
		return Alignment{}, err
	}
	onset := DetectFirstOnset(samples, sampleRate, channels, opts)
	return alignTo(onset, currentStart, 60/bpm), nil
}

// AutoAlignClipToBar moves a clip so its first onset falls on the nearest downbeat
func AutoAlignClipToBar(samples []float32, sampleRate, channels int, currentStart, bpm float64, beatsPerBar int, opts Options) (Alignment, error) {
	if ValidateBPM(bpm) != nil || beatsPerBar <= 0 {
		return Alignment{}, fmt.Errorf("%w: bpm %v with %d beats per bar", ErrInvalidGrid, bpm, beatsPerBar)
	}
	onset := DetectFirstOnset(samples, sampleRate, channels, opts)
	return alignTo(onset, currentStart, 60/bpm*float64(beatsPerBar)), nil
}

func alignTo(onset, currentStart, gridDuration float64) Alignment {
	absolute := currentStart + onset
	nearest := math.Round(absolute/gridDuration) * gridDuration
	shift := nearest - absolute

	return Alignment{
		OnsetTime:        onset,
		AlignedStartTime: math.Max(0, currentStart+shift),
		ShiftAmount:      shift,
		Confidence:       1 - math.Min(1, math.Abs(shift)/gridDuration),
	}
}

// AutoAlignWithEngine aligns against the engine's tempo map, so the grid
// follows tempo and meter changes. grid must be GridBar, GridBeat or
// GridSubdivision.
func AutoAlignWithEngine(samples []float32, sampleRate, channels int, currentStart float64, engine *timing.Engine, grid timing.Grid, opts Options) (Alignment, error) {
	onset := DetectFirstOnset(samples, sampleRate, channels, opts)
	absolute := currentStart + onset

	var gridDuration float64
	switch grid {
	case timing.GridBar:
		gridDuration = engine.BarDurationAt(absolute)
	case timing.GridBeat:
		gridDuration = engine.BeatDurationAt(absolute)
	case timing.GridSubdivision:
		gridDuration = engine.SubdivisionDurationAt(absolute)
	default:
		return Alignment{}, fmt.Errorf("%w: %v", ErrInvalidGrid, grid)
	}

	// Nearest of the grid line at or before the onset and the one after
	below := engine.SnapToGrid(absolute, grid)
	above := engine.SnapToGrid(absolute+gridDuration, grid)
	nearest := below
	if above-absolute < absolute-below {
		nearest = above
	}
	shift := nearest - absolute

	return Alignment{
		OnsetTime:        onset,
		AlignedStartTime: math.Max(0, currentStart+shift),
		ShiftAmount:      shift,
		Confidence:       1 - math.Min(1, math.Abs(shift)/gridDuration),
	}, nil
}

// AnalyzeTempo estimates BPM from the median interval between onsets.
// It reports false when fewer than four onsets are found.
func AnalyzeTempo(samples []float32, sampleRate, channels int, opts Options) (TempoEstimate, bool) {
	onsets := DetectAllOnsets(samples, sampleRate, channels, opts)
	if len(onsets) < 4 {
		return TempoEstimate{}, false
	}

	intervals := make([]float64, 0, len(onsets)-1)
	for i := 1; i < len(onsets); i++ {
		intervals = append(intervals, onsets[i]-onsets[i-1])
	}
	sort.Float64s(intervals)
	median := intervals[len(intervals)/2]

	var totalDeviation float64
	for _, iv := range intervals {
		totalDeviation += math.Abs(iv - median)
	}
	avgDeviation := totalDeviation / float64(len(intervals))

	return TempoEstimate{
		BPM:        math.Round(60 / median),
		Confidence: math.Max(0, 1-avgDeviation/median),
	}, true
}
