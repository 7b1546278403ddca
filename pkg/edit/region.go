// ABOUTME: Clip region model and editor
// ABOUTME: Creates, trims, updates and removes per-clip edit metadata
package edit

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

var (
	// ErrRegionNotFound is returned when no region exists for a clip
	ErrRegionNotFound = errors.New("region not found")

	// ErrInvalidRegion is returned for bounds or rates that cannot be played
	ErrInvalidRegion = errors.New("invalid region")
)

// ClipRegion is the edit metadata for one clip; times are seconds into the clip
type ClipRegion struct {
	ClipID      string      `json:"clipId"`
	Start       float64     `json:"start"`
	End         float64     `json:"end"`
	FadeIn      *FadeConfig `json:"fadeIn,omitempty"`
	FadeOut     *FadeConfig `json:"fadeOut,omitempty"`
	Gain        float64     `json:"gain"`
	Reversed    bool        `json:"reversed"`
	PitchShift  float64     `json:"pitchShift"`  // semitones
	TimeStretch float64     `json:"timeStretch"` // 2 plays twice as fast
}

// NewRegion returns a region with unity gain and no transforms
func NewRegion(clipID string, start, end float64) ClipRegion {
	return ClipRegion{
		ClipID:      clipID,
		Start:       start,
		End:         end,
		Gain:        1,
		TimeStretch: 1,
	}
}

// UnmarshalJSON defaults an absent gain and time stretch to unity
func (r *ClipRegion) UnmarshalJSON(data []byte) error {
	type plain ClipRegion
	decoded := plain{Gain: 1, TimeStretch: 1}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*r = ClipRegion(decoded)
	return nil
}

// Duration is the trimmed length in source seconds
func (r ClipRegion) Duration() float64 {
	return r.End - r.Start
}

// Validate checks that the region can be rendered
func (r ClipRegion) Validate() error {
	switch {
	case r.Start < 0 || r.End <= r.Start:
		return fmt.Errorf("%w: bounds %v-%v", ErrInvalidRegion, r.Start, r.End)
	case r.Gain < 0 || r.Gain > 1 || math.IsNaN(r.Gain):
		return fmt.Errorf("%w: gain %v", ErrInvalidRegion, r.Gain)
	case r.TimeStretch <= 0 || math.IsNaN(r.TimeStretch) || math.IsInf(r.TimeStretch, 0):
		return fmt.Errorf("%w: time stretch %v", ErrInvalidRegion, r.TimeStretch)
	case math.IsNaN(r.PitchShift) || math.IsInf(r.PitchShift, 0):
		return fmt.Errorf("%w: pitch shift %v", ErrInvalidRegion, r.PitchShift)
	}
	if err := r.FadeIn.validate(); err != nil {
		return err
	}
	return r.FadeOut.validate()
}

func (r ClipRegion) clone() ClipRegion {
	if r.FadeIn != nil {
		f := *r.FadeIn
		r.FadeIn = &f
	}
	if r.FadeOut != nil {
		f := *r.FadeOut
		r.FadeOut = &f
	}
	return r
}

// RegionUpdate changes only the fields that are set
type RegionUpdate struct {
	Start        *float64
	End          *float64
	FadeIn       *FadeConfig
	FadeOut      *FadeConfig
	ClearFadeIn  bool
	ClearFadeOut bool
	Gain         *float64
	Reversed     *bool
	PitchShift   *float64
	TimeStretch  *float64
}

func (u RegionUpdate) apply(r ClipRegion) ClipRegion {
	if u.Start != nil {
		r.Start = *u.Start
	}
	if u.End != nil {
		r.End = *u.End
	}
	if u.ClearFadeIn {
		r.FadeIn = nil
	}
	if u.FadeIn != nil {
		f := *u.FadeIn
		r.FadeIn = &f
	}
	if u.ClearFadeOut {
		r.FadeOut = nil
	}
	if u.FadeOut != nil {
		f := *u.FadeOut
		r.FadeOut = &f
	}
	if u.Gain != nil {
		r.Gain = *u.Gain
	}
	if u.Reversed != nil {
		r.Reversed = *u.Reversed
	}
	if u.PitchShift != nil {
		r.PitchShift = *u.PitchShift
	}
	if u.TimeStretch != nil {
		r.TimeStretch = *u.TimeStretch
	}
	return r
}

// Editor holds the regions of a project and builds fade curves at its sample rate
type Editor struct {
	sampleRate int

	mu      sync.RWMutex
	regions map[string]ClipRegion
}

// NewEditor creates an editor; sampleRate sets curve resolution
func NewEditor(sampleRate int) *Editor {
	return &Editor{
		sampleRate: sampleRate,
		regions:    make(map[string]ClipRegion),
	}
}

// SampleRate returns the curve resolution in points per second
func (e *Editor) SampleRate() int {
	return e.sampleRate
}

// CreateRegion adds or replaces the region for clipID with default edits
func (e *Editor) CreateRegion(clipID string, start, end float64) (ClipRegion, error) {
	region := NewRegion(clipID, start, end)
	if err := region.Validate(); err != nil {
		return ClipRegion{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.regions[clipID] = region
	return region.clone(), nil
}

// Region returns a copy of the region for clipID
func (e *Editor) Region(clipID string) (ClipRegion, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	region, ok := e.regions[clipID]
	return region.clone(), ok
}

// Regions returns copies of all regions ordered by clip ID
func (e *Editor) Regions() []ClipRegion {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]ClipRegion, 0, len(e.regions))
	for _, r := range e.regions {
		out = append(out, r.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ClipID < out[j].ClipID
	})
	return out
}

// TrimClip narrows the region to [newStart, newEnd], clamped inside the
// current bounds. A trim that leaves nothing is rejected.
func (e *Editor) TrimClip(clipID string, newStart, newEnd float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	region, ok := e.regions[clipID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRegionNotFound, clipID)
	}

	start := math.Max(math.Max(0, newStart), region.Start)
	end := math.Min(region.End, newEnd)
	if end <= start {
		return fmt.Errorf("%w: trim %v-%v leaves nothing of %v-%v",
			ErrInvalidRegion, newStart, newEnd, region.Start, region.End)
	}

	region.Start = start
	region.End = end
	e.regions[clipID] = region
	return nil
}

// UpdateRegion applies the set fields of u; an invalid result is rejected
// and the region is left unchanged
func (e *Editor) UpdateRegion(clipID string, u RegionUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	region, ok := e.regions[clipID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRegionNotFound, clipID)
	}

	updated := u.apply(region)
	if err := updated.Validate(); err != nil {
		return err
	}
	e.regions[clipID] = updated
	return nil
}

// RemoveRegion deletes the region for clipID
func (e *Editor) RemoveRegion(clipID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.regions, clipID)
}
