// ABOUTME: JSON project file model
// ABOUTME: Tracks, clips, tempo and meter, with loading, saving and validation
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/444radio/dawcore/pkg/edit"
	"github.com/444radio/dawcore/pkg/timing"
)

// ErrInvalidProject is returned for project files that cannot be played
var ErrInvalidProject = errors.New("invalid project")

// Project is a multi-track arrangement of audio sources
type Project struct {
	Name          string        `json:"name"`
	SampleRate    int           `json:"sampleRate,omitempty"`
	BPM           float64       `json:"bpm,omitempty"`
	TimeSignature *Meter        `json:"timeSignature,omitempty"`
	TempoChanges  []TempoChange `json:"tempoChanges,omitempty"`
	MeterChanges  []MeterChange `json:"meterChanges,omitempty"`
	Tracks        []Track       `json:"tracks"`

	dir string // relative sources resolve against the project file
}

// Meter is a time signature
type Meter struct {
	Numerator   int `json:"numerator"`
	Denominator int `json:"denominator"`
}

// TempoChange sets the tempo from At seconds onward
type TempoChange struct {
	BPM float64 `json:"bpm"`
	At  float64 `json:"at"`
}

// MeterChange sets the time signature from At seconds onward
type MeterChange struct {
	Meter
	At float64 `json:"at"`
}

// Track is one mixer channel of clips
type Track struct {
	ID     string  `json:"id"`
	Name   string  `json:"name,omitempty"`
	Volume float64 `json:"volume"`
	Pan    float64 `json:"pan"`
	Mute   bool    `json:"mute"`
	Solo   bool    `json:"solo"`
	Clips  []Clip  `json:"clips"`
}

// UnmarshalJSON defaults an absent volume to unity
func (t *Track) UnmarshalJSON(data []byte) error {
	type plain Track
	decoded := plain{Volume: 1}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*t = Track(decoded)
	return nil
}

// Clip places part of a source on a track.
// Offset and Duration select the source section; Duration 0 plays to the
// end of the source. A Region, when present, replaces both.
type Clip struct {
	ID        string           `json:"id"`
	Source    string           `json:"source"`
	StartTime float64          `json:"startTime"`
	Offset    float64          `json:"offset,omitempty"`
	Duration  float64          `json:"duration,omitempty"`
	Loop      bool             `json:"loop,omitempty"`
	Region    *edit.ClipRegion `json:"region,omitempty"`
}

// Load reads a project file
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", err)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	p.dir = filepath.Dir(path)
	return p, nil
}

// Parse decodes and validates a project, giving clips without an id a new one
func Parse(data []byte) (*Project, error) {
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse project: %w", err)
	}

	for i := range p.Tracks {
		for j := range p.Tracks[i].Clips {
			if p.Tracks[i].Clips[j].ID == "" {
				p.Tracks[i].Clips[j].ID = uuid.NewString()
			}
		}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save writes the project as indented JSON
func (p *Project) Save(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write project: %w", err)
	}
	return nil
}

// Validate checks track and clip fields
func (p *Project) Validate() error {
	if p.SampleRate < 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidProject, p.SampleRate)
	}
	if p.BPM < 0 || math.IsNaN(p.BPM) {
		return fmt.Errorf("%w: bpm %v", ErrInvalidProject, p.BPM)
	}

	tracks := make(map[string]bool)
	for _, t := range p.Tracks {
		if t.ID == "" {
			return fmt.Errorf("%w: track without id", ErrInvalidProject)
		}
		if tracks[t.ID] {
			return fmt.Errorf("%w: duplicate track %s", ErrInvalidProject, t.ID)
		}
		tracks[t.ID] = true

		if t.Volume < 0 || t.Volume > 1 || t.Pan < -1 || t.Pan > 1 {
			return fmt.Errorf("%w: track %s volume %v pan %v", ErrInvalidProject, t.ID, t.Volume, t.Pan)
		}

		for _, c := range t.Clips {
			if err := c.validate(); err != nil {
				return fmt.Errorf("%w: track %s: %v", ErrInvalidProject, t.ID, err)
			}
		}
	}
	return nil
}

func (c Clip) validate() error {
	switch {
	case c.Source == "":
		return fmt.Errorf("clip %s has no source", c.ID)
	case c.StartTime < 0 || c.Offset < 0 || c.Duration < 0:
		return fmt.Errorf("clip %s has negative times", c.ID)
	}
	if c.Region != nil {
		return c.Region.Validate()
	}
	return nil
}

// SourcePath resolves a clip source against the project file's directory.
// URLs and absolute paths are returned unchanged.
func (p *Project) SourcePath(source string) string {
	if p.dir == "" || filepath.IsAbs(source) || strings.Contains(source, "://") {
		return source
	}
	return filepath.Join(p.dir, source)
}

// Sources returns the distinct clip sources in first-use order
func (p *Project) Sources() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range p.Tracks {
		for _, c := range t.Clips {
			if !seen[c.Source] {
				seen[c.Source] = true
				out = append(out, c.Source)
			}
		}
	}
	return out
}

// Engine builds the project's time engine
func (p *Project) Engine(sampleRate int) (*timing.Engine, error) {
	if p.SampleRate > 0 {
		sampleRate = p.SampleRate
	}
	e := timing.New(sampleRate, p.BPM)

	if m := p.TimeSignature; m != nil {
		if err := e.SetTimeSignature(m.Numerator, m.Denominator, 0); err != nil {
			return nil, fmt.Errorf("failed to set time signature: %w", err)
		}
	}
	for _, tc := range p.TempoChanges {
		if err := e.SetTempo(tc.BPM, tc.At); err != nil {
			return nil, fmt.Errorf("failed to set tempo change: %w", err)
		}
	}
	for _, mc := range p.MeterChanges {
		if err := e.SetTimeSignature(mc.Numerator, mc.Denominator, mc.At); err != nil {
			return nil, fmt.Errorf("failed to set meter change: %w", err)
		}
	}
	return e, nil
}

// TrackByID finds a track
func (p *Project) TrackByID(id string) (*Track, bool) {
	for i := range p.Tracks {
		if p.Tracks[i].ID == id {
			return &p.Tracks[i], true
		}
	}
	return nil, false
}
