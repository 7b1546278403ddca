// ABOUTME: Scheduled clip and track state types
// ABOUTME: Clip validation and project/output time helpers
package scheduler

import (
	"errors"
	"fmt"
	"math"

	"github.com/444radio/dawcore/pkg/audio"
	"github.com/444radio/dawcore/pkg/graph"
)

var (
	// ErrInvalidClip is returned for clips that cannot be played as described
	ErrInvalidClip = errors.New("invalid clip")

	// ErrTrackNotFound is returned for operations on unregistered tracks
	ErrTrackNotFound = errors.New("track not found")
)

// clipTolerance absorbs rounding when a clip runs to the end of its buffer
const clipTolerance = 1e-9

// ScheduledClip is one request to play part of a buffer; times are project seconds
type ScheduledClip struct {
	TrackID   string
	ClipID    string
	Buffer    *audio.Buffer
	StartTime float64
	Duration  float64
	Offset    float64
	Loop      bool
}

// Validate checks that the clip fits inside its buffer
func (c ScheduledClip) Validate() error {
	switch {
	case c.Buffer == nil || c.Buffer.Frames() == 0:
		return fmt.Errorf("%w: %s has no audio", ErrInvalidClip, c.ClipID)
	case c.Duration <= 0 || math.IsNaN(c.Duration):
		return fmt.Errorf("%w: %s duration %v", ErrInvalidClip, c.ClipID, c.Duration)
	case c.Offset < 0 || math.IsNaN(c.Offset):
		return fmt.Errorf("%w: %s offset %v", ErrInvalidClip, c.ClipID, c.Offset)
	case math.IsNaN(c.StartTime) || math.IsInf(c.StartTime, 0):
		return fmt.Errorf("%w: %s start %v", ErrInvalidClip, c.ClipID, c.StartTime)
	case !c.Loop && c.Offset+c.Duration > c.Buffer.Duration()+clipTolerance:
		return fmt.Errorf("%w: %s plays %v-%v of a %.3fs buffer",
			ErrInvalidClip, c.ClipID, c.Offset, c.Offset+c.Duration, c.Buffer.Duration())
	}
	return nil
}

// End returns the project time the clip stops
func (c ScheduledClip) End() float64 {
	return c.StartTime + c.Duration
}

// LastClipEnd returns the latest End across clips, or 0 when there are none.
// Looping clips count their full Duration, not one pass of the buffer.
func LastClipEnd(clips []ScheduledClip) float64 {
	end := 0.0
	for _, c := range clips {
		end = math.Max(end, c.End())
	}
	return end
}

// TrackState is a track's controls and the bus carrying its audio
type TrackState struct {
	ID     string
	Bus    *graph.Bus
	Volume float64
	Pan    float64
	Mute   bool
	Solo   bool
}

// SourceInfo describes one source the scheduler started
type SourceInfo struct {
	TrackID  string
	ClipID   string
	When     float64 // output time playback begins
	Offset   float64
	Duration float64
}

// FindActiveClipAt returns the first clip sounding at projectTime
func FindActiveClipAt(clips []ScheduledClip, projectTime float64) (ScheduledClip, bool) {
	for _, c := range clips {
		if projectTime >= c.StartTime && projectTime < c.End() {
			return c, true
		}
	}
	return ScheduledClip{}, false
}

// ProjectTimeToClipOffset returns how far into a clip projectTime is
func ProjectTimeToClipOffset(projectTime, clipStart float64) float64 {
	return math.Max(0, projectTime-clipStart)
}

// ProjectToOutputTime maps project time onto the output clock
func ProjectToOutputTime(projectTime, playbackStart, outputStart float64) float64 {
	return outputStart + (projectTime - playbackStart)
}

// OutputToProjectTime maps output clock time back to project time
func OutputToProjectTime(outputTime, playbackStart, outputStart float64) float64 {
	return playbackStart + (outputTime - outputStart)
}
