// ABOUTME: Tests for scheduled clip helpers
// ABOUTME: Tests clip validation and time conversion helpers
package scheduler

import (
	"errors"
	"math"
	"testing"
)

func TestScheduledClipValidate(t *testing.T) {
	buf := testBuffer(1)

	tests := []struct {
		name  string
		clip  ScheduledClip
		valid bool
	}{
		{"whole buffer", ScheduledClip{Buffer: buf, Duration: 1}, true},
		{"inner section", ScheduledClip{Buffer: buf, Offset: 0.25, Duration: 0.5}, true},
		{"no buffer", ScheduledClip{Duration: 1}, false},
		{"zero duration", ScheduledClip{Buffer: buf}, false},
		{"negative offset", ScheduledClip{Buffer: buf, Offset: -0.1, Duration: 0.5}, false},
		{"past end", ScheduledClip{Buffer: buf, Offset: 0.6, Duration: 0.5}, false},
		{"looped past end", ScheduledClip{Buffer: buf, Offset: 0.6, Duration: 4, Loop: true}, true},
		{"nan start", ScheduledClip{Buffer: buf, Duration: 1, StartTime: math.NaN()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.clip.Validate()
			if tt.valid && err != nil {
				t.Errorf("expected valid clip, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidClip) {
				t.Errorf("expected ErrInvalidClip, got %v", err)
			}
		})
	}
}

func TestFindActiveClipAt(t *testing.T) {
	clips := []ScheduledClip{
		{ClipID: "a", StartTime: 0, Duration: 1},
		{ClipID: "b", StartTime: 2, Duration: 1},
	}

	tests := []struct {
		time     float64
		expected string
	}{
		{0, "a"},
		{0.5, "a"},
		{1, ""},
		{2.5, "b"},
		{3, ""},
	}

	for _, tt := range tests {
		clip, ok := FindActiveClipAt(clips, tt.time)
		if tt.expected == "" {
			if ok {
				t.Errorf("at %v: expected no clip, got %s", tt.time, clip.ClipID)
			}
			continue
		}
		if !ok || clip.ClipID != tt.expected {
			t.Errorf("at %v: expected %s, got %s", tt.time, tt.expected, clip.ClipID)
		}
	}
}

func TestTimeConversions(t *testing.T) {
	if got := ProjectTimeToClipOffset(1, 3); got != 0 {
		t.Errorf("expected 0 before clip start, got %v", got)
	}
	if got := ProjectTimeToClipOffset(4.5, 3); got != 1.5 {
		t.Errorf("expected 1.5, got %v", got)
	}
	if got := ProjectToOutputTime(12, 10, 2); got != 4 {
		t.Errorf("expected output time 4, got %v", got)
	}
	if got := OutputToProjectTime(4, 10, 2); got != 12 {
		t.Errorf("expected project time 12, got %v", got)
	}
}

func TestLastClipEnd(t *testing.T) {
	tests := []struct {
		name  string
		clips []ScheduledClip
		want  float64
	}{
		{"no clips", nil, 0},
		{"single clip", []ScheduledClip{{StartTime: 1, Duration: 2}}, 3},
		{"loop runs past its buffer", []ScheduledClip{{Buffer: testBuffer(2), StartTime: 1, Duration: 8, Loop: true}}, 9},
		{"unsorted", []ScheduledClip{{StartTime: 5, Duration: 1}, {StartTime: 0, Duration: 10}}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LastClipEnd(tt.clips); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
