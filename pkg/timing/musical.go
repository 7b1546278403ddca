// ABOUTME: Musical time and position types
// ABOUTME: Parses and formats bar:beat.subdivision strings
package timing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SubdivisionsPerBeat is the sixteenth-note grid inside one beat
const SubdivisionsPerBeat = 4

// ErrInvalidMusicalTime is returned for unparseable bar:beat.sub strings
var ErrInvalidMusicalTime = errors.New("invalid musical time")

// MusicalTime is a zero-indexed position in bars, beats and sixteenths
type MusicalTime struct {
	Bars         int
	Beats        int
	Subdivisions int // 0-3
}

// String formats the position 1-indexed as bar:beat.subdivision
func (m MusicalTime) String() string {
	return fmt.Sprintf("%d:%d.%d", m.Bars+1, m.Beats+1, m.Subdivisions+1)
}

// ParseMusical parses a 1-indexed "bar", "bar:beat" or "bar:beat.sub" string
func ParseMusical(s string) (MusicalTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return MusicalTime{}, fmt.Errorf("%w: empty", ErrInvalidMusicalTime)
	}

	parts := []string{s, "1", "1"}
	if bar, rest, ok := strings.Cut(s, ":"); ok {
		parts[0] = bar
		if beat, sub, ok := strings.Cut(rest, "."); ok {
			parts[1], parts[2] = beat, sub
		} else {
			parts[1] = rest
		}
	}

	values := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 1 {
			return MusicalTime{}, fmt.Errorf("%w: %q", ErrInvalidMusicalTime, s)
		}
		values[i] = v - 1
	}
	if values[2] >= SubdivisionsPerBeat {
		return MusicalTime{}, fmt.Errorf("%w: subdivision %d out of range in %q", ErrInvalidMusicalTime, values[2]+1, s)
	}

	return MusicalTime{Bars: values[0], Beats: values[1], Subdivisions: values[2]}, nil
}

// Position is a time expressed in every unit the engine knows
type Position struct {
	Seconds float64
	Samples int64
	Musical MusicalTime
	SMPTE   string
}
