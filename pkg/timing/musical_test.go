// ABOUTME: Tests for musical time parsing and formatting
// ABOUTME: Tests bar:beat.sub strings and grid/quantize name parsing
package timing

import (
	"errors"
	"testing"
)

func TestParseMusical(t *testing.T) {
	tests := []struct {
		input   string
		want    MusicalTime
		wantErr bool
	}{
		{"5:1.1", MusicalTime{4, 0, 0}, false},
		{"2", MusicalTime{1, 0, 0}, false},
		{"3:2", MusicalTime{2, 1, 0}, false},
		{" 1:4.4 ", MusicalTime{0, 3, 3}, false},
		{"1:1.5", MusicalTime{}, true},
		{"0:1.1", MusicalTime{}, true},
		{"x", MusicalTime{}, true},
		{"", MusicalTime{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMusical(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMusicalTime) {
					t.Errorf("expected ErrInvalidMusicalTime, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestMusicalTimeString(t *testing.T) {
	m := MusicalTime{Bars: 4, Beats: 2, Subdivisions: 1}
	if m.String() != "5:3.2" {
		t.Errorf("expected 5:3.2, got %s", m.String())
	}

	parsed, err := ParseMusical(m.String())
	if err != nil || parsed != m {
		t.Errorf("expected round trip, got %+v (%v)", parsed, err)
	}
}

func TestParseQuantize(t *testing.T) {
	for _, q := range []Quantize{QuantizeOff, QuantizeQuarter, QuantizeEighth, QuantizeSixteenth} {
		got, err := ParseQuantize(q.String())
		if err != nil || got != q {
			t.Errorf("ParseQuantize(%q) = %v, %v", q.String(), got, err)
		}
	}
	if _, err := ParseQuantize("1/3"); !errors.Is(err, ErrUnknownGrid) {
		t.Errorf("expected ErrUnknownGrid, got %v", err)
	}
}

func TestParseGrid(t *testing.T) {
	for _, g := range []Grid{GridNone, GridBar, GridBeat, GridSubdivision} {
		got, err := ParseGrid(g.String())
		if err != nil || got != g {
			t.Errorf("ParseGrid(%q) = %v, %v", g.String(), got, err)
		}
	}
	if _, err := ParseGrid("measure"); !errors.Is(err, ErrUnknownGrid) {
		t.Errorf("expected ErrUnknownGrid, got %v", err)
	}
}
