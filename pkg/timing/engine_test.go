// ABOUTME: Tests for the time engine
// ABOUTME: Tests musical conversion, tempo maps, snapping, quantize and SMPTE
package timing

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	e := New(0, 0)
	if e.SampleRate() != DefaultSampleRate {
		t.Errorf("expected sample rate %d, got %d", DefaultSampleRate, e.SampleRate())
	}
	if e.BPM() != DefaultBPM {
		t.Errorf("expected bpm %v, got %v", DefaultBPM, e.BPM())
	}
	ts := e.TimeSignature()
	if ts.Numerator != 4 || ts.Denominator != 4 || ts.At != 0 {
		t.Errorf("expected 4/4 at 0, got %+v", ts)
	}
}

func TestSecondsToMusical(t *testing.T) {
	e := New(48000, 120)

	tests := []struct {
		seconds float64
		want    MusicalTime
	}{
		{0, MusicalTime{0, 0, 0}},
		{0.5, MusicalTime{0, 1, 0}},
		{0.125, MusicalTime{0, 0, 1}},
		{1.875, MusicalTime{0, 3, 3}},
		{2, MusicalTime{1, 0, 0}},
		{2.25, MusicalTime{1, 0, 2}},
		{9.9, MusicalTime{4, 3, 3}},
	}

	for _, tt := range tests {
		if got := e.SecondsToMusical(tt.seconds); got != tt.want {
			t.Errorf("SecondsToMusical(%v) = %+v, want %+v", tt.seconds, got, tt.want)
		}
	}
}

func TestMusicalToSeconds(t *testing.T) {
	e := New(48000, 120)

	tests := []struct {
		musical MusicalTime
		want    float64
	}{
		{MusicalTime{0, 0, 0}, 0},
		{MusicalTime{1, 2, 1}, 3.125},
		{MusicalTime{4, 0, 0}, 8},
	}

	for _, tt := range tests {
		if got := e.MusicalToSeconds(tt.musical); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("MusicalToSeconds(%+v) = %v, want %v", tt.musical, got, tt.want)
		}
	}
}

func TestMusicalRoundTripAtOddTempo(t *testing.T) {
	e := New(48000, 100)
	if err := e.SetTimeSignature(7, 8, 0); err != nil {
		t.Fatalf("SetTimeSignature failed: %v", err)
	}

	for bar := 0; bar < 20; bar++ {
		for beat := 0; beat < 7; beat++ {
			for sub := 0; sub < 4; sub++ {
				m := MusicalTime{bar, beat, sub}
				if got := e.SecondsToMusical(e.MusicalToSeconds(m)); got != m {
					t.Fatalf("round trip of %+v gave %+v", m, got)
				}
			}
		}
	}
}

func TestTempoMapIntegration(t *testing.T) {
	e := New(48000, 120)
	// 8 beats (2 bars) at 120, then 60 bpm from 4s
	if err := e.SetTempo(60, 4); err != nil {
		t.Fatalf("SetTempo failed: %v", err)
	}

	if got := e.SecondsToMusical(6); got != (MusicalTime{2, 2, 0}) {
		t.Errorf("expected 3:3.1 at 6s, got %+v", got)
	}
	if got := e.MusicalToSeconds(MusicalTime{2, 2, 0}); math.Abs(got-6) > 1e-9 {
		t.Errorf("expected 6s, got %v", got)
	}
	if got := e.MusicalToSeconds(MusicalTime{1, 0, 0}); math.Abs(got-2) > 1e-9 {
		t.Errorf("expected bar 2 at 2s, got %v", got)
	}
	if got := e.SnapToBar(6.3); math.Abs(got-4) > 1e-9 {
		t.Errorf("expected bar start 4s, got %v", got)
	}
}

func TestMultiTempoRoundTrip(t *testing.T) {
	e := New(48000, 128)
	if err := e.SetTempo(90, 7.5); err != nil {
		t.Fatalf("SetTempo failed: %v", err)
	}
	if err := e.SetTimeSignature(3, 4, 15); err != nil {
		t.Fatalf("SetTimeSignature failed: %v", err)
	}
	if err := e.SetTempo(174, 22.25); err != nil {
		t.Fatalf("SetTempo failed: %v", err)
	}

	for i := 0; i < 4000; i++ {
		sec := float64(i) * 0.0113
		m := e.SecondsToMusical(sec)
		back := e.MusicalToSeconds(m)
		if back > sec+1e-9 {
			t.Fatalf("musical position %+v of %vs starts later (%v)", m, sec, back)
		}
		if sec-back > e.SubdivisionDurationAt(back)+1e-9 {
			t.Fatalf("musical position %+v of %vs starts too early (%v)", m, sec, back)
		}
	}
}

func TestSnapToBarHasNoBeats(t *testing.T) {
	e := New(44100, 100)
	if err := e.SetTimeSignature(3, 4, 0); err != nil {
		t.Fatalf("SetTimeSignature failed: %v", err)
	}
	if err := e.SetTempo(133, 11); err != nil {
		t.Fatalf("SetTempo failed: %v", err)
	}

	for i := 0; i < 2000; i++ {
		sec := float64(i) * 0.037
		snapped := e.SnapToBar(sec)
		m := e.SecondsToMusical(snapped)
		if m.Beats != 0 || m.Subdivisions != 0 {
			t.Fatalf("SnapToBar(%v) = %v has musical %+v", sec, snapped, m)
		}
		if snapped > sec+1e-9 {
			t.Fatalf("SnapToBar(%v) = %v moved forward", sec, snapped)
		}
	}
}

func TestSnapToGrid(t *testing.T) {
	e := New(48000, 120)

	tests := []struct {
		grid Grid
		at   float64
		want float64
	}{
		{GridBar, 3.9, 2},
		{GridBeat, 3.9, 3.5},
		{GridSubdivision, 3.9, 3.875},
		{GridNone, 3.9, 3.9},
	}

	for _, tt := range tests {
		t.Run(tt.grid.String(), func(t *testing.T) {
			if got := e.SnapToGrid(tt.at, tt.grid); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	if e.BarStartTime(3.9) != e.SnapToBar(3.9) || e.BeatStartTime(3.9) != e.SnapToBeat(3.9) {
		t.Error("bar/beat start helpers disagree with snapping")
	}
}

func TestQuantizeOffIsIdentity(t *testing.T) {
	e := New(48000, 97)
	for _, sec := range []float64{0, 0.001, 1.2345, 17.77, -3, 1e6} {
		if got := e.Quantize(sec, QuantizeOff); got != sec {
			t.Errorf("Quantize(%v, off) = %v", sec, got)
		}
	}
}

func TestQuantize(t *testing.T) {
	e := New(48000, 120)

	tests := []struct {
		q    Quantize
		at   float64
		want float64
	}{
		{QuantizeQuarter, 0.4, 0},
		{QuantizeQuarter, 0.6, 0.5},
		{QuantizeEighth, 0.2, 0},
		{QuantizeEighth, 0.4, 0.25},
		{QuantizeSixteenth, 0.4, 0.375},
	}

	for _, tt := range tests {
		if got := e.Quantize(tt.at, tt.q); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Quantize(%v, %v) = %v, want %v", tt.at, tt.q, got, tt.want)
		}
	}
}

func TestSamples(t *testing.T) {
	e := New(48000, 120)

	if got := e.SecondsToSamples(1.5); got != 72000 {
		t.Errorf("expected 72000, got %d", got)
	}
	if got := e.SecondsToSamples(0.00001); got != 0 {
		t.Errorf("expected floor to 0, got %d", got)
	}
	if got := e.SamplesToSeconds(24000); got != 0.5 {
		t.Errorf("expected 0.5, got %v", got)
	}
}

func TestSecondsToSMPTE(t *testing.T) {
	tests := []struct {
		seconds float64
		fps     int
		want    string
	}{
		{0, 30, "00:00:00:00"},
		{3661.5, 30, "01:01:01:15"},
		{0.5, 24, "00:00:00:12"},
		{59.999, 0, "00:00:59:29"},
		{-5, 30, "00:00:00:00"},
	}

	for _, tt := range tests {
		if got := SecondsToSMPTE(tt.seconds, tt.fps); got != tt.want {
			t.Errorf("SecondsToSMPTE(%v, %d) = %q, want %q", tt.seconds, tt.fps, got, tt.want)
		}
	}
}

func TestSetTempoReplacesNearbyChange(t *testing.T) {
	e := New(48000, 120)
	if err := e.SetTempo(140, 10); err != nil {
		t.Fatalf("SetTempo failed: %v", err)
	}
	if err := e.SetTempo(150, 10.0005); err != nil {
		t.Fatalf("SetTempo failed: %v", err)
	}

	tempos := e.TempoMap()
	if len(tempos) != 2 {
		t.Fatalf("expected 2 tempo entries, got %+v", tempos)
	}
	if got := e.TempoAt(11).BPM; got != 150 {
		t.Errorf("expected 150 bpm, got %v", got)
	}
	if got := e.TempoAt(9).BPM; got != 120 {
		t.Errorf("expected 120 bpm before the change, got %v", got)
	}
}

func TestSetTempoAtZeroUpdatesBase(t *testing.T) {
	e := New(48000, 120)
	if err := e.SetTempo(90, 0); err != nil {
		t.Fatalf("SetTempo failed: %v", err)
	}
	if e.BPM() != 90 {
		t.Errorf("expected base 90, got %v", e.BPM())
	}

	// Within 1ms of zero still replaces the fallback entry
	if err := e.SetTempo(100, 0.0004); err != nil {
		t.Fatalf("SetTempo failed: %v", err)
	}
	tempos := e.TempoMap()
	if len(tempos) != 1 || tempos[0].At != 0 || tempos[0].BPM != 100 {
		t.Errorf("expected a single entry at 0 with 100 bpm, got %+v", tempos)
	}
}

func TestSetTempoInvalid(t *testing.T) {
	e := New(48000, 120)
	tests := []struct {
		bpm, at float64
	}{
		{0, 1},
		{-120, 1},
		{math.NaN(), 1},
		{120, -1},
	}
	for _, tt := range tests {
		if err := e.SetTempo(tt.bpm, tt.at); !errors.Is(err, ErrInvalidTempo) {
			t.Errorf("SetTempo(%v, %v): expected ErrInvalidTempo, got %v", tt.bpm, tt.at, err)
		}
	}
}

func TestSetTimeSignature(t *testing.T) {
	e := New(48000, 120)
	if err := e.SetTimeSignature(3, 4, 0); err != nil {
		t.Fatalf("SetTimeSignature failed: %v", err)
	}
	if got := e.BarDurationAt(0); got != 1.5 {
		t.Errorf("expected 1.5s bars in 3/4, got %v", got)
	}

	for _, sig := range [][2]int{{0, 4}, {3, 5}, {3, 0}, {-1, 4}} {
		if err := e.SetTimeSignature(sig[0], sig[1], 1); !errors.Is(err, ErrInvalidTimeSignature) {
			t.Errorf("%d/%d: expected ErrInvalidTimeSignature, got %v", sig[0], sig[1], err)
		}
	}
}

func TestDurations(t *testing.T) {
	e := New(48000, 120)
	if err := e.SetTempo(60, 10); err != nil {
		t.Fatalf("SetTempo failed: %v", err)
	}

	if got := e.BeatDurationAt(1); got != 0.5 {
		t.Errorf("expected 0.5, got %v", got)
	}
	if got := e.BarDurationAt(1); got != 2 {
		t.Errorf("expected 2, got %v", got)
	}
	if got := e.SubdivisionDurationAt(1); got != 0.125 {
		t.Errorf("expected 0.125, got %v", got)
	}
	if got := e.BeatDurationAt(12); got != 1 {
		t.Errorf("expected 1 after tempo change, got %v", got)
	}
}

func TestIsOnSameBeat(t *testing.T) {
	e := New(48000, 120)
	if !e.IsOnSameBeat(0.1, 0.4) {
		t.Error("expected 0.1 and 0.4 to share a beat")
	}
	if e.IsOnSameBeat(0.4, 0.6) {
		t.Error("expected 0.4 and 0.6 on different beats")
	}
}

func TestPosition(t *testing.T) {
	e := New(48000, 120)
	p := e.Position(2.25)

	if p.Samples != 108000 {
		t.Errorf("expected 108000 samples, got %d", p.Samples)
	}
	if p.Musical != (MusicalTime{1, 0, 2}) {
		t.Errorf("unexpected musical %+v", p.Musical)
	}
	if p.SMPTE != "00:00:02:07" {
		t.Errorf("unexpected SMPTE %q", p.SMPTE)
	}
	if e.FormatMusical(2.25) != "2:1.3" {
		t.Errorf("unexpected format %q", e.FormatMusical(2.25))
	}
}

func TestResetKeepsFallbacks(t *testing.T) {
	e := New(48000, 120)
	_ = e.SetTempo(90, 5)
	_ = e.SetTimeSignature(6, 8, 5)

	e.Reset()

	if len(e.TempoMap()) != 1 || len(e.TimeSignatureMap()) != 1 {
		t.Errorf("expected only fallback entries, got %+v %+v", e.TempoMap(), e.TimeSignatureMap())
	}
	if e.TempoAt(100).BPM != 120 {
		t.Errorf("expected base tempo after reset, got %v", e.TempoAt(100).BPM)
	}
}

func TestMapsAreCopies(t *testing.T) {
	e := New(48000, 120)
	tempos := e.TempoMap()
	tempos[0].BPM = 1
	if e.BPM() != 120 {
		t.Error("mutating the returned map changed the engine")
	}
}

func TestConcurrentAccess(t *testing.T) {
	e := New(48000, 120)
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = e.SetTempo(float64(100+j), float64(i*10+1))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				e.SecondsToMusical(float64(j) * 0.3)
				e.Quantize(float64(j)*0.1, QuantizeEighth)
			}
		}()
	}
	wg.Wait()
}
