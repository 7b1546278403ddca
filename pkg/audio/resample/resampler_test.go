// ABOUTME: Tests for audio resampler
// ABOUTME: Tests linear interpolation resampling and time-stretch
package resample

import (
	"errors"
	"math"
	"testing"

	"github.com/444radio/dawcore/pkg/audio"
)

func TestNew(t *testing.T) {
	r := New(44100, 48000, 2)

	if r.inputRate != 44100 {
		t.Errorf("expected inputRate 44100, got %d", r.inputRate)
	}
	if r.outputRate != 48000 {
		t.Errorf("expected outputRate 48000, got %d", r.outputRate)
	}
	if r.channels != 2 {
		t.Errorf("expected channels 2, got %d", r.channels)
	}
}

func TestResampleUpsampling(t *testing.T) {
	r := New(44100, 48000, 2)

	input := make([]float32, 200)
	for i := range input {
		input[i] = float32(i) / 200
	}

	output := make([]float32, r.OutputSamplesNeeded(len(input)))
	n := r.Resample(input, output)

	expectedSize := int(float64(len(input)) * 48000 / 44100)
	if n < expectedSize-10 || n > expectedSize+10 {
		t.Errorf("expected ~%d samples, got %d", expectedSize, n)
	}
}

func TestResampleDownsampling(t *testing.T) {
	r := New(48000, 44100, 2)

	input := make([]float32, 200)
	for i := range input {
		input[i] = 0.5
	}

	output := make([]float32, r.OutputSamplesNeeded(len(input)))
	n := r.Resample(input, output)

	expectedSize := int(float64(len(input)) * 44100 / 48000)
	if n < expectedSize-10 || n > expectedSize+10 {
		t.Errorf("expected ~%d samples, got %d", expectedSize, n)
	}
	for i := 0; i < n; i++ {
		if output[i] != 0.5 {
			t.Fatalf("sample %d: constant input should stay constant, got %v", i, output[i])
		}
	}
}

func TestResampleEmptyInput(t *testing.T) {
	r := New(44100, 48000, 1)
	if n := r.Resample(nil, make([]float32, 10)); n != 0 {
		t.Errorf("expected 0 samples from empty input, got %d", n)
	}
}

func TestConvertSameRateIsIdentity(t *testing.T) {
	buf := audio.NewBuffer(audio.Format{SampleRate: 48000, Channels: 2}, 10)

	out, err := Convert(buf, 48000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != buf {
		t.Error("expected the same buffer back when rates match")
	}
}

func TestConvertChangesRate(t *testing.T) {
	buf := audio.NewBuffer(audio.Format{SampleRate: 24000, Channels: 1}, 24000)

	out, err := Convert(buf, 48000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Format.SampleRate != 48000 {
		t.Errorf("expected 48000Hz, got %d", out.Format.SampleRate)
	}
	if math.Abs(out.Duration()-1) > 0.001 {
		t.Errorf("expected ~1s duration, got %v", out.Duration())
	}
}

func TestConvertInvalidRate(t *testing.T) {
	buf := audio.NewBuffer(audio.Format{SampleRate: 48000, Channels: 2}, 10)
	if _, err := Convert(buf, 0); !errors.Is(err, ErrInvalidRate) {
		t.Errorf("expected ErrInvalidRate, got %v", err)
	}
}

func TestStretchLength(t *testing.T) {
	tests := []struct {
		name     string
		frames   int
		rate     float64
		expected int
	}{
		{"double speed halves", 100, 2, 50},
		{"half speed doubles", 100, 0.5, 200},
		{"unity keeps length", 100, 1, 100},
		{"floors fractional", 10, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Stretch(make([]float32, tt.frames*2), 2, tt.rate)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(out)/2 != tt.expected {
				t.Errorf("expected %d frames, got %d", tt.expected, len(out)/2)
			}
		})
	}
}

func TestStretchInterpolates(t *testing.T) {
	out, err := Stretch([]float32{0, 1, 2, 3}, 1, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []float32{0, 0.5, 1, 1.5, 2, 2.5, 3, 3}
	for i := range expected {
		if out[i] != expected[i] {
			t.Errorf("frame %d: expected %v, got %v", i, expected[i], out[i])
		}
	}
}

func TestStretchRejectsBadRate(t *testing.T) {
	for _, rate := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := Stretch([]float32{1}, 1, rate); !errors.Is(err, ErrInvalidRate) {
			t.Errorf("rate %v: expected ErrInvalidRate, got %v", rate, err)
		}
	}
}
