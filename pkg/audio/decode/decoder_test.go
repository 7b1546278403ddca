// ABOUTME: Tests for decoder lookup and WAV decoding
// ABOUTME: Round-trips WAV files written by the encode package
package decode

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/444radio/dawcore/pkg/audio"
	"github.com/444radio/dawcore/pkg/audio/encode"
)

func TestForPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Decoder
		wantErr bool
	}{
		{"song.mp3", MP3Decoder{}, false},
		{"SONG.MP3", MP3Decoder{}, false},
		{"drums.flac", FLACDecoder{}, false},
		{"vox.wav", WAVDecoder{}, false},
		{"vox.wave", WAVDecoder{}, false},
		{"clip.ogg", nil, true},
		{"noext", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ForPath(tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %T, got %T", tt.want, got)
			}
		})
	}
}

func TestWAVDecodeRoundTrip(t *testing.T) {
	samples := []float32{0, 0, 0.5, -0.5, -1, 1}
	data, err := encode.Float32ToWAV(samples, 44100)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	buf, err := WAVDecoder{}.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if buf.Format != (audio.Format{SampleRate: 44100, Channels: 2}) {
		t.Errorf("unexpected format %+v", buf.Format)
	}
	if len(buf.Samples) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(buf.Samples))
	}
	for i, want := range samples {
		got := buf.Samples[i]
		if diff := got - want; diff > 0.0001 || diff < -0.0001 {
			t.Errorf("sample %d: expected ~%v, got %v", i, want, got)
		}
	}
}

func TestWAVDecodeNonSeekable(t *testing.T) {
	data, err := encode.Float32ToWAV([]float32{0.25, 0.25}, 48000)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	buf, err := WAVDecoder{}.Decode(bytes.NewBuffer(data))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if buf.Frames() != 1 {
		t.Errorf("expected 1 frame, got %d", buf.Frames())
	}
}

func TestWAVDecodeInvalid(t *testing.T) {
	if _, err := (WAVDecoder{}).Decode(bytes.NewReader([]byte("nope"))); err == nil {
		t.Fatal("expected error for invalid wav, got nil")
	}
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")

	data, err := encode.Float32ToWAV(make([]float32, 96), 48000)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	buf, err := File(path)
	if err != nil {
		t.Fatalf("File() failed: %v", err)
	}
	if buf.Frames() != 48 {
		t.Errorf("expected 48 frames, got %d", buf.Frames())
	}

	if _, err := File(filepath.Join(dir, "missing.wav")); err == nil {
		t.Error("expected error for missing file")
	}
}
