// ABOUTME: Tests for the project file model
// ABOUTME: Tests parsing defaults, validation, paths, saving and the time engine
package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

const demoProject = `{
  "name": "demo",
  "bpm": 90,
  "timeSignature": {"numerator": 3, "denominator": 4},
  "tempoChanges": [{"bpm": 140, "at": 8}],
  "tracks": [
    {"id": "drums", "clips": [
      {"id": "k1", "source": "kick.wav", "startTime": 0},
      {"source": "kick.wav", "startTime": 2, "region": {"start": 0, "end": 0.5}}
    ]},
    {"id": "bass", "volume": 0.5, "pan": -0.25, "mute": true, "clips": [
      {"id": "b1", "source": "/abs/bass.flac", "startTime": 1, "offset": 0.5, "duration": 2}
    ]}
  ]
}`

func TestParseDefaults(t *testing.T) {
	p, err := Parse([]byte(demoProject))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	drums := p.Tracks[0]
	if drums.Volume != 1 {
		t.Errorf("expected absent volume to default to 1, got %v", drums.Volume)
	}
	if _, err := uuid.Parse(drums.Clips[1].ID); err != nil {
		t.Errorf("expected generated clip id, got %q", drums.Clips[1].ID)
	}
	if r := drums.Clips[1].Region; r == nil || r.Gain != 1 || r.TimeStretch != 1 {
		t.Errorf("expected region with unity defaults, got %+v", r)
	}

	bass, ok := p.TrackByID("bass")
	if !ok {
		t.Fatal("expected bass track")
	}
	if bass.Volume != 0.5 || bass.Pan != -0.25 || !bass.Mute {
		t.Errorf("unexpected bass track %+v", bass)
	}
}

func TestParseRejectsInvalidProjects(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"duplicate track", `{"tracks":[{"id":"a","clips":[]},{"id":"a","clips":[]}]}`},
		{"track without id", `{"tracks":[{"clips":[]}]}`},
		{"loud track", `{"tracks":[{"id":"a","volume":2,"clips":[]}]}`},
		{"clip without source", `{"tracks":[{"id":"a","clips":[{"startTime":1}]}]}`},
		{"negative start", `{"tracks":[{"id":"a","clips":[{"source":"x.wav","startTime":-1}]}]}`},
		{"bad region", `{"tracks":[{"id":"a","clips":[{"source":"x.wav","region":{"start":2,"end":1}}]}]}`},
		{"negative bpm", `{"bpm":-5,"tracks":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.json)); !errors.Is(err, ErrInvalidProject) {
				t.Errorf("expected ErrInvalidProject, got %v", err)
			}
		})
	}

	if _, err := Parse([]byte(`{"tracks":`)); err == nil {
		t.Error("expected malformed JSON to fail")
	}
}

func TestLoadResolvesSourcePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "song.json")
	if err := os.WriteFile(path, []byte(demoProject), 0o644); err != nil {
		t.Fatalf("failed to write project: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	tests := []struct {
		source   string
		expected string
	}{
		{"kick.wav", filepath.Join(dir, "kick.wav")},
		{"/abs/bass.flac", "/abs/bass.flac"},
		{"https://cdn.example.com/a.mp3", "https://cdn.example.com/a.mp3"},
	}

	for _, tt := range tests {
		if got := p.SourcePath(tt.source); got != tt.expected {
			t.Errorf("expected %s, got %s", tt.expected, got)
		}
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveAndReload(t *testing.T) {
	p, err := Parse([]byte(demoProject))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "saved.json")
	if err := p.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Tracks[0].Clips[1].ID != p.Tracks[0].Clips[1].ID {
		t.Error("expected generated clip id to be saved")
	}
	if reloaded.Tracks[1].Volume != 0.5 {
		t.Errorf("expected volume 0.5, got %v", reloaded.Tracks[1].Volume)
	}
}

func TestSourcesAreDistinct(t *testing.T) {
	p, err := Parse([]byte(demoProject))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	sources := p.Sources()
	if len(sources) != 2 || sources[0] != "kick.wav" || sources[1] != "/abs/bass.flac" {
		t.Errorf("unexpected sources %v", sources)
	}
}

func TestEngine(t *testing.T) {
	p, err := Parse([]byte(demoProject))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	e, err := p.Engine(44100)
	if err != nil {
		t.Fatalf("engine failed: %v", err)
	}
	if e.SampleRate() != 44100 {
		t.Errorf("expected 44100, got %d", e.SampleRate())
	}
	if got := e.TempoAt(0).BPM; got != 90 {
		t.Errorf("expected 90 bpm, got %v", got)
	}
	if got := e.TempoAt(10).BPM; got != 140 {
		t.Errorf("expected 140 bpm after the change, got %v", got)
	}
	if got := e.TimeSignatureAt(0).Numerator; got != 3 {
		t.Errorf("expected 3/4, got %d", got)
	}

	p.TimeSignature = &Meter{Numerator: 3, Denominator: 5}
	if _, err := p.Engine(44100); err == nil {
		t.Error("expected error for 3/5")
	}
}
