// ABOUTME: Tests for the transport TUI model
// ABOUTME: Tests key handling against fake controller and master, and view rendering
package ui

import (
	"errors"
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/444radio/dawcore/pkg/scheduler"
	"github.com/444radio/dawcore/pkg/timing"
)

type fakeController struct {
	tracks   []scheduler.TrackState
	position float64
	running  bool
	calls    []string
	err      error
}

func (f *fakeController) find(id string) *scheduler.TrackState {
	for i := range f.tracks {
		if f.tracks[i].ID == id {
			return &f.tracks[i]
		}
	}
	return nil
}

func (f *fakeController) SetTrackVolume(id string, volume float64, immediate bool) error {
	f.calls = append(f.calls, "volume")
	if f.err != nil {
		return f.err
	}
	f.find(id).Volume = volume
	return nil
}

func (f *fakeController) SetTrackMute(id string, mute bool) error {
	f.calls = append(f.calls, "mute")
	f.find(id).Mute = mute
	return nil
}

func (f *fakeController) SetTrackSolo(id string, solo bool, trackIDs []string) error {
	f.calls = append(f.calls, "solo")
	f.find(id).Solo = solo
	return nil
}

func (f *fakeController) SetTrackPan(id string, pan float64) error {
	f.calls = append(f.calls, "pan")
	f.find(id).Pan = pan
	return nil
}

func (f *fakeController) Tracks() []scheduler.TrackState {
	return append([]scheduler.TrackState(nil), f.tracks...)
}

func (f *fakeController) ProjectTime() (float64, bool) { return f.position, f.running }
func (f *fakeController) Stats() scheduler.Stats       { return scheduler.Stats{Scheduled: 3, Late: 1} }

func newFake() *fakeController {
	return &fakeController{
		tracks: []scheduler.TrackState{
			{ID: "drums", Volume: 0.5},
			{ID: "bass", Volume: 1},
		},
		position: 2,
		running:  true,
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, msg tea.KeyMsg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestNewModelSnapshot(t *testing.T) {
	m := NewModel("demo", newFake(), nil, nil)

	if len(m.tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(m.tracks))
	}
	if !m.running || m.position != 2 {
		t.Errorf("expected running at 2, got %v at %v", m.running, m.position)
	}
	if m.stats.Scheduled != 3 {
		t.Errorf("expected 3 scheduled, got %d", m.stats.Scheduled)
	}
}

func TestSelectionStaysInRange(t *testing.T) {
	m := NewModel("demo", newFake(), nil, nil)

	m = press(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.selected != 0 {
		t.Errorf("expected selection 0, got %d", m.selected)
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.selected != 1 {
		t.Errorf("expected selection 1, got %d", m.selected)
	}
}

func TestKeysDriveSelectedTrack(t *testing.T) {
	tests := []struct {
		name   string
		key    tea.KeyMsg
		call   string
		verify func(scheduler.TrackState) bool
	}{
		{"volume up", tea.KeyMsg{Type: tea.KeyRight}, "volume", func(s scheduler.TrackState) bool { return s.Volume > 0.5 }},
		{"volume down", tea.KeyMsg{Type: tea.KeyLeft}, "volume", func(s scheduler.TrackState) bool { return s.Volume < 0.5 }},
		{"mute", runes("m"), "mute", func(s scheduler.TrackState) bool { return s.Mute }},
		{"solo", runes("s"), "solo", func(s scheduler.TrackState) bool { return s.Solo }},
		{"pan left", runes("["), "pan", func(s scheduler.TrackState) bool { return s.Pan < 0 }},
		{"pan right", runes("]"), "pan", func(s scheduler.TrackState) bool { return s.Pan > 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := newFake()
			m := press(NewModel("demo", ctrl, nil, nil), tt.key)

			if len(ctrl.calls) != 1 || ctrl.calls[0] != tt.call {
				t.Fatalf("expected one %s call, got %v", tt.call, ctrl.calls)
			}
			if !tt.verify(m.tracks[0]) {
				t.Errorf("expected snapshot to reflect %s, got %+v", tt.name, m.tracks[0])
			}
		})
	}
}

func TestControlErrorShown(t *testing.T) {
	ctrl := newFake()
	ctrl.err = errors.New("track not found")

	m := press(NewModel("demo", ctrl, nil, nil), tea.KeyMsg{Type: tea.KeyRight})

	if m.lastErr != "track not found" {
		t.Errorf("expected error to be kept, got %q", m.lastErr)
	}
	if !strings.Contains(m.View(), "track not found") {
		t.Error("expected error in view")
	}
}

func TestKeysWithoutTracksIgnored(t *testing.T) {
	ctrl := &fakeController{}
	m := press(NewModel("demo", ctrl, nil, nil), runes("m"))

	if len(ctrl.calls) != 0 {
		t.Errorf("expected no calls, got %v", ctrl.calls)
	}
	if !strings.Contains(m.View(), "No tracks") {
		t.Error("expected empty track list message")
	}
}

func TestQuitSignals(t *testing.T) {
	m := NewModel("demo", newFake(), nil, nil)

	next, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !next.(Model).quitting {
		t.Error("expected quitting state")
	}

	select {
	case <-m.quitChan:
	default:
		t.Error("expected quit signal")
	}
}

func TestViewShowsTransport(t *testing.T) {
	ctrl := newFake()
	ctrl.tracks[1].Mute = true
	m := NewModel("demo", ctrl, nil, timing.New(48000, 120))

	view := m.View()
	for _, want := range []string{"demo", "drums", "bass", "2.00s", "00:00:02:00", "3 scheduled"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}

	ctrl.running = false
	m.refresh()
	if !strings.Contains(m.View(), "stopped") {
		t.Error("expected stopped position")
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		value    float64
		expected string
	}{
		{0, "░░░░"},
		{0.5, "██░░"},
		{1, "████"},
		{2, "████"},
	}

	for _, tt := range tests {
		if got := renderBar(tt.value, 4); got != tt.expected {
			t.Errorf("expected %q for %v, got %q", tt.expected, tt.value, got)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("drums", 12); got != "drums" {
		t.Errorf("expected drums, got %s", got)
	}
	if got := truncate("a-very-long-track-name", 12); got != "a-very-lo..." {
		t.Errorf("expected a-very-lo..., got %s", got)
	}
}

type fakeMaster struct {
	volume float64
	muted  bool
}

func (f *fakeMaster) SetVolume(volume float64) { f.volume = min(max(volume, 0), 1) }
func (f *fakeMaster) SetMuted(muted bool)      { f.muted = muted }
func (f *fakeMaster) Volume() float64          { return f.volume }
func (f *fakeMaster) IsMuted() bool            { return f.muted }

func TestKeysDriveMaster(t *testing.T) {
	tests := []struct {
		name   string
		key    tea.KeyMsg
		volume float64
		muted  bool
	}{
		{"plus raises", runes("+"), 0.55, false},
		{"equals raises", runes("="), 0.55, false},
		{"minus lowers", runes("-"), 0.45, false},
		{"x mutes", runes("x"), 0.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := newFake()
			master := &fakeMaster{volume: 0.5}
			m := press(NewModel("demo", ctrl, master, nil), tt.key)

			if math.Abs(master.volume-tt.volume) > 1e-9 || master.muted != tt.muted {
				t.Errorf("expected master %v muted=%v, got %v muted=%v", tt.volume, tt.muted, master.volume, master.muted)
			}
			if m.volume != master.volume || m.muted != master.muted {
				t.Errorf("expected snapshot to follow master, got %v muted=%v", m.volume, m.muted)
			}
			if len(ctrl.calls) != 0 {
				t.Errorf("expected no track calls, got %v", ctrl.calls)
			}
		})
	}
}

func TestMasterKeysWithoutMaster(t *testing.T) {
	ctrl := newFake()
	m := press(NewModel("demo", ctrl, nil, nil), runes("+"))

	if len(ctrl.calls) != 0 || m.tracks[0].Volume != 0.5 {
		t.Errorf("expected + to do nothing without a master, got calls %v", ctrl.calls)
	}
	if strings.Contains(m.View(), "Master") {
		t.Error("expected no master row without a master")
	}
}

func TestViewShowsMaster(t *testing.T) {
	master := &fakeMaster{volume: 0.8}
	m := NewModel("demo", newFake(), master, nil)
	if view := m.View(); !strings.Contains(view, "Master") || !strings.Contains(view, "80%") {
		t.Errorf("expected master row at 80%%, got %q", view)
	}

	m = press(m, runes("x"))
	if !strings.Contains(m.View(), "MUTED") {
		t.Error("expected MUTED after x")
	}
}
