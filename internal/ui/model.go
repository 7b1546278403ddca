// ABOUTME: Bubbletea model for the transport TUI
// ABOUTME: Shows the playhead and track mixer, and maps keys to track controls
package ui

import (
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/444radio/dawcore/pkg/scheduler"
	"github.com/444radio/dawcore/pkg/timing"
)

const (
	volumeStep = 0.05
	panStep    = 0.1
	refresh    = 100 * time.Millisecond
	barWidth   = 10
)

// Controller is the playback state the TUI reads and drives;
// *scheduler.Scheduler satisfies it
type Controller interface {
	SetTrackVolume(id string, volume float64, immediate bool) error
	SetTrackMute(id string, mute bool) error
	SetTrackSolo(id string, solo bool, trackIDs []string) error
	SetTrackPan(id string, pan float64) error
	Tracks() []scheduler.TrackState
	ProjectTime() (float64, bool)
	Stats() scheduler.Stats
}

// Master is the output stage volume; *output.Oto satisfies it
type Master interface {
	SetVolume(volume float64)
	SetMuted(muted bool)
	Volume() float64
	IsMuted() bool
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	flagStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
)

// Model represents the TUI state
type Model struct {
	title  string
	ctrl   Controller
	master Master
	engine *timing.Engine

	// Snapshot refreshed every tick
	tracks   []scheduler.TrackState
	position float64
	running  bool
	stats    scheduler.Stats
	volume   float64
	muted    bool

	selected int
	lastErr  string
	quitting bool
	quitChan chan struct{}
}

type tickMsg time.Time

// NewModel creates a model over ctrl; engine formats the playhead.
// master may be nil, which hides the master controls.
func NewModel(title string, ctrl Controller, master Master, engine *timing.Engine) Model {
	m := Model{
		title:    title,
		ctrl:     ctrl,
		master:   master,
		engine:   engine,
		quitChan: make(chan struct{}, 1),
	}
	m.refresh()
	return m
}

// Init starts the refresh ticker
func (m Model) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tickMsg:
		m.refresh()
		return m, tickEvery()
	}
	return m, nil
}

// refresh copies the controller state into the model
func (m *Model) refresh() {
	if m.master != nil {
		m.volume = m.master.Volume()
		m.muted = m.master.IsMuted()
	}
	if m.ctrl == nil {
		return
	}
	m.tracks = m.ctrl.Tracks()
	m.position, m.running = m.ctrl.ProjectTime()
	m.stats = m.ctrl.Stats()
	if m.selected >= len(m.tracks) {
		m.selected = max(0, len(m.tracks)-1)
	}
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		select {
		case m.quitChan <- struct{}{}:
		default:
		}
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil
	case "down", "j":
		if m.selected < len(m.tracks)-1 {
			m.selected++
		}
		return m, nil
	case "+", "=", "-", "x":
		if m.master == nil {
			return m, nil
		}
		switch msg.String() {
		case "x":
			m.master.SetMuted(!m.master.IsMuted())
		case "-":
			m.master.SetVolume(m.master.Volume() - volumeStep)
		default:
			m.master.SetVolume(m.master.Volume() + volumeStep)
		}
		m.refresh()
		return m, nil
	}

	track, ok := m.selectedTrack()
	if !ok {
		return m, nil
	}

	var err error
	switch msg.String() {
	case "right":
		err = m.ctrl.SetTrackVolume(track.ID, track.Volume+volumeStep, false)
	case "left":
		err = m.ctrl.SetTrackVolume(track.ID, track.Volume-volumeStep, false)
	case "m":
		err = m.ctrl.SetTrackMute(track.ID, !track.Mute)
	case "s":
		err = m.ctrl.SetTrackSolo(track.ID, !track.Solo, nil)
	case "[":
		err = m.ctrl.SetTrackPan(track.ID, track.Pan-panStep)
	case "]":
		err = m.ctrl.SetTrackPan(track.ID, track.Pan+panStep)
	default:
		return m, nil
	}

	if err != nil {
		log.Printf("Track %s control failed: %v", track.ID, err)
		m.lastErr = err.Error()
	} else {
		m.lastErr = ""
	}
	m.refresh()
	return m, nil
}

func (m Model) selectedTrack() (scheduler.TrackState, bool) {
	if m.selected < 0 || m.selected >= len(m.tracks) {
		return scheduler.TrackState{}, false
	}
	return m.tracks[m.selected], true
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Stopping playback...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Position: "))
	b.WriteString(valueStyle.Render(m.renderPosition()))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Clips:    "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d scheduled, %d late, %d dropped",
		m.stats.Scheduled, m.stats.Late, m.stats.Dropped)))
	b.WriteString("\n")

	if m.master != nil {
		b.WriteString(headerStyle.Render("Master:   "))
		b.WriteString(m.renderMaster())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(headerStyle.Render(fmt.Sprintf("Tracks (%d)", len(m.tracks))))
	b.WriteString("\n")
	if len(m.tracks) == 0 {
		b.WriteString(valueStyle.Render("  No tracks"))
		b.WriteString("\n")
	}
	for i, t := range m.tracks {
		b.WriteString(m.renderTrack(t, i == m.selected))
		b.WriteString("\n")
	}

	if m.lastErr != "" {
		b.WriteString("\n")
		b.WriteString(flagStyle.Render(m.lastErr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	help := "↑/↓:Track  ←/→:Volume  [/]:Pan  m:Mute  s:Solo  q:Quit"
	if m.master != nil {
		help = "↑/↓:Track  ←/→:Volume  [/]:Pan  m:Mute  s:Solo  +/-:Master  x:Master mute  q:Quit"
	}
	b.WriteString(helpStyle.Render(help))
	return b.String()
}

func (m Model) renderMaster() string {
	line := valueStyle.Render(fmt.Sprintf("[%s] %3.0f%%", renderBar(m.volume, barWidth), m.volume*100))
	if m.muted {
		line += " " + flagStyle.Render("MUTED")
	}
	return line
}

func (m Model) renderPosition() string {
	if !m.running {
		return "stopped"
	}
	if m.engine == nil {
		return fmt.Sprintf("%.2fs", m.position)
	}
	return fmt.Sprintf("%s  %s  %.2fs",
		m.engine.FormatMusical(m.position), m.engine.SecondsToSMPTE(m.position, 30), m.position)
}

func (m Model) renderTrack(t scheduler.TrackState, selected bool) string {
	cursor := "  "
	name := valueStyle.Render(fmt.Sprintf("%-12s", truncate(t.ID, 12)))
	if selected {
		cursor = "> "
		name = selectedStyle.Render(fmt.Sprintf("%-12s", truncate(t.ID, 12)))
	}

	flags := "   "
	if t.Mute || t.Solo {
		f := []byte("   ")
		if t.Mute {
			f[0] = 'M'
		}
		if t.Solo {
			f[2] = 'S'
		}
		flags = flagStyle.Render(string(f))
	}

	return fmt.Sprintf("%s%s [%s] %3.0f%%  pan %+.1f  %s",
		cursor, name, renderBar(t.Volume, barWidth), t.Volume*100, t.Pan, flags)
}

// Utility functions
func renderBar(value float64, width int) string {
	filled := int(value*float64(width) + 0.5)
	return strings.Repeat("█", min(max(filled, 0), width)) + strings.Repeat("░", width-min(max(filled, 0), width))
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
