// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the playback transport
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/444radio/dawcore/pkg/timing"
)

// TUI runs the transport view
type TUI struct {
	program  *tea.Program
	quitChan chan struct{}
}

// New creates a TUI over ctrl and master
func New(title string, ctrl Controller, master Master, engine *timing.Engine) *TUI {
	m := NewModel(title, ctrl, master, engine)
	return &TUI{
		program:  tea.NewProgram(m, tea.WithAltScreen()),
		quitChan: m.quitChan,
	}
}

// Run blocks until the user quits or Stop is called
func (t *TUI) Run() error {
	_, err := t.program.Run()
	return err
}

// Stop ends the program
func (t *TUI) Stop() {
	t.program.Quit()
}

// QuitChan signals when the user asks to quit
func (t *TUI) QuitChan() <-chan struct{} {
	return t.quitChan
}
