// ABOUTME: Bubbletea model for the realtime status display
// ABOUTME: Shows the current song and its sequencer position
package ui

import (
	"fmt"
	"path/filepath"

	"github.com/adplay/adplay-go/internal/player"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// Model represents the TUI state
type Model struct {
	// Song
	session uuid.UUID
	path    string
	typ     string
	title   string
	author  string

	// Playback
	status player.Status
	format string
	output string

	// Dimensions
	width  int
	height int

	quit func()
}

// FileMsg announces the song that starts playing
type FileMsg struct {
	Session uuid.UUID
	Path    string
	Type    string
	Title   string
	Author  string
}

// StatusMsg carries a scheduler status snapshot
type StatusMsg struct {
	Status player.Status
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case FileMsg:
		m.session = msg.Session
		m.path = msg.Path
		m.typ = msg.Type
		m.title = msg.Title
		m.author = msg.Author
		m.status = player.Status{}
	case StatusMsg:
		// a late status from the previous file
		if msg.Status.Session != m.session {
			break
		}
		m.status = msg.Status
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderSong()
	s += m.renderPosition()
	s += m.renderHelp()
	return s
}

// renderHeader renders the output setup
func (m Model) renderHeader() string {
	return fmt.Sprintf(`┌─ AdPlay ─────────────────────────────────────────────┐
│ Output: %-44s │
├──────────────────────────────────────────────────────┤
`, truncate(fmt.Sprintf("%s %s", m.output, m.format), 44))
}

// renderSong renders file and song metadata
func (m Model) renderSong() string {
	if m.path == "" {
		return "│ Nothing playing                                      │\n"
	}

	s := fmt.Sprintf("│ File:   %-44s │\n", truncate(filepath.Base(m.path), 44))
	s += fmt.Sprintf("│ Type:   %-44s │\n", truncate(m.typ, 44))
	s += fmt.Sprintf("│ Title:  %-44s │\n", truncate(m.title, 44))
	s += fmt.Sprintf("│ Author: %-44s │\n", truncate(m.author, 44))
	return s
}

// renderPosition renders the sequencer position
func (m Model) renderPosition() string {
	st := m.status
	pos := st.Position
	return fmt.Sprintf("├──────────────────────────────────────────────────────┤\n"+
		"│ Subsong: %-43s │\n"+
		"│ Order:   %-43s │\n"+
		"│ Row: %-4d Speed: %-5d Timer: %-22s │\n"+
		"│ Loops:   %-43d │\n",
		fmt.Sprintf("%d/%d", st.Subsong, max(st.Subsongs-1, 0)),
		fmt.Sprintf("%d/%d  Pattern: %d/%d", pos.Order, pos.Orders, pos.Pattern, pos.Patterns),
		pos.Row, pos.Speed, fmt.Sprintf("%.2fHz", st.Refresh),
		st.Loops)
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ q:Quit                                               │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.quit != nil {
			m.quit()
		}
		return m, tea.Quit
	}
	return m, nil
}

func truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return string(r[:length-3]) + "..."
}
