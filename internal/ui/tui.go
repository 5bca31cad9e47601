// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for the realtime status display
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// NewModel creates a new TUI model. quit is called when the user asks to
// stop playback.
func NewModel(output, format string, quit func()) Model {
	return Model{
		output: output,
		format: format,
		quit:   quit,
	}
}

// Run creates the TUI program; the caller starts it
func Run(model Model, opts ...tea.ProgramOption) *tea.Program {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	return tea.NewProgram(model, opts...)
}
