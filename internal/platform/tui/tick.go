// Package tui provides the Bubble Tea front end: the play view that runs a
// program step by step, the example menu, the run history and the SSH
// server that serves them.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg is sent to refresh the play view.
type TickMsg time.Time

// tickCmd returns a command that sends a TickMsg tickRate times a second.
func tickCmd(tickRate int) tea.Cmd {
	interval := time.Second / time.Duration(max(1, tickRate))
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
