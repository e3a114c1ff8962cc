package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-karol/internal/storage"
)

// History layout constants
const (
	minWidthForSidebar = 80
	sidebarWidth       = 20
	maxRuns            = 100
)

// HistoryKeyMap defines the key bindings for the run history.
type HistoryKeyMap struct {
	Up          key.Binding
	Down        key.Binding
	NextProgram key.Binding
	PrevProgram key.Binding
	Back        key.Binding
	Quit        key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k HistoryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextProgram, k.PrevProgram, k.Back}
}

// FullHelp returns key bindings for the full help view.
func (k HistoryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextProgram, k.PrevProgram},
		{k.Back, k.Quit},
	}
}

// DefaultHistoryKeyMap returns default key bindings.
func DefaultHistoryKeyMap() HistoryKeyMap {
	return HistoryKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		NextProgram: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next program"),
		),
		PrevProgram: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("S-tab", "prev program"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc/b", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// HistoryModel is the Bubble Tea model for the run history screen.
type HistoryModel struct {
	programs    []string
	cursor      int
	store       *storage.Store
	stats       map[string]*storage.ProgramStats
	runs        []storage.RunRecord
	table       table.Model
	help        help.Model
	keys        HistoryKeyMap
	width       int
	height      int
	quitting    bool
	goingBack   bool
	showSidebar bool
}

// NewHistoryModel creates a history view over every program with runs.
func NewHistoryModel(store *storage.Store, width, height int) HistoryModel {
	m := HistoryModel{
		store:       store,
		keys:        DefaultHistoryKeyMap(),
		help:        help.New(),
		width:       width,
		height:      height,
		showSidebar: width >= minWidthForSidebar,
	}
	m.help.Width = width

	if store != nil {
		if stats, err := store.GetAllProgramStats(); err == nil {
			m.stats = stats
		}
	}
	for name := range m.stats {
		m.programs = append(m.programs, name)
	}
	sort.Strings(m.programs)

	m.table = m.createTable()
	if len(m.programs) > 0 {
		m.loadRuns(m.programs[0])
	}
	return m
}

// createTable creates a new table sized for the current width.
func (m *HistoryModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "#", Width: 5},
		{Title: "Outcome", Width: 9},
		{Title: "Steps", Width: 7},
		{Title: "Time", Width: 8},
		{Title: "Date", Width: 13},
		{Title: "Error", Width: 20},
	}

	tableWidth := m.width - 4
	if m.showSidebar {
		tableWidth -= sidebarWidth + 3
	}
	used := 5 + 9 + 7 + 8 + 13 + 12 // columns plus cell padding
	columns[5].Width = max(10, tableWidth-used)

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(3, m.height-10)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// loadRuns loads the recent runs of program.
func (m *HistoryModel) loadRuns(program string) {
	m.runs = nil
	if m.store != nil {
		if runs, err := m.store.RecentRuns(program, maxRuns); err == nil {
			m.runs = runs
		}
	}
	m.updateTableRows()
}

func (m *HistoryModel) updateTableRows() {
	rows := make([]table.Row, len(m.runs))
	for i, r := range m.runs {
		rows[i] = table.Row{
			fmt.Sprintf("%d", r.ID),
			string(r.Outcome),
			fmt.Sprintf("%d", r.Steps),
			r.Duration.Truncate(100 * time.Millisecond).String(),
			r.CreatedAt.Format("Jan 02 15:04"),
			r.Error,
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// Init initializes the history model.
func (m HistoryModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the history screen.
func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Back):
			m.goingBack = true
			return m, nil

		case key.Matches(msg, m.keys.NextProgram):
			if len(m.programs) > 0 {
				m.cursor = (m.cursor + 1) % len(m.programs)
				m.loadRuns(m.programs[m.cursor])
			}
			return m, nil

		case key.Matches(msg, m.keys.PrevProgram):
			if len(m.programs) > 0 {
				m.cursor = (m.cursor + len(m.programs) - 1) % len(m.programs)
				m.loadRuns(m.programs[m.cursor])
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.showSidebar = m.width >= minWidthForSidebar
		m.table = m.createTable()
		m.updateTableRows()
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the history.
func (m HistoryModel) View() string {
	if m.quitting || m.goingBack {
		return ""
	}

	var b strings.Builder

	title := "RUN HISTORY"
	if p := m.current(); p != "" {
		title = "RUN HISTORY - " + p
	}
	b.WriteString(titleStyle.Render(centerText(title, m.width)))
	b.WriteString("\n\n")

	if st := m.currentStats(); st != nil {
		summary := fmt.Sprintf("%d runs, %d finished, %d failed, avg %.1f steps", st.Runs, st.Finished, st.Failed, st.AvgSteps)
		if st.BestSteps > 0 {
			summary += fmt.Sprintf(", best %d", st.BestSteps)
		}
		b.WriteString(centerText(dimStyle.Render(summary), m.width))
		b.WriteString("\n\n")
	}

	tablePane := paneStyle.Render(m.renderTableContent())
	if m.showSidebar {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), "  ", tablePane))
	} else {
		b.WriteString(tablePane)
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m HistoryModel) renderSidebar() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(sidebarWidth).
		Padding(0, 1)

	var sb strings.Builder
	sb.WriteString("Programs\n")
	sb.WriteString(strings.Repeat("-", sidebarWidth-4))
	sb.WriteString("\n")

	active := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	for i, p := range m.programs {
		name := p
		if maxLen := sidebarWidth - 6; len(name) > maxLen {
			name = name[:maxLen-1] + "."
		}
		if i == m.cursor {
			sb.WriteString(active.Render("> " + name))
		} else {
			sb.WriteString("  " + name)
		}
		sb.WriteString("\n")
	}
	return style.Render(sb.String())
}

func (m HistoryModel) renderTableContent() string {
	if len(m.runs) == 0 {
		empty := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(2, 4)
		return empty.Render("No runs recorded yet.\nRun a program to fill the history!")
	}
	return m.table.View()
}

func (m HistoryModel) current() string {
	if len(m.programs) == 0 {
		return ""
	}
	return m.programs[m.cursor]
}

func (m HistoryModel) currentStats() *storage.ProgramStats {
	return m.stats[m.current()]
}

// IsGoingBack returns true if user wants to go back to the menu.
func (m HistoryModel) IsGoingBack() bool {
	return m.goingBack
}

// IsQuitting returns true if user wants to quit entirely.
func (m HistoryModel) IsQuitting() bool {
	return m.quitting
}
