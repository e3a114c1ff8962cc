package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-karol/internal/core"
	"github.com/vovakirdan/tui-karol/internal/registry"
)

// MenuItem is a selectable example program.
type MenuItem struct {
	ExampleID   string
	Title       string
	Description string
}

// MenuModel is the Bubble Tea model for the example picker.
type MenuModel struct {
	items       []MenuItem
	cursor      int
	width       int
	height      int
	keys        MenuKeyMap
	help        help.Model
	quitting    bool
	selected    *MenuItem
	openHistory bool
}

// NewMenuModel creates a menu of all registered examples.
func NewMenuModel(width, height int) MenuModel {
	infos := registry.List()
	items := make([]MenuItem, 0, len(infos))
	for _, info := range infos {
		ex, err := registry.Create(info.ID)
		if err != nil {
			continue
		}
		items = append(items, MenuItem{
			ExampleID:   ex.ID,
			Title:       ex.Title,
			Description: ex.Description,
		})
	}

	h := help.New()
	h.Width = width
	return MenuModel{
		items:  items,
		width:  width,
		height: height,
		keys:   DefaultMenuKeyMap(),
		help:   h,
	}
}

// Init initializes the menu model.
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input for menu navigation.
func (m MenuModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.History) {
		m.openHistory = true
		return m, nil
	}

	switch m.keys.Action(msg) {
	case core.ActionQuit:
		m.quitting = true
		return m, tea.Quit

	case core.ActionUp:
		if m.cursor > 0 {
			m.cursor--
		}

	case core.ActionDown:
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case core.ActionConfirm:
		if len(m.items) > 0 {
			selected := m.items[m.cursor]
			m.selected = &selected
		}
	}

	return m, nil
}

// View renders the menu.
func (m MenuModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(centerText(titleStyle.Render("  K A R O L  "), m.width))
	b.WriteString("\n\n")
	b.WriteString(centerText(dimStyle.Render("Select an example program"), m.width))
	b.WriteString("\n\n")

	active := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	for i, item := range m.items {
		line := fmt.Sprintf("  %-10s %s", item.ExampleID, item.Title)
		if i == m.cursor {
			line = active.Render(fmt.Sprintf("> %-10s %s", item.ExampleID, item.Title))
		}
		b.WriteString(centerText(line, m.width))
		b.WriteString("\n")
	}

	if len(m.items) > 0 {
		b.WriteString("\n")
		b.WriteString(centerText(dimStyle.Render(m.items[m.cursor].Description), m.width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(centerText(dimStyle.Render(m.help.View(m.keys)), m.width))
	b.WriteString("\n")

	return b.String()
}

// Selected returns the selected menu item, or nil if none selected.
func (m MenuModel) Selected() *MenuItem {
	return m.selected
}

// IsQuitting returns true if user requested to quit.
func (m MenuModel) IsQuitting() bool {
	return m.quitting
}

// WantsHistory returns true if the user asked for the run history.
func (m MenuModel) WantsHistory() bool {
	return m.openHistory
}
