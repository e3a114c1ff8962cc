package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-karol/internal/config"
	"github.com/vovakirdan/tui-karol/internal/registry"
	"github.com/vovakirdan/tui-karol/internal/storage"
)

// AppModel manages the full session flow: menu -> play or history -> menu.
// It is the top-level model of `karol play` without a file and of every
// SSH session.
type AppModel struct {
	cfg      config.Config
	store    *storage.Store
	logger   *log.Logger
	width    int
	height   int
	menu     MenuModel
	play     *PlayModel
	history  *HistoryModel
	status   string
	quitting bool
}

// NewAppModel creates the session model. store may be nil.
func NewAppModel(cfg config.Config, store *storage.Store, logger *log.Logger, width, height int) AppModel {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return AppModel{
		cfg:    cfg,
		store:  store,
		logger: logger,
		width:  width,
		height: height,
		menu:   NewMenuModel(width, height),
	}
}

// Init initializes the session.
func (m AppModel) Init() tea.Cmd {
	return m.menu.Init()
}

// Update routes messages to the active view.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = wsm.Width
		m.height = wsm.Height
	}

	switch {
	case m.play != nil:
		return m.updatePlay(msg)
	case m.history != nil:
		return m.updateHistory(msg)
	}
	return m.updateMenu(msg)
}

func (m AppModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.menu.Update(msg)
	if menu, ok := next.(MenuModel); ok {
		m.menu = menu
	}

	if m.menu.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	if m.menu.WantsHistory() {
		h := NewHistoryModel(m.store, m.width, m.height)
		m.history = &h
		m.menu = NewMenuModel(m.width, m.height)
		return m, h.Init()
	}

	if selected := m.menu.Selected(); selected != nil {
		m.menu = NewMenuModel(m.width, m.height)
		play, err := m.openExample(selected.ExampleID)
		if err != nil {
			m.logger.Error("cannot open example", "example", selected.ExampleID, "error", err)
			m.status = err.Error()
			return m, nil
		}
		m.status = ""
		m.play = &play
		return m, play.Init()
	}

	return m, cmd
}

func (m AppModel) openExample(id string) (PlayModel, error) {
	ex, err := registry.Create(id)
	if err != nil {
		return PlayModel{}, err
	}
	k, err := ex.Setup(m.cfg.RobotSettings())
	if err != nil {
		return PlayModel{}, err
	}
	return NewPlayModel(PlayOptions{
		Title:    ex.ID,
		Source:   ex.Source,
		Karol:    k,
		Config:   m.cfg,
		Store:    m.store,
		Logger:   m.logger,
		Embedded: true,
		Width:    m.width,
		Height:   m.height,
	}), nil
}

func (m AppModel) updatePlay(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.play.Update(msg)
	if play, ok := next.(PlayModel); ok {
		m.play = &play
	}

	if m.play.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}
	if m.play.BackToMenu() {
		m.play = nil
		return m, m.menu.Init()
	}
	return m, cmd
}

func (m AppModel) updateHistory(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.history.Update(msg)
	if h, ok := next.(HistoryModel); ok {
		m.history = &h
	}

	if m.history.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}
	if m.history.IsGoingBack() {
		m.history = nil
		return m, m.menu.Init()
	}
	return m, cmd
}

// View renders the active view.
func (m AppModel) View() string {
	switch {
	case m.quitting:
		return ""
	case m.play != nil:
		return m.play.View()
	case m.history != nil:
		return m.history.View()
	}
	view := m.menu.View()
	if m.status != "" {
		view += "\n" + centerText(errorStyle.Render(m.status), m.width)
	}
	return view
}

// RunApp runs the menu-driven session on the local terminal.
func RunApp(cfg config.Config, store *storage.Store, logger *log.Logger, width, height int) error {
	p := tea.NewProgram(
		NewAppModel(cfg, store, logger, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
