package tui

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-karol/internal/config"
	"github.com/vovakirdan/tui-karol/internal/core"
	"github.com/vovakirdan/tui-karol/internal/robot"
	"github.com/vovakirdan/tui-karol/internal/session"
	"github.com/vovakirdan/tui-karol/internal/storage"
)

// tickRate is how often the play view refreshes, per second.
const tickRate = 20

// PlayOptions configures a play view.
type PlayOptions struct {
	Title  string // header text and run history key
	Source string
	Karol  *robot.Karol
	Config config.Config
	Store  *storage.Store // nil disables run history
	Logger *log.Logger

	// Embedded makes Back return to the caller instead of quitting.
	Embedded bool

	Width, Height int
}

// toneFlag is shared between the run goroutine and the model copies.
type toneFlag struct{ atomic.Bool }

// PlayModel is the Bubble Tea model that runs one program against one
// world.
type PlayModel struct {
	opts      PlayOptions
	ctrl      *session.Controller
	runner    *session.Runner
	tone      *toneFlag
	speed     config.SpeedPreset
	keys      PlayKeyMap
	help      help.Model
	screen    *core.Screen
	width     int
	height    int
	status    string
	failed    bool
	active    bool // a run is being tracked for history
	started   time.Time
	toneUntil time.Time
	quitting  bool
	back      bool
}

// NewPlayModel creates a play view for opts.Source and opts.Karol.
func NewPlayModel(opts PlayOptions) PlayModel {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	tone := &toneFlag{}
	ctrl := session.New(opts.Karol,
		session.WithLogger(opts.Logger),
		session.WithEngineOptions(opts.Config.EngineOptions()...),
	)
	runner := session.NewRunner(ctrl, func(ev session.Event) {
		if ev.Result.Tone {
			tone.Store(true)
		}
	})
	runner.SetPacing(opts.Config.Run.Pacing())

	w, h := worldViewSize(opts.Karol.World())
	hm := help.New()
	hm.Width = opts.Width

	return PlayModel{
		opts:   opts,
		ctrl:   ctrl,
		runner: runner,
		tone:   tone,
		speed:  opts.Config.Run.Speed,
		keys:   DefaultPlayKeyMap(),
		help:   hm,
		screen: core.NewScreen(w, h),
		width:  opts.Width,
		height: opts.Height,
		status: "ready",
	}
}

// Init starts the refresh loop.
func (m PlayModel) Init() tea.Cmd {
	return tickCmd(tickRate)
}

// Update handles messages and updates the model state.
func (m PlayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Help) {
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		cmd := m.handleAction(m.keys.Action(msg))
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		if m.quitting || m.back {
			return m, nil
		}
		m.refresh()
		return m, tickCmd(tickRate)
	}
	return m, nil
}

func (m *PlayModel) handleAction(a core.Action) tea.Cmd {
	var err error
	switch a {
	case core.ActionNone:
		return nil
	case core.ActionQuit:
		m.leave()
		m.quitting = true
		return tea.Quit
	case core.ActionBack:
		m.leave()
		m.back = true
		if m.opts.Embedded {
			return nil
		}
		return tea.Quit
	case core.ActionRun:
		err = m.run()
	case core.ActionStep:
		err = m.step()
	case core.ActionPause:
		err = m.runner.Pause()
	case core.ActionStop:
		if m.active {
			m.record(storage.OutcomeStopped, nil)
		}
		err = m.runner.Stop()
	case core.ActionReset:
		if m.active {
			m.record(storage.OutcomeStopped, nil)
		}
		err = m.runner.Reset()
	case core.ActionFaster, core.ActionSlower:
		if a == core.ActionFaster {
			m.speed = m.speed.Faster()
		} else {
			m.speed = m.speed.Slower()
		}
		m.runner.SetPacing(config.RunConfig{Speed: m.speed}.Pacing())
		m.setStatus(nil, "speed "+string(m.speed))
		return nil
	}
	m.setStatus(err, m.ctrl.State().String())
	m.refresh()
	return nil
}

// run starts the program, or resumes it when paused.
func (m *PlayModel) run() error {
	started, err := m.runner.Play(m.opts.Source)
	if started {
		m.begin()
	}
	return err
}

// step executes one step, starting the program first if needed.
func (m *PlayModel) step() error {
	started, err := m.runner.StepSource(m.opts.Source)
	if started {
		m.begin()
	}
	return err
}

func (m *PlayModel) begin() {
	m.active = true
	m.started = time.Now()
}

// leave abandons a run in progress before the view closes.
func (m *PlayModel) leave() {
	if m.active && !m.finished() {
		m.record(storage.OutcomeStopped, nil)
	}
	m.runner.Close()
	//nolint:errcheck // nothing to stop is fine
	m.runner.Stop()
}

func (m *PlayModel) finished() bool {
	st := m.ctrl.State()
	return st == session.Finished || st == session.Errored
}

// refresh picks up what the run goroutine did since the last tick.
func (m *PlayModel) refresh() {
	if m.tone.Swap(false) {
		m.toneUntil = time.Now().Add(time.Second)
	}
	if !m.active {
		return
	}
	switch m.ctrl.State() {
	case session.Finished:
		m.record(storage.OutcomeFinished, nil)
		m.setStatus(nil, "finished")
	case session.Errored:
		err := m.ctrl.Err()
		m.record(storage.OutcomeError, err)
		m.setStatus(err, "")
	}
}

// record ends history tracking for the current run.
func (m *PlayModel) record(outcome storage.Outcome, runErr error) {
	m.active = false
	if m.opts.Store == nil {
		return
	}
	rec := storage.RunRecord{
		Program:  m.opts.Title,
		Outcome:  outcome,
		Steps:    m.ctrl.Steps(),
		Duration: time.Since(m.started),
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if _, err := m.opts.Store.SaveRun(rec); err != nil {
		m.opts.Logger.Warn("could not save run", "program", rec.Program, "error", err)
	}
}

func (m *PlayModel) setStatus(err error, text string) {
	m.failed = err != nil
	if err != nil {
		m.status = err.Error()
		return
	}
	m.status = text
}

// View renders the world, the source and the status line.
func (m PlayModel) View() string {
	if m.quitting || m.back {
		return ""
	}

	var info string
	m.ctrl.Inspect(func(k *robot.Karol) {
		m.screen.Clear()
		DrawWorld(m.screen, m.screen.Bounds(), k)
		info = karolInfo(k)
	})

	srcHeight := max(m.screen.Height()-2, m.height-8)
	source := paneStyle.Render(renderSource(m.opts.Source, m.ctrl.Current(), srcHeight))
	body := lipgloss.JoinHorizontal(lipgloss.Top, RenderScreen(m.screen), "  ", source)

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.opts.Title))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  speed %s", m.speed)))
	b.WriteString("\n\n")
	b.WriteString(body)
	b.WriteString("\n\n")

	state := fmt.Sprintf("%-8s steps %-5d %s", m.ctrl.State(), m.ctrl.Steps(), info)
	if time.Now().Before(m.toneUntil) {
		state += "  ♪"
	}
	b.WriteString(state)
	b.WriteString("\n")
	if m.failed {
		b.WriteString(errorStyle.Render(m.status))
	} else {
		b.WriteString(dimStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// karolInfo summarizes position, heading and supply.
func karolInfo(k *robot.Karol) string {
	bricks := "∞"
	if n := k.BrickCount(); n != robot.Unlimited {
		bricks = fmt.Sprint(n)
	}
	return fmt.Sprintf("at %v facing %v, bricks %s", k.Position(), k.Direction(), bricks)
}

// IsQuitting returns true if the user requested to quit entirely.
func (m PlayModel) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if the user left the play view.
func (m PlayModel) BackToMenu() bool {
	return m.back
}

// RunPlay runs a standalone play view until the user quits.
func RunPlay(opts PlayOptions) error {
	opts.Embedded = false
	p := tea.NewProgram(
		NewPlayModel(opts),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
