// Package session drives one program run against one Karol: start, step,
// pace, pause, stop and reset. Every Controller owns its state; there are
// no package-level run variables, so independent sessions may coexist.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-karol/internal/engine"
	"github.com/vovakirdan/tui-karol/internal/robot"
	"github.com/vovakirdan/tui-karol/internal/snapshot"
	"github.com/vovakirdan/tui-karol/internal/syntax"
	"github.com/vovakirdan/tui-karol/internal/world"
)

var (
	// ErrNoProgram is returned when an operation needs a started program.
	ErrNoProgram = errors.New("session: no program is running")
	// ErrNotRunning is returned by Pause outside the Running state.
	ErrNotRunning = errors.New("session: program is not running")
	// ErrBusy is returned when an operation would interfere with a run.
	ErrBusy = errors.New("session: a program is in progress")
)

// State is the controller state.
type State int

const (
	Idle State = iota
	Running
	Paused
	Finished
	Errored
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Finished:
		return "finished"
	case Errored:
		return "errored"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Pacing controls how Run schedules resumptions.
type Pacing struct {
	// Delay is the pause between two steps. Zero runs as fast as possible.
	Delay time.Duration
	// Single makes Run take one step and pause.
	Single bool
}

// Event is reported to the Run observer after every resumption.
type Event struct {
	Result engine.StepResult
	State  State
	Err    error
}

// Observer receives run events. It is called without the controller lock
// held, so it may call Pause or Stop.
type Observer func(Event)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithEngineOptions passes options to every engine the controller creates.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(c *Controller) {
		c.engineOpts = append(c.engineOpts, opts...)
	}
}

// Controller wraps the engine for pacing and interruption.
type Controller struct {
	mu         sync.Mutex
	karol      *robot.Karol
	baseline   snapshot.Snapshot
	eng        *engine.Engine
	state      State
	interrupt  bool
	looping    bool
	wake       chan struct{}
	last       *syntax.Range
	lastErr    error
	steps      int
	log        *log.Logger
	engineOpts []engine.Option
}

// New returns an idle controller for k. The current world and position
// become the baseline restored by Reset.
func New(k *robot.Karol, opts ...Option) *Controller {
	c := &Controller{
		karol: k,
		wake:  make(chan struct{}, 1),
		log:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseline = snapshot.Capture(k)
	return c
}

// Karol returns the controlled robot. Callers must not mutate it while a
// program is in progress.
func (c *Controller) Karol() *robot.Karol { return c.karol }

// World returns the world Karol is bound to.
func (c *Controller) World() *world.World { return c.karol.World() }

// Inspect calls fn with the controller lock held, so fn sees the world
// between two steps even while Run is looping on another goroutine. fn must
// not call back into the controller.
func (c *Controller) Inspect(fn func(k *robot.Karol)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.karol)
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the range of the last executed construct, or nil.
func (c *Controller) Current() *syntax.Range {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Err returns the error that ended the last run, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Steps returns how many steps the current or last run has taken.
func (c *Controller) Steps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.steps
}

func (c *Controller) busy() bool {
	return c.eng != nil && (c.state == Running || c.state == Paused)
}

// Start compiles tree and prepares a fresh engine. On error nothing runs
// and the state is unchanged.
func (c *Controller) Start(tree *syntax.Node) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy() {
		return ErrBusy
	}
	prog, err := engine.Compile(tree)
	if err != nil {
		c.logFailure(err)
		return err
	}
	c.eng = engine.New(prog, c.karol, c.engineOpts...)
	c.state = Running
	c.interrupt = false
	c.last = nil
	c.lastErr = nil
	c.steps = 0
	c.log.Debug("program started", "procedures", len(prog.Procedures()), "conditions", len(prog.Conditions()))
	return nil
}

// StartSource parses src and starts it. Syntax errors are returned as
// *syntax.Error and execution never begins.
func (c *Controller) StartSource(src string) error {
	tree, err := syntax.Parse(src)
	if err != nil {
		c.log.Info("syntax error", "error", err)
		return err
	}
	return c.Start(tree)
}

// Step performs exactly one resumption without changing the pacing state.
func (c *Controller) Step() (engine.StepResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stepLocked()
}

// StepOnce performs one resumption and leaves the run Paused.
func (c *Controller) StepOnce() (engine.StepResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.looping {
		return engine.StepResult{}, ErrBusy
	}
	res, err := c.stepLocked()
	if err == nil && !res.Done {
		c.state = Paused
	}
	return res, err
}

func (c *Controller) stepLocked() (engine.StepResult, error) {
	if c.eng == nil {
		return engine.StepResult{}, ErrNoProgram
	}
	res, err := c.eng.Step()
	if err != nil {
		c.eng = nil
		c.state = Errored
		c.lastErr = err
		c.logFailure(err)
		return res, err
	}
	if res.Done {
		c.eng = nil
		c.state = Finished
		c.log.Debug("program finished", "steps", c.steps)
		return res, nil
	}
	c.steps++
	c.last = res.Range
	return res, nil
}

func (c *Controller) logFailure(err error) {
	var (
		ie *engine.InternalError
		re *engine.RuntimeError
	)
	switch {
	case errors.As(err, &ie):
		c.log.Error("internal error", "range", ie.Range, "error", ie.Msg)
	case errors.As(err, &re):
		c.log.Warn("runtime error", "range", re.Range, "error", re.Err)
	default:
		c.log.Info("program rejected", "error", err)
	}
}

// Run resumes the program until it finishes, fails, is paused or stopped,
// or ctx is done. Between steps it waits for the longer of the pacing
// delay and any delay the program asked for. A paused run continues from
// where it stopped.
func (c *Controller) Run(ctx context.Context, p Pacing, observe Observer) error {
	if err := c.acquire(); err != nil {
		return err
	}
	return c.loop(ctx, p, observe)
}

// acquire marks the controller as looping. Pause and Stop issued after
// acquire returns are seen by the following loop.
func (c *Controller) acquire() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eng == nil {
		return ErrNoProgram
	}
	if c.looping {
		return ErrBusy
	}
	c.looping = true
	c.interrupt = false
	c.state = Running
	c.drainWake()
	return nil
}

func (c *Controller) loop(ctx context.Context, p Pacing, observe Observer) error {
	defer func() {
		c.mu.Lock()
		c.looping = false
		c.mu.Unlock()
	}()

	for {
		c.mu.Lock()
		if c.interrupt {
			c.interrupt = false
			if c.eng != nil {
				c.state = Paused
			}
			c.mu.Unlock()
			return nil
		}
		res, err := c.stepLocked()
		state := c.state
		c.mu.Unlock()

		if observe != nil {
			observe(Event{Result: res, State: state, Err: err})
		}
		if err != nil {
			return err
		}
		if res.Done {
			return nil
		}
		if p.Single {
			c.mu.Lock()
			if c.state == Running {
				c.state = Paused
			}
			c.mu.Unlock()
			return nil
		}

		wait := max(p.Delay, res.Delay)
		if wait <= 0 {
			if err := ctx.Err(); err != nil {
				return c.cancelled(err)
			}
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return c.cancelled(ctx.Err())
		case <-c.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (c *Controller) cancelled(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eng != nil {
		c.state = Paused
	}
	return err
}

func (c *Controller) drainWake() {
	select {
	case <-c.wake:
	default:
	}
}

func (c *Controller) kick() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Pause asks a running program to stop at the next suspension point.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eng == nil {
		return ErrNoProgram
	}
	if c.state != Running {
		return ErrNotRunning
	}
	if !c.looping {
		c.state = Paused
		return nil
	}
	c.interrupt = true
	c.kick()
	return nil
}

// Stop discards the engine. The run cannot be resumed.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eng == nil {
		return ErrNoProgram
	}
	c.eng = nil
	c.state = Idle
	c.interrupt = true
	c.kick()
	c.log.Debug("program stopped", "steps", c.steps)
	return nil
}

// Reset discards any program and restores the baseline world and robot.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.looping {
		return ErrBusy
	}
	c.eng = nil
	c.state = Idle
	c.last = nil
	c.lastErr = nil
	c.steps = 0
	if err := c.baseline.Apply(c.karol); err != nil {
		return err
	}
	c.karol.Refill()
	return nil
}

// Snapshot captures the world and robot. It is refused while a program
// is in progress.
func (c *Controller) Snapshot() (snapshot.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy() || c.looping {
		return snapshot.Snapshot{}, ErrBusy
	}
	return snapshot.Capture(c.karol), nil
}

// Restore applies s and makes it the new baseline for Reset.
func (c *Controller) Restore(s snapshot.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy() || c.looping {
		return ErrBusy
	}
	if err := s.Apply(c.karol); err != nil {
		return err
	}
	c.karol.Refill()
	c.baseline = s
	c.eng = nil
	c.state = Idle
	c.last = nil
	return nil
}

// UpdateSettings changes Karol's settings. Karol is reset to the origin
// and the result becomes the new baseline.
func (c *Controller) UpdateSettings(s robot.Settings) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy() || c.looping {
		return ErrBusy
	}
	if err := c.karol.UpdateSettings(s); err != nil {
		return err
	}
	c.baseline = snapshot.Capture(c.karol)
	return nil
}
