package session

import (
	"context"
	"errors"
	"sync"

	"github.com/vovakirdan/tui-karol/internal/engine"
	"github.com/vovakirdan/tui-karol/internal/syntax"
)

// Runner drives a Controller from a background goroutine so interactive
// front ends can start, pause and resume a program without blocking their
// event loop.
type Runner struct {
	ctrl    *Controller
	observe Observer

	mu     sync.Mutex
	pacing Pacing
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner returns a Runner for c. observe, if not nil, receives every
// event of every run; it is called on the run goroutine.
func NewRunner(c *Controller, observe Observer) *Runner {
	return &Runner{ctrl: c, observe: observe}
}

// Controller returns the driven controller.
func (r *Runner) Controller() *Controller { return r.ctrl }

// Pacing returns the pacing used for the next resumption.
func (r *Runner) Pacing() Pacing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pacing
}

// SetPacing changes the pacing. A loop already in progress is restarted
// with the new pacing.
func (r *Runner) SetPacing(p Pacing) {
	r.mu.Lock()
	r.pacing = p
	restart := r.loopingLocked()
	r.mu.Unlock()

	if restart && r.ctrl.Pause() == nil {
		r.wait()
		_ = r.Resume()
	}
}

// Start parses and starts src, then resumes it with the current pacing.
func (r *Runner) Start(src string) error {
	r.wait()
	if err := r.ctrl.StartSource(src); err != nil {
		return err
	}
	return r.Resume()
}

// Resume continues a started or paused program. With single pacing it
// executes exactly one step before returning.
func (r *Runner) Resume() error {
	r.wait()

	p := r.Pacing()
	if p.Single {
		return r.ctrl.Run(context.Background(), p, r.observe)
	}
	if err := r.ctrl.acquire(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.cancel, r.done = cancel, done
	go func() {
		defer close(done)
		// errors reach the observer as events
		_ = r.ctrl.loop(ctx, p, r.observe)
	}()
	return nil
}

// Step executes one step and leaves the program paused.
func (r *Runner) Step() error {
	if r.Running() {
		_ = r.ctrl.Pause()
	}
	r.wait()
	res, err := r.ctrl.StepOnce()
	if errors.Is(err, ErrNoProgram) || errors.Is(err, ErrBusy) {
		return err
	}
	if r.observe != nil {
		r.observe(Event{Result: res, State: r.ctrl.State(), Err: err})
	}
	return err
}

// Play resumes a paused program, or starts src when no program is in
// progress. started reports whether a new run began; a run that began and
// failed on its first step counts as started.
func (r *Runner) Play(src string) (started bool, err error) {
	switch r.ctrl.State() {
	case Paused:
		return false, r.Resume()
	case Running:
		if r.Running() {
			return false, nil
		}
		return false, r.Resume()
	}
	err = r.Start(src)
	return !rejected(err), err
}

// StepSource executes one step of the program in progress, or starts src
// and executes its first step.
func (r *Runner) StepSource(src string) (started bool, err error) {
	switch r.ctrl.State() {
	case Running, Paused:
		return false, r.Step()
	}
	if err := r.ctrl.StartSource(src); err != nil {
		return false, err
	}
	return true, r.Step()
}

// rejected reports whether err kept a program from starting.
func rejected(err error) bool {
	var (
		se *syntax.Error
		ce *engine.CompileError
	)
	return errors.As(err, &se) || errors.As(err, &ce) || errors.Is(err, ErrBusy)
}

// Pause pauses a running program.
func (r *Runner) Pause() error {
	if err := r.ctrl.Pause(); err != nil {
		return err
	}
	r.wait()
	return nil
}

// Stop abandons the program and waits for the run goroutine to exit.
func (r *Runner) Stop() error {
	err := r.ctrl.Stop()
	r.wait()
	return err
}

// Reset stops any program and restores the baseline world.
func (r *Runner) Reset() error {
	_ = r.ctrl.Stop()
	r.wait()
	return r.ctrl.Reset()
}

// Wait blocks until the current run goroutine, if any, has returned.
func (r *Runner) Wait() { r.wait() }

// Close cancels the run goroutine and waits for it.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()
	r.wait()
}

// Running reports whether a run goroutine is active.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loopingLocked()
}

func (r *Runner) loopingLocked() bool {
	if r.done == nil {
		return false
	}
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

func (r *Runner) wait() {
	r.mu.Lock()
	done, cancel := r.done, r.cancel
	r.mu.Unlock()
	if done == nil {
		return
	}
	<-done
	cancel()

	r.mu.Lock()
	if r.done == done {
		r.done, r.cancel = nil, nil
	}
	r.mu.Unlock()
}
