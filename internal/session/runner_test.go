package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/tui-karol/internal/robot"
	"github.com/vovakirdan/tui-karol/internal/world"
)

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) observe(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRunnerRunsToCompletion(t *testing.T) {
	var log eventLog
	r := NewRunner(newController(t), log.observe)
	defer r.Close()

	if err := r.Start("Schritt Schritt"); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	r.Wait()

	if got := r.Controller().State(); got != Finished {
		t.Errorf("State = %v, expected finished", got)
	}
	if log.len() != 3 {
		t.Errorf("Observed %d events, expected 3", log.len())
	}
	if r.Running() {
		t.Error("Running() = true after the run ended")
	}
}

func TestRunnerSinglePacing(t *testing.T) {
	r := NewRunner(newController(t), nil)
	r.SetPacing(Pacing{Single: true})

	if err := r.Start("Schritt Schritt"); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	c := r.Controller()
	if c.State() != Paused || c.Steps() != 1 {
		t.Fatalf("State = %v after %d steps, expected paused after 1", c.State(), c.Steps())
	}
	if err := r.Resume(); err != nil {
		t.Fatalf("Resume() failed: %v", err)
	}
	if err := r.Resume(); err != nil {
		t.Fatalf("Resume() failed: %v", err)
	}
	if c.State() != Finished {
		t.Errorf("State = %v, expected finished", c.State())
	}
	if got := c.Karol().Position(); got != (world.Coord3d{Z: 2}) {
		t.Errorf("Position = %v, expected (0,0,2)", got)
	}
}

func TestRunnerPauseResumeStop(t *testing.T) {
	r := NewRunner(newController(t), nil)
	defer r.Close()
	r.SetPacing(Pacing{Delay: 5 * time.Millisecond})

	if err := r.Start("wiederhole 1000 mal LinksDrehen *wiederhole"); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := r.Pause(); err != nil {
		t.Fatalf("Pause() failed: %v", err)
	}
	c := r.Controller()
	if c.State() != Paused {
		t.Fatalf("State = %v, expected paused", c.State())
	}
	paused := c.Steps()

	if err := r.Resume(); err != nil {
		t.Fatalf("Resume() failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if c.State() != Idle {
		t.Errorf("State = %v, expected idle", c.State())
	}
	if c.Steps() <= paused {
		t.Errorf("Steps() = %d, expected progress after resuming from %d", c.Steps(), paused)
	}
}

func TestRunnerStepInterruptsLoop(t *testing.T) {
	r := NewRunner(newController(t), nil)
	defer r.Close()
	r.SetPacing(Pacing{Delay: time.Hour})

	if err := r.Start("Schritt Schritt Schritt"); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	c := r.Controller()
	waitFor(t, func() bool { return c.Steps() == 1 })
	if err := r.Step(); err != nil {
		t.Fatalf("Step() failed: %v", err)
	}
	if c.State() != Paused || c.Steps() != 2 {
		t.Errorf("State = %v after %d steps, expected paused after 2", c.State(), c.Steps())
	}
}

func TestRunnerReset(t *testing.T) {
	r := NewRunner(newController(t), nil)
	defer r.Close()
	r.SetPacing(Pacing{Delay: time.Hour})

	if err := r.Start("Hinlegen Schritt"); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if err := r.Reset(); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	c := r.Controller()
	if c.State() != Idle {
		t.Errorf("State = %v, expected idle", c.State())
	}
	var height int
	c.Inspect(func(k *robot.Karol) { height = k.BrickHeight() })
	if height != 0 {
		t.Errorf("BrickHeight = %d, expected 0 after reset", height)
	}
	if err := r.Resume(); !errors.Is(err, ErrNoProgram) {
		t.Errorf("Resume() after reset = %v, expected ErrNoProgram", err)
	}
}

func TestRunnerPlayAndStepSource(t *testing.T) {
	r := NewRunner(newController(t), nil)
	defer r.Close()
	r.SetPacing(Pacing{Delay: time.Hour})

	started, err := r.Play("wiederhole 3 mal")
	if started || err == nil {
		t.Fatalf("Play() with a syntax error = %v, %v", started, err)
	}

	started, err = r.StepSource("Schritt Schritt")
	if !started || err != nil {
		t.Fatalf("StepSource() = %v, %v, expected a new run", started, err)
	}
	c := r.Controller()
	if c.State() != Paused || c.Steps() != 1 {
		t.Fatalf("State = %v after %d steps, expected paused after 1", c.State(), c.Steps())
	}

	r.SetPacing(Pacing{})
	started, err = r.Play("ignored")
	if started || err != nil {
		t.Fatalf("Play() while paused = %v, %v, expected resume", started, err)
	}
	r.Wait()
	if c.State() != Finished || c.Steps() != 2 {
		t.Errorf("State = %v after %d steps, expected finished after 2", c.State(), c.Steps())
	}

	started, err = r.Play("LinksDrehen")
	if !started || err != nil {
		t.Fatalf("Play() after finish = %v, %v, expected a new run", started, err)
	}
	r.Wait()
	if c.Karol().Direction() != world.East {
		t.Errorf("Direction = %v, expected East", c.Karol().Direction())
	}
}
