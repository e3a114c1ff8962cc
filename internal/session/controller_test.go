package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/tui-karol/internal/engine"
	"github.com/vovakirdan/tui-karol/internal/robot"
	"github.com/vovakirdan/tui-karol/internal/syntax"
	"github.com/vovakirdan/tui-karol/internal/world"
)

func newController(t *testing.T) *Controller {
	t.Helper()
	k, err := robot.New(world.MustNew(5, 5, 5), robot.DefaultSettings())
	if err != nil {
		t.Fatalf("robot.New() failed: %v", err)
	}
	return New(k)
}

func TestStartAndFinish(t *testing.T) {
	c := newController(t)
	if err := c.StartSource("Schritt Schritt"); err != nil {
		t.Fatalf("StartSource() failed: %v", err)
	}
	if c.State() != Running {
		t.Fatalf("State = %v, expected running", c.State())
	}

	var events []Event
	err := c.Run(context.Background(), Pacing{}, func(ev Event) { events = append(events, ev) })
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if c.State() != Finished {
		t.Errorf("State = %v, expected finished", c.State())
	}
	if len(events) != 3 || !events[2].Result.Done {
		t.Errorf("Events = %+v, expected two steps and done", events)
	}
	if got := c.Karol().Position(); got != (world.Coord3d{Z: 2}) {
		t.Errorf("Position = %v, expected (0,0,2)", got)
	}
	if c.Steps() != 2 {
		t.Errorf("Steps() = %d, expected 2", c.Steps())
	}
}

func TestSyntaxErrorNeverStarts(t *testing.T) {
	c := newController(t)
	err := c.StartSource("wiederhole 3 mal Schritt")
	var se *syntax.Error
	if !errors.As(err, &se) {
		t.Fatalf("Expected *syntax.Error, got %v", err)
	}
	if c.State() != Idle {
		t.Errorf("State = %v, expected idle", c.State())
	}
	if _, err := c.Step(); !errors.Is(err, ErrNoProgram) {
		t.Errorf("Step() = %v, expected ErrNoProgram", err)
	}
}

func TestStepOncePauses(t *testing.T) {
	c := newController(t)
	if err := c.StartSource("Schritt LinksDrehen"); err != nil {
		t.Fatalf("StartSource() failed: %v", err)
	}

	res, err := c.StepOnce()
	if err != nil {
		t.Fatalf("StepOnce() failed: %v", err)
	}
	if c.State() != Paused {
		t.Errorf("State = %v, expected paused", c.State())
	}
	if res.Range == nil || c.Current() == nil || *c.Current() != *res.Range {
		t.Errorf("Current() = %v, expected %v", c.Current(), res.Range)
	}
	if err := c.Pause(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Pause() while paused = %v, expected ErrNotRunning", err)
	}

	if err := c.Run(context.Background(), Pacing{}, nil); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if c.Karol().Direction() != world.East {
		t.Errorf("Direction = %v, expected East", c.Karol().Direction())
	}
}

func TestSinglePacing(t *testing.T) {
	c := newController(t)
	if err := c.StartSource("Schritt Schritt"); err != nil {
		t.Fatalf("StartSource() failed: %v", err)
	}
	if err := c.Run(context.Background(), Pacing{Single: true}, nil); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if c.State() != Paused || c.Steps() != 1 {
		t.Errorf("State = %v after %d steps, expected paused after 1", c.State(), c.Steps())
	}
}

func TestPauseDuringRun(t *testing.T) {
	c := newController(t)
	if err := c.StartSource("wiederhole 100 mal LinksDrehen *wiederhole"); err != nil {
		t.Fatalf("StartSource() failed: %v", err)
	}

	observe := func(ev Event) {
		if ev.State == Running && c.Steps() == 5 {
			if err := c.Pause(); err != nil {
				t.Errorf("Pause() failed: %v", err)
			}
		}
	}
	if err := c.Run(context.Background(), Pacing{}, observe); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if c.State() != Paused {
		t.Errorf("State = %v, expected paused", c.State())
	}
	if c.Steps() != 5 {
		t.Errorf("Steps() = %d, expected 5", c.Steps())
	}
}

func TestStopDuringWait(t *testing.T) {
	c := newController(t)
	if err := c.StartSource("Warten(60) Schritt"); err != nil {
		t.Fatalf("StartSource() failed: %v", err)
	}

	done := make(chan error, 1)
	started := make(chan struct{})
	go func() {
		done <- c.Run(context.Background(), Pacing{}, func(Event) { close(started) })
	}()
	<-started
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, expected nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after Stop")
	}
	if c.State() != Idle {
		t.Errorf("State = %v, expected idle", c.State())
	}
	if got := c.Karol().Position(); got != (world.Coord3d{}) {
		t.Errorf("Stopped program moved Karol to %v", got)
	}
	if err := c.Stop(); !errors.Is(err, ErrNoProgram) {
		t.Errorf("Second Stop() = %v, expected ErrNoProgram", err)
	}
}

func TestContextCancel(t *testing.T) {
	c := newController(t)
	if err := c.StartSource("Warten(60) Schritt"); err != nil {
		t.Fatalf("StartSource() failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := c.Run(ctx, Pacing{}, nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() = %v, expected deadline exceeded", err)
	}
	if c.State() != Paused {
		t.Errorf("State = %v, expected paused", c.State())
	}
}

func TestRuntimeErrorEndsRun(t *testing.T) {
	c := newController(t)
	if err := c.StartSource("LinksDrehen LinksDrehen Schritt"); err != nil {
		t.Fatalf("StartSource() failed: %v", err)
	}

	err := c.Run(context.Background(), Pacing{}, nil)
	if !errors.Is(err, robot.ErrOutOfWorld) {
		t.Fatalf("Run() = %v, expected ErrOutOfWorld", err)
	}
	if c.State() != Errored {
		t.Errorf("State = %v, expected errored", c.State())
	}
	if !errors.Is(c.Err(), robot.ErrOutOfWorld) {
		t.Errorf("Err() = %v", c.Err())
	}
	if _, err := c.Step(); !errors.Is(err, ErrNoProgram) {
		t.Errorf("Step() after error = %v, expected ErrNoProgram", err)
	}
}

func TestCompileErrorLeavesIdle(t *testing.T) {
	c := newController(t)
	err := c.StartSource("Tanzen")
	var ce *engine.CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected *engine.CompileError, got %v", err)
	}
	if c.State() != Idle {
		t.Errorf("State = %v, expected idle", c.State())
	}
}

func TestResetRestoresBaseline(t *testing.T) {
	c := newController(t)
	if err := c.StartSource("Hinlegen Schritt LinksDrehen"); err != nil {
		t.Fatalf("StartSource() failed: %v", err)
	}
	if _, err := c.StepOnce(); err != nil {
		t.Fatalf("StepOnce() failed: %v", err)
	}

	if err := c.Reset(); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	if c.State() != Idle {
		t.Errorf("State = %v, expected idle", c.State())
	}
	k := c.Karol()
	if k.Position() != (world.Coord3d{}) || k.Direction() != world.South {
		t.Errorf("Karol = %v %v, expected origin facing south", k.Position(), k.Direction())
	}
	if h := k.BrickHeight(); h != 0 {
		t.Errorf("BrickHeight = %d, expected 0 after reset", h)
	}
}

func TestSnapshotRefusedWhileBusy(t *testing.T) {
	c := newController(t)
	if err := c.StartSource("Schritt Schritt"); err != nil {
		t.Fatalf("StartSource() failed: %v", err)
	}
	if _, err := c.Snapshot(); !errors.Is(err, ErrBusy) {
		t.Errorf("Snapshot() while running = %v, expected ErrBusy", err)
	}
	if err := c.StartSource("Schritt"); !errors.Is(err, ErrBusy) {
		t.Errorf("Second Start() = %v, expected ErrBusy", err)
	}

	if err := c.Run(context.Background(), Pacing{}, nil); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	snap, err := c.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() after finish failed: %v", err)
	}

	if err := c.Reset(); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	if err := c.Restore(snap); err != nil {
		t.Fatalf("Restore() failed: %v", err)
	}
	if got := c.Karol().Position(); got != (world.Coord3d{Z: 2}) {
		t.Errorf("Position after Restore = %v", got)
	}

	// the restored snapshot is the new baseline
	if err := c.StartSource("Schritt"); err != nil {
		t.Fatalf("StartSource() failed: %v", err)
	}
	if err := c.Run(context.Background(), Pacing{}, nil); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if err := c.Reset(); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	if got := c.Karol().Position(); got != (world.Coord3d{Z: 2}) {
		t.Errorf("Position after Reset = %v, expected restored baseline", got)
	}
}

func TestPauseWithoutProgram(t *testing.T) {
	c := newController(t)
	if err := c.Pause(); !errors.Is(err, ErrNoProgram) {
		t.Errorf("Pause() = %v, expected ErrNoProgram", err)
	}
}

func TestIndependentSessions(t *testing.T) {
	a, b := newController(t), newController(t)
	if err := a.StartSource("Schritt"); err != nil {
		t.Fatalf("StartSource() failed: %v", err)
	}
	if err := b.StartSource("LinksDrehen"); err != nil {
		t.Fatalf("StartSource() failed: %v", err)
	}
	if _, err := a.Step(); err != nil {
		t.Fatalf("Step() failed: %v", err)
	}
	if b.Karol().Position() != (world.Coord3d{}) {
		t.Error("Stepping one session moved the other robot")
	}
}
