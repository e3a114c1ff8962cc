package robot

import (
	"errors"
	"fmt"
)

// Causes of a failed robot action. Every *Error unwraps to one of these.
var (
	ErrOutOfWorld      = errors.New("blocked by the edge of the world")
	ErrQuader          = errors.New("blocked by a quader")
	ErrJumpTooHigh     = errors.New("cannot jump that high")
	ErrNoLanding       = errors.New("no free position to land on")
	ErrNotEnoughBricks = errors.New("not enough bricks")
	ErrStackTooHigh    = errors.New("stack too high")
	ErrNothingToPickUp = errors.New("nothing to pick up")
	ErrCarryLimit      = errors.New("carry limit reached")
)

// Error is a physical impossibility reported by Karol. The message is meant
// for the learner and names the concrete cause.
type Error struct {
	Cause error
	Msg   string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Cause }

func newError(cause error, format string, args ...any) *Error {
	return &Error{Cause: cause, Msg: fmt.Sprintf(format, args...)}
}
