package engine

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/tui-karol/internal/syntax"
)

var (
	// ErrEngineFailed is returned by Step after the program has failed.
	ErrEngineFailed = errors.New("engine: program failed and cannot be resumed")
	// ErrRecursionTooDeep is the cause of a RuntimeError when the call depth
	// limit is exceeded.
	ErrRecursionTooDeep = errors.New("recursion too deep")
	// ErrNoProgress is the cause of a RuntimeError when a program runs too
	// many operations without reaching a step.
	ErrNoProgress = errors.New("program runs without executing an instruction")
)

// CompileError is a mistake in the user program found before execution,
// such as a call to an undefined procedure.
type CompileError struct {
	Range syntax.Range
	Msg   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Range.StartLine, e.Msg)
}

// RuntimeError is a physical impossibility hit while running, such as
// walking into a wall. It wraps the robot or world error.
type RuntimeError struct {
	Range syntax.Range
	Err   error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Range.StartLine, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// InternalError means the tree does not have a shape the engine knows. It
// points at a parser or engine bug rather than at the user program.
type InternalError struct {
	Range syntax.Range
	Msg   string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error at %s: %s", e.Range, e.Msg)
}

func internalf(n *syntax.Node, format string, args ...any) *InternalError {
	e := &InternalError{Msg: fmt.Sprintf(format, args...)}
	if n != nil {
		e.Range = n.Range
	}
	return e
}

func compilef(n *syntax.Node, format string, args ...any) *CompileError {
	e := &CompileError{Msg: fmt.Sprintf(format, args...)}
	if n != nil {
		e.Range = n.Range
	}
	return e
}
