// Package engine runs compiled Karol programs one step at a time.
//
// A program is compiled once into a flat list of operations with an
// explicit program counter, value stack, counter stack and call stack. Step
// runs operations until one built-in instruction has executed or a loop
// boundary has been checked, then returns so the caller can show progress,
// wait, or stop. The engine never sleeps and never schedules itself.
package engine

import (
	"time"

	"github.com/vovakirdan/tui-karol/internal/robot"
	"github.com/vovakirdan/tui-karol/internal/syntax"
	"github.com/vovakirdan/tui-karol/internal/world"
)

// DefaultMaxDepth bounds nested procedure and condition calls.
const DefaultMaxDepth = 1000

// DefaultMaxOps bounds the operations run by one Step.
const DefaultMaxOps = 1_000_000

// StepResult describes one resumption.
type StepResult struct {
	Done  bool
	Range *syntax.Range // range of the construct just executed, nil when Done
	Delay time.Duration // requested pause before the next step (Warten)
	Tone  bool          // Ton was executed
}

type frame struct {
	ret    int
	cond   bool
	result bool
}

// Engine executes one Program against one Karol.
type Engine struct {
	prog     *Program
	karol    *robot.Karol
	pc       int
	values   []bool
	counters []int
	frames   []frame
	steps    int
	done     bool
	failed   bool
	maxDepth int
	maxOps   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth sets the call depth limit.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// WithMaxOps sets how many operations a single Step may run.
func WithMaxOps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxOps = n
		}
	}
}

// New binds prog to k. Nothing runs until the first Step.
func New(prog *Program, k *robot.Karol, opts ...Option) *Engine {
	e := &Engine{prog: prog, karol: k, maxDepth: DefaultMaxDepth, maxOps: DefaultMaxOps}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Done reports whether the program has finished.
func (e *Engine) Done() bool { return e.done }

// Failed reports whether the program stopped with an error.
func (e *Engine) Failed() bool { return e.failed }

// Steps returns the number of non-final steps taken so far.
func (e *Engine) Steps() int { return e.steps }

// Step resumes the program until the next suspension point.
func (e *Engine) Step() (StepResult, error) {
	if e.failed {
		return StepResult{}, ErrEngineFailed
	}
	if e.done {
		return StepResult{Done: true}, nil
	}

	for budget := 0; ; budget++ {
		if budget >= e.maxOps {
			return e.fail(&RuntimeError{Range: e.prog.ops[e.pc].rng, Err: ErrNoProgress})
		}
		o := &e.prog.ops[e.pc]
		e.pc++

		switch o.code {
		case opHalt:
			e.done = true
			return StepResult{Done: true}, nil

		case opInstr:
			res, err := e.exec(o)
			if err != nil {
				return e.fail(&RuntimeError{Range: o.rng, Err: err})
			}
			return e.yield(o, res), nil

		case opYield:
			return e.yield(o, StepResult{}), nil

		case opCond:
			e.push(e.eval(o.cond, o.arg))

		case opNot:
			e.values[len(e.values)-1] = !e.values[len(e.values)-1]

		case opJump:
			e.pc = o.target

		case opJumpFalse:
			if !e.pop() {
				e.pc = o.target
			}

		case opJumpTrue:
			if e.pop() {
				e.pc = o.target
			}

		case opIterInit:
			e.counters = append(e.counters, o.n)

		case opIterNext:
			top := len(e.counters) - 1
			if e.counters[top] == 0 {
				e.counters = e.counters[:top]
				e.pc = o.target
			} else {
				e.counters[top]--
			}

		case opCall, opCallCond:
			if len(e.frames) >= e.maxDepth {
				return e.fail(&RuntimeError{Range: o.rng, Err: ErrRecursionTooDeep})
			}
			e.frames = append(e.frames, frame{ret: e.pc, cond: o.code == opCallCond})
			e.pc = o.target

		case opResult:
			if len(e.frames) == 0 {
				return e.fail(&InternalError{Range: o.rng, Msg: "condition result outside a condition"})
			}
			e.frames[len(e.frames)-1].result = o.value

		case opReturn:
			f := e.frames[len(e.frames)-1]
			e.frames = e.frames[:len(e.frames)-1]
			e.pc = f.ret
			if f.cond {
				e.push(f.result)
			}

		default:
			return e.fail(&InternalError{Range: o.rng, Msg: "unknown operation"})
		}
	}
}

func (e *Engine) yield(o *op, res StepResult) StepResult {
	rng := o.rng
	res.Range = &rng
	e.steps++
	return res
}

func (e *Engine) fail(err error) (StepResult, error) {
	e.failed = true
	return StepResult{}, err
}

func (e *Engine) push(v bool) {
	e.values = append(e.values, v)
}

func (e *Engine) pop() bool {
	v := e.values[len(e.values)-1]
	e.values = e.values[:len(e.values)-1]
	return v
}

func (e *Engine) exec(o *op) (StepResult, error) {
	k := e.karol
	var res StepResult
	switch o.instr {
	case InstrStep:
		return res, k.Move(o.arg.count())
	case InstrTurnLeft:
		k.TurnLeft()
	case InstrTurnRight:
		k.TurnRight()
	case InstrLayBrick:
		if o.arg.Kind == ArgColor {
			return res, k.LayBrick(1, o.arg.Color)
		}
		return res, k.LayBrick(o.arg.count(), world.DefaultBrickColor)
	case InstrPickup:
		return res, k.PickupBrick(o.arg.count())
	case InstrSetMarker:
		c := world.DefaultMarkerColor
		if o.arg.Kind == ArgColor {
			c = o.arg.Color
		}
		return res, k.SetMarker(c)
	case InstrDeleteMarker:
		return res, k.DeleteMarker()
	case InstrTone:
		res.Tone = true
	case InstrWait:
		res.Delay = time.Duration(o.arg.count()) * time.Second
	}
	return res, nil
}

func (e *Engine) eval(c Cond, arg Arg) bool {
	k := e.karol
	count, limit := k.BrickCount(), k.Settings().MaxBrickCount
	switch c {
	case CondWall:
		return k.NextFieldType() == world.Wall
	case CondNotWall:
		return k.NextFieldType() != world.Wall
	case CondBrick:
		return e.brickAhead(arg)
	case CondNotBrick:
		return !e.brickAhead(arg)
	case CondMarker:
		return e.markerHere(arg)
	case CondNotMarker:
		return !e.markerHere(arg)
	case CondNorth:
		return k.Direction() == world.North
	case CondEast:
		return k.Direction() == world.East
	case CondSouth:
		return k.Direction() == world.South
	case CondWest:
		return k.Direction() == world.West
	case CondFull:
		return isFull(count, limit)
	case CondNotFull:
		return !isFull(count, limit)
	case CondEmpty:
		return count == 0
	case CondNotEmpty:
		return count != 0
	case CondHasBricks:
		if arg.Kind == ArgNumber {
			return count == robot.Unlimited || count >= arg.Number
		}
		return count != 0
	}
	return false
}

func isFull(count, limit int) bool {
	return count != robot.Unlimited && limit != robot.Unlimited && count >= limit
}

func (e *Engine) brickAhead(arg Arg) bool {
	switch arg.Kind {
	case ArgNumber:
		return e.karol.BrickHeight() == arg.Number
	case ArgColor:
		return e.karol.HasBrick(arg.Color)
	}
	return e.karol.NextFieldType().IsBrick()
}

func (e *Engine) markerHere(arg Arg) bool {
	c, ok := e.karol.Marker()
	if arg.Kind == ArgColor {
		return ok && c == arg.Color
	}
	return ok
}
