package engine

import (
	"fmt"

	"github.com/vovakirdan/tui-karol/internal/syntax"
	"github.com/vovakirdan/tui-karol/internal/world"
)

// Instr is a built-in instruction.
type Instr int

const (
	InstrStep Instr = iota
	InstrTurnLeft
	InstrTurnRight
	InstrLayBrick
	InstrPickup
	InstrSetMarker
	InstrDeleteMarker
	InstrTone
	InstrWait
)

var instrByName = map[string]Instr{
	"schritt":      InstrStep,
	"linksdrehen":  InstrTurnLeft,
	"rechtsdrehen": InstrTurnRight,
	"hinlegen":     InstrLayBrick,
	"aufheben":     InstrPickup,
	"markesetzen":  InstrSetMarker,
	"markelöschen": InstrDeleteMarker,
	"ton":          InstrTone,
	"warten":       InstrWait,
}

func (i Instr) String() string {
	for name, v := range instrByName {
		if v == i {
			return name
		}
	}
	return fmt.Sprintf("Instr(%d)", int(i))
}

// Cond is a built-in condition.
type Cond int

const (
	CondWall Cond = iota
	CondNotWall
	CondBrick
	CondNotBrick
	CondMarker
	CondNotMarker
	CondNorth
	CondEast
	CondSouth
	CondWest
	CondFull
	CondNotFull
	CondEmpty
	CondNotEmpty
	CondHasBricks
)

var condByName = map[string]Cond{
	"istwand":        CondWall,
	"nichtistwand":   CondNotWall,
	"istziegel":      CondBrick,
	"nichtistziegel": CondNotBrick,
	"istmarke":       CondMarker,
	"nichtistmarke":  CondNotMarker,
	"istnorden":      CondNorth,
	"istosten":       CondEast,
	"istsüden":       CondSouth,
	"istwesten":      CondWest,
	"istvoll":        CondFull,
	"nichtistvoll":   CondNotFull,
	"istleer":        CondEmpty,
	"nichtistleer":   CondNotEmpty,
	"hatziegel":      CondHasBricks,
}

// ArgKind tells which argument a parameterized call carries.
type ArgKind int

const (
	ArgNone ArgKind = iota
	ArgNumber
	ArgColor
)

// Arg is the argument of a parameterized instruction or condition.
type Arg struct {
	Kind   ArgKind
	Number int
	Color  world.Color
}

// count returns the numeric argument, or 1 when there is none.
func (a Arg) count() int {
	if a.Kind == ArgNumber {
		return a.Number
	}
	return 1
}

// opcode is one operation of a compiled program.
type opcode int

const (
	opHalt      opcode = iota
	opInstr            // run a built-in instruction, then yield
	opCond             // evaluate a built-in condition, push the result
	opNot              // negate the top value
	opJump             // pc = target
	opJumpFalse        // pop; jump when false
	opJumpTrue         // pop; jump when true
	opYield            // yield at rng without acting
	opIterInit         // push a counter of n
	opIterNext         // decrement the counter, or pop it and jump when spent
	opCall             // call the procedure at target
	opCallCond         // call the condition at target, push its result
	opResult           // set the condition result of the current frame
	opReturn           // leave the current procedure or condition
)

type op struct {
	code   opcode
	instr  Instr
	cond   Cond
	arg    Arg
	n      int
	value  bool
	target int
	name   string // callee, resolved to target after compilation
	rng    syntax.Range
}
