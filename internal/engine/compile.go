package engine

import (
	"strconv"

	"github.com/vovakirdan/tui-karol/internal/syntax"
	"github.com/vovakirdan/tui-karol/internal/world"
)

// Program is a parse tree compiled to a flat operation list. The main body
// starts at index 0 and ends in a halt; procedure and condition bodies
// follow, each ending in a return.
type Program struct {
	ops   []op
	procs map[string]int
	conds map[string]int
}

// Procedures lists the user-defined procedure names (lower case).
func (p *Program) Procedures() []string { return keys(p.procs) }

// Conditions lists the user-defined condition names (lower case).
func (p *Program) Conditions() []string { return keys(p.conds) }

func keys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

type definition struct {
	node *syntax.Node
	cond bool
}

type compiler struct {
	ops    []op
	defs   []definition
	procs  map[string]int
	conds  map[string]int
	inCond bool
}

// Compile validates tree and translates it into a Program. Definitions are
// registered before the main body is compiled, so calls may precede the
// definition they refer to.
func Compile(tree *syntax.Node) (*Program, error) {
	if tree == nil || tree.Kind != syntax.KindProgram {
		return nil, internalf(tree, "expected a karol-program node")
	}
	c := &compiler{procs: map[string]int{}, conds: map[string]int{}}

	seen := map[string]bool{}
	for _, n := range tree.Children {
		if n.Kind != syntax.KindDefinition {
			continue
		}
		toks := n.Tokens()
		if len(toks) == 0 || !toks[0].IsToken("anweisung", "bedingung") {
			return nil, internalf(n, "definition without anweisung or bedingung keyword")
		}
		cond := toks[0].IsToken("bedingung")
		key := syntax.Canonical(n.Name)
		if cond {
			key = "?" + key
		}
		if seen[key] {
			return nil, compilef(n, "%s is defined twice", n.Name)
		}
		seen[key] = true
		c.defs = append(c.defs, definition{node: n, cond: cond})
	}

	for _, n := range tree.Children {
		switch n.Kind {
		case syntax.KindDefinition, syntax.KindToken:
		case syntax.KindStatement:
			if err := c.statement(n); err != nil {
				return nil, err
			}
		default:
			return nil, internalf(n, "unexpected %s at top level", n.Kind)
		}
	}
	c.emit(op{code: opHalt})

	for _, d := range c.defs {
		entry := len(c.ops)
		c.inCond = d.cond
		if err := c.statements(d.node); err != nil {
			return nil, err
		}
		c.emit(op{code: opReturn, rng: d.node.Range})
		if d.cond {
			c.conds[syntax.Canonical(d.node.Name)] = entry
		} else {
			c.procs[syntax.Canonical(d.node.Name)] = entry
		}
	}
	c.inCond = false

	for i := range c.ops {
		o := &c.ops[i]
		switch o.code {
		case opCall:
			entry, ok := c.procs[o.name]
			if !ok {
				return nil, &CompileError{Range: o.rng, Msg: "unknown instruction " + o.name}
			}
			o.target = entry
		case opCallCond:
			entry, ok := c.conds[o.name]
			if !ok {
				return nil, &CompileError{Range: o.rng, Msg: "unknown condition " + o.name}
			}
			o.target = entry
		}
	}

	return &Program{ops: c.ops, procs: c.procs, conds: c.conds}, nil
}

func (c *compiler) emit(o op) int {
	c.ops = append(c.ops, o)
	return len(c.ops) - 1
}

func (c *compiler) here() int { return len(c.ops) }

// statements compiles every statement child of n, in order.
func (c *compiler) statements(n *syntax.Node) error {
	return c.statementsWhere(n, func(int) bool { return true })
}

func (c *compiler) statementsWhere(n *syntax.Node, keep func(i int) bool) error {
	for i, child := range n.Children {
		if child.Kind != syntax.KindStatement || !keep(i) {
			continue
		}
		if err := c.statement(child); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) statement(n *syntax.Node) error {
	if n.Kind != syntax.KindStatement || len(n.Children) != 1 {
		return internalf(n, "malformed statement")
	}
	s := n.Children[0]
	switch s.Kind {
	case syntax.KindIteration:
		return c.iteration(s)
	case syntax.KindLoop:
		return c.loop(s)
	case syntax.KindConditional:
		return c.conditional(s)
	case syntax.KindInstruction:
		return c.instruction(s, ArgNone, nil)
	case syntax.KindParameterizedInstruction:
		arg, err := argument(s)
		if err != nil {
			return err
		}
		return c.instruction(s, arg.Kind, &arg)
	case syntax.KindCustomMethodCall:
		c.emit(op{code: opCall, name: syntax.Canonical(s.Name), rng: s.Range})
		return nil
	default:
		return internalf(s, "unexpected %s in statement", s.Kind)
	}
}

func (c *compiler) iteration(n *syntax.Node) error {
	var count *syntax.Node
	for _, ch := range n.Children {
		if ch.Kind == syntax.KindNumber {
			count = ch
			break
		}
	}
	if count == nil {
		return internalf(n, "iteration without a count")
	}
	times, err := strconv.Atoi(count.Text)
	if err != nil || times < 0 {
		return internalf(count, "not a number: %s", count.Text)
	}

	c.emit(op{code: opIterInit, n: times, rng: n.Range})
	top := c.here()
	next := c.emit(op{code: opIterNext, rng: n.Range})
	c.emit(op{code: opYield, rng: n.Range})
	if err := c.statements(n); err != nil {
		return err
	}
	c.emit(op{code: opJump, target: top, rng: n.Range})
	c.ops[next].target = c.here()
	return nil
}

// loop picks the loop form from the position of the solange or bis keyword:
// solange right after wiederhole is a pre-condition loop, a keyword after
// the body is a post-condition loop.
func (c *compiler) loop(n *syntax.Node) error {
	solange, bis := -1, -1
	for i, ch := range n.Children {
		switch {
		case ch.IsToken("solange"):
			solange = i
		case ch.IsToken("bis"):
			bis = i
		case ch.IsToken("immer"):
			return internalf(n, "wiederhole immer is not supported")
		}
	}

	condAt := func(i int) (*syntax.Node, error) {
		if i+1 >= len(n.Children) || n.Children[i+1].Kind != syntax.KindConditionExpression {
			return nil, internalf(n, "loop keyword without a condition")
		}
		return n.Children[i+1], nil
	}

	switch {
	case solange == 1:
		cond, err := condAt(solange)
		if err != nil {
			return err
		}
		top := c.here()
		if err := c.condition(cond); err != nil {
			return err
		}
		c.emit(op{code: opYield, rng: n.Range})
		exit := c.emit(op{code: opJumpFalse, rng: n.Range})
		if err := c.statements(n); err != nil {
			return err
		}
		c.emit(op{code: opJump, target: top, rng: n.Range})
		c.ops[exit].target = c.here()
		return nil

	case solange > 1, bis >= 0:
		at, repeatWhen := solange, opJumpTrue
		if bis >= 0 {
			at, repeatWhen = bis, opJumpFalse
		}
		cond, err := condAt(at)
		if err != nil {
			return err
		}
		top := c.here()
		if err := c.statements(n); err != nil {
			return err
		}
		if err := c.condition(cond); err != nil {
			return err
		}
		c.emit(op{code: opYield, rng: n.Range})
		c.emit(op{code: repeatWhen, target: top, rng: n.Range})
		return nil
	}
	return internalf(n, "this loop construct should not be allowed by the parser")
}

func (c *compiler) conditional(n *syntax.Node) error {
	if len(n.Children) < 2 || n.Children[1].Kind != syntax.KindConditionExpression {
		return internalf(n, "conditional without a condition")
	}
	sonst := len(n.Children)
	for i, ch := range n.Children {
		if ch.IsToken("sonst") {
			sonst = i
		}
	}

	if err := c.condition(n.Children[1]); err != nil {
		return err
	}
	toElse := c.emit(op{code: opJumpFalse, rng: n.Range})
	if err := c.statementsWhere(n, func(i int) bool { return i < sonst }); err != nil {
		return err
	}
	if sonst == len(n.Children) {
		c.ops[toElse].target = c.here()
		return nil
	}
	toEnd := c.emit(op{code: opJump, rng: n.Range})
	c.ops[toElse].target = c.here()
	if err := c.statementsWhere(n, func(i int) bool { return i > sonst }); err != nil {
		return err
	}
	c.ops[toEnd].target = c.here()
	return nil
}

func (c *compiler) instruction(n *syntax.Node, kind ArgKind, arg *Arg) error {
	name := syntax.Canonical(n.Name)
	if name == "wahr" || name == "falsch" {
		if !c.inCond {
			return compilef(n, "%s is only allowed inside a Bedingung", name)
		}
		c.emit(op{code: opResult, value: name == "wahr", rng: n.Range})
		return nil
	}
	instr, ok := instrByName[name]
	if !ok {
		return internalf(n, "unknown instruction %s", n.Name)
	}
	if err := checkArg(n, syntax.BuiltinInstruction, kind); err != nil {
		return err
	}
	o := op{code: opInstr, instr: instr, rng: n.Range}
	if arg != nil {
		o.arg = *arg
	}
	c.emit(o)
	return nil
}

func checkArg(n *syntax.Node, lookup func(string) (syntax.ArgKinds, bool), kind ArgKind) error {
	allowed, _ := lookup(n.Name)
	ok := (kind == ArgNone && allowed.None) ||
		(kind == ArgNumber && allowed.Number) ||
		(kind == ArgColor && allowed.Color)
	if !ok {
		return internalf(n, "%s does not accept this argument", n.Name)
	}
	return nil
}

func (c *compiler) condition(n *syntax.Node) error {
	if n.Kind != syntax.KindConditionExpression || len(n.Children) == 0 {
		return internalf(n, "expected a condition expression")
	}
	if n.Children[0].IsToken("nicht") {
		if len(n.Children) != 2 {
			return internalf(n, "negated condition expression must have exactly one operand")
		}
		if err := c.condition(n.Children[1]); err != nil {
			return err
		}
		c.emit(op{code: opNot, rng: n.Range})
		return nil
	}

	for _, ch := range n.Children {
		switch ch.Kind {
		case syntax.KindCondition:
			return c.builtinCondition(ch, Arg{})
		case syntax.KindParameterizedCondition:
			arg, err := argument(ch)
			if err != nil {
				return err
			}
			return c.builtinCondition(ch, arg)
		case syntax.KindCustomConditionCall:
			c.emit(op{code: opCallCond, name: syntax.Canonical(ch.Name), rng: ch.Range})
			return nil
		}
	}
	return internalf(n, "condition expression without a condition")
}

func (c *compiler) builtinCondition(n *syntax.Node, arg Arg) error {
	cond, ok := condByName[syntax.Canonical(n.Name)]
	if !ok {
		return internalf(n, "unknown condition %s", n.Name)
	}
	if err := checkArg(n, syntax.BuiltinCondition, arg.Kind); err != nil {
		return err
	}
	c.emit(op{code: opCond, cond: cond, arg: arg, rng: n.Range})
	return nil
}

// argument decodes the single number or color child of a parameterized node.
func argument(n *syntax.Node) (Arg, error) {
	for _, ch := range n.Children {
		switch ch.Kind {
		case syntax.KindNumber:
			v, err := strconv.Atoi(ch.Text)
			if err != nil || v < 0 {
				return Arg{}, internalf(ch, "not a number: %s", ch.Text)
			}
			return Arg{Kind: ArgNumber, Number: v}, nil
		case syntax.KindColor:
			col, ok := world.ParseColor(ch.Text)
			if !ok {
				return Arg{}, internalf(ch, "unknown color %s", ch.Text)
			}
			return Arg{Kind: ArgColor, Color: col}, nil
		}
	}
	return Arg{}, internalf(n, "%s without an argument", n.Kind)
}
