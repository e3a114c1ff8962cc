package syntax

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/vovakirdan/tui-karol/internal/world"
)

// Error is a syntax error. Execution never starts for a program that fails
// to parse.
type Error struct {
	Line int
	Col  int
	Msg  string
}

func (e *Error) Error() string {
	if e.Line == 0 {
		return "syntax error: " + e.Msg
	}
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// Incomplete reports whether the error lies past the last non-blank
// character of src, that is, more input could still complete the program.
func (e *Error) Incomplete(src string) bool {
	trimmed := strings.TrimRightFunc(src, unicode.IsSpace)
	if e.Line == 0 || trimmed == "" {
		return false
	}
	line := strings.Count(trimmed, "\n") + 1
	col := utf8.RuneCountInString(trimmed[strings.LastIndexByte(trimmed, '\n')+1:])
	return e.Line > line || (e.Line == line && e.Col > col)
}

func errorAt(tok lexer.Token, format string, args ...any) *Error {
	return &Error{Line: tok.Pos.Line, Col: tok.Pos.Column, Msg: fmt.Sprintf(format, args...)}
}

func wrapParseError(err error) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		return &Error{Line: pos.Line, Col: pos.Column, Msg: perr.Message()}
	}
	return &Error{Msg: err.Error()}
}

// Parse parses a complete Karol program.
func Parse(src string) (*Node, error) {
	g, err := programParser.ParseString("", src)
	if err != nil {
		return nil, wrapParseError(err)
	}
	return (&lowerer{}).program(g)
}

// ParseCondition parses a single condition expression such as
// "nicht IstWand".
func ParseCondition(src string) (*Node, error) {
	g, err := conditionParser.ParseString("", src)
	if err != nil {
		return nil, wrapParseError(err)
	}
	return (&lowerer{}).condExpr(g)
}

// MustParse is like Parse but panics on error. Intended for built-in
// examples and tests.
func MustParse(src string) *Node {
	n, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return n
}

// lowerer converts the grammar structs into Nodes.
type lowerer struct{}

func realTokens(toks []lexer.Token) []lexer.Token {
	out := make([]lexer.Token, 0, len(toks))
	for _, t := range toks {
		if !skipTokens[t.Type] && !t.EOF() {
			out = append(out, t)
		}
	}
	return out
}

func tokenEnd(t lexer.Token) (offset, col int) {
	return t.Pos.Offset + len(t.Value), t.Pos.Column + utf8.RuneCountInString(t.Value)
}

// assemble builds a node spanning toks. Tokens not covered by a child become
// token children, so the result lists keywords and children in source order.
func assemble(kind Kind, name string, toks []lexer.Token, children []*Node) *Node {
	toks = realTokens(toks)
	n := &Node{Kind: kind, Name: name}
	if len(toks) == 0 {
		n.Children = children
		return n
	}
	first, last := toks[0], toks[len(toks)-1]
	endOff, endCol := tokenEnd(last)
	n.start, n.end = first.Pos.Offset, endOff
	n.Range = Range{StartLine: first.Pos.Line, StartCol: first.Pos.Column, EndLine: last.Pos.Line, EndCol: endCol}

	all := append([]*Node(nil), children...)
	for _, t := range toks {
		covered := false
		for _, c := range children {
			if t.Pos.Offset >= c.start && t.Pos.Offset < c.end {
				covered = true
				break
			}
		}
		if !covered {
			all = append(all, leaf(KindToken, t))
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].start < all[j].start })
	n.Children = all

	var sb strings.Builder
	for i, t := range toks {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.Value)
	}
	n.Text = sb.String()
	return n
}

func leaf(kind Kind, t lexer.Token) *Node {
	endOff, endCol := tokenEnd(t)
	return &Node{
		Kind:  kind,
		Text:  t.Value,
		Range: Range{StartLine: t.Pos.Line, StartCol: t.Pos.Column, EndLine: t.Pos.Line, EndCol: endCol},
		start: t.Pos.Offset,
		end:   endOff,
	}
}

// lastToken returns the final significant token of toks.
func lastToken(toks []lexer.Token) lexer.Token {
	sig := realTokens(toks)
	if len(sig) == 0 {
		return lexer.Token{}
	}
	return sig[len(sig)-1]
}

func firstToken(toks []lexer.Token) lexer.Token {
	sig := realTokens(toks)
	if len(sig) == 0 {
		return lexer.Token{}
	}
	return sig[0]
}

func checkEnd(toks []lexer.Token, end string, want string) error {
	e := strings.ToLower(end)
	if e == "*"+want || e == "ende"+want {
		return nil
	}
	return errorAt(lastToken(toks), "expected *%s, found %s", want, end)
}

func (l *lowerer) program(g *gProgram) (*Node, error) {
	var children []*Node
	for _, it := range g.Items {
		switch {
		case it.Definition != nil:
			d, err := l.definition(it.Definition)
			if err != nil {
				return nil, err
			}
			children = append(children, d)
		case it.Main != nil:
			if err := checkEnd(it.Main.Tokens, it.Main.End, "programm"); err != nil {
				return nil, err
			}
			for _, s := range it.Main.Body {
				st, err := l.statement(s)
				if err != nil {
					return nil, err
				}
				children = append(children, st)
			}
		case it.Statement != nil:
			st, err := l.statement(it.Statement)
			if err != nil {
				return nil, err
			}
			children = append(children, st)
		}
	}
	return assemble(KindProgram, "", g.Tokens, children), nil
}

func (l *lowerer) statements(gs []*gStatement) ([]*Node, error) {
	out := make([]*Node, 0, len(gs))
	for _, s := range gs {
		n, err := l.statement(s)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (l *lowerer) definition(g *gDefinition) (*Node, error) {
	kw := strings.ToLower(g.Keyword)
	if err := checkEnd(g.Tokens, g.End, kw); err != nil {
		return nil, err
	}
	if _, ok := BuiltinInstruction(g.Name); ok {
		return nil, errorAt(firstToken(g.Tokens), "%s is a built-in instruction and cannot be redefined", g.Name)
	}
	if _, ok := BuiltinCondition(g.Name); ok {
		return nil, errorAt(firstToken(g.Tokens), "%s is a built-in condition and cannot be redefined", g.Name)
	}
	body, err := l.statements(g.Body)
	if err != nil {
		return nil, err
	}
	return assemble(KindDefinition, g.Name, g.Tokens, body), nil
}

func (l *lowerer) statement(g *gStatement) (*Node, error) {
	var child *Node
	var err error
	switch {
	case g.Repeat != nil:
		child, err = l.repeat(g.Repeat)
	case g.If != nil:
		child, err = l.conditional(g.If)
	case g.Result != "":
		child = assemble(KindInstruction, strings.ToLower(g.Result), g.Tokens, nil)
	case g.Call != nil:
		child, err = l.call(g.Call, false)
	}
	if err != nil {
		return nil, err
	}
	return assemble(KindStatement, "", g.Tokens, []*Node{child}), nil
}

func (l *lowerer) repeat(g *gRepeat) (*Node, error) {
	if err := checkEnd(g.Tokens, g.End, "wiederhole"); err != nil {
		return nil, err
	}
	head := 0
	for _, set := range []bool{g.Times != nil, g.Pre != nil, g.Forever} {
		if set {
			head++
		}
	}
	if head > 0 && g.PostKw != "" {
		return nil, errorAt(lastToken(g.Tokens), "wiederhole cannot have a condition at both ends")
	}
	if head == 0 && g.PostKw == "" {
		return nil, errorAt(firstToken(g.Tokens), "wiederhole needs mal, solange, bis or immer")
	}

	var children []*Node
	kind := KindLoop
	switch {
	case g.Times != nil:
		kind = KindIteration
		children = append(children, l.number(g.Times))
	case g.Pre != nil:
		c, err := l.condExpr(g.Pre)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	body, err := l.statements(g.Body)
	if err != nil {
		return nil, err
	}
	children = append(children, body...)
	if g.Post != nil {
		c, err := l.condExpr(g.Post)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	return assemble(kind, "", g.Tokens, children), nil
}

func (l *lowerer) conditional(g *gIf) (*Node, error) {
	if err := checkEnd(g.Tokens, g.End, "wenn"); err != nil {
		return nil, err
	}
	cond, err := l.condExpr(g.Cond)
	if err != nil {
		return nil, err
	}
	then, err := l.statements(g.Then)
	if err != nil {
		return nil, err
	}
	els, err := l.statements(g.Else)
	if err != nil {
		return nil, err
	}
	children := append([]*Node{cond}, then...)
	children = append(children, els...)
	return assemble(KindConditional, "", g.Tokens, children), nil
}

func (l *lowerer) condExpr(g *gCondExpr) (*Node, error) {
	var child *Node
	var err error
	if g.Not != nil {
		child, err = l.condExpr(g.Not)
	} else {
		child, err = l.call(g.Call, true)
	}
	if err != nil {
		return nil, err
	}
	return assemble(KindConditionExpression, "", g.Tokens, []*Node{child}), nil
}

func (l *lowerer) number(g *gNumber) *Node {
	return leaf(KindNumber, firstToken(g.Tokens))
}

// call classifies an identifier use as a built-in or a user-defined call.
func (l *lowerer) call(g *gCall, condition bool) (*Node, error) {
	at := firstToken(g.Tokens)
	if g.Object != "" {
		if !strings.EqualFold(g.Object, "karol") {
			return nil, errorAt(at, "unknown object %s", g.Object)
		}
		if !g.Parens {
			return nil, errorAt(at, "%s.%s needs brackets", g.Object, g.Name)
		}
	}

	var arg *Node
	if g.Arg != nil {
		if g.Arg.Number != nil {
			arg = l.number(g.Arg.Number)
		} else {
			tok := firstToken(g.Arg.Tokens)
			if _, ok := world.ParseColor(g.Arg.Color); !ok {
				return nil, errorAt(tok, "unknown color %s", g.Arg.Color)
			}
			arg = leaf(KindColor, tok)
		}
	}

	lookup, plain, param, custom := BuiltinInstruction, KindInstruction, KindParameterizedInstruction, KindCustomMethodCall
	if condition {
		lookup, plain, param, custom = BuiltinCondition, KindCondition, KindParameterizedCondition, KindCustomConditionCall
	}

	kinds, ok := lookup(g.Name)
	switch {
	case !ok && arg != nil:
		return nil, errorAt(at, "%s takes no arguments", g.Name)
	case !ok:
		return assemble(custom, g.Name, g.Tokens, nil), nil
	case arg == nil:
		if !kinds.None {
			return nil, errorAt(at, "%s needs an argument", g.Name)
		}
		return assemble(plain, g.Name, g.Tokens, nil), nil
	case arg.Kind == KindNumber && !kinds.Number:
		return nil, errorAt(at, "%s does not take a number", g.Name)
	case arg.Kind == KindColor && !kinds.Color:
		return nil, errorAt(at, "%s does not take a color", g.Name)
	}
	return assemble(param, g.Name, g.Tokens, []*Node{arg}), nil
}
