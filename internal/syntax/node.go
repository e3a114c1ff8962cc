// Package syntax turns Karol source text into the immutable parse tree the
// engine consumes.
//
// Tree shapes (T = token child, S = statement child):
//
//	karol-program      (definition | statement | T)*
//	definition         T(anweisung|bedingung) T(name) S* T(end)
//	statement          iteration | loop | conditional | instruction |
//	                   parameterizedinstruction | customMethodCall
//	iteration          T(wiederhole) number T(mal) S* T(end)
//	loop               T(wiederhole) T(solange) conditionexpression S* T(end)
//	                   T(wiederhole) S* T(end) T(solange|bis) conditionexpression
//	                   T(wiederhole) T(immer) S* T(end)
//	conditional        T(wenn) conditionexpression T(dann) S* [T(sonst) S*] T(end)
//	conditionexpression T(nicht) conditionexpression
//	                   | condition | parameterizedcondition | customConditionCall
//
// Call nodes carry their identifier in Name; parameterized nodes hold exactly
// one number or color child.
package syntax

import (
	"fmt"
	"strings"
)

// Kind tags a parse tree node.
type Kind int

const (
	KindToken Kind = iota
	KindProgram
	KindDefinition
	KindStatement
	KindIteration
	KindLoop
	KindConditional
	KindInstruction
	KindParameterizedInstruction
	KindConditionExpression
	KindCondition
	KindParameterizedCondition
	KindCustomMethodCall
	KindCustomConditionCall
	KindNumber
	KindColor
)

var kindNames = [...]string{
	KindToken:                    "token",
	KindProgram:                  "karol-program",
	KindDefinition:               "definition",
	KindStatement:                "statement",
	KindIteration:                "iteration",
	KindLoop:                     "loop",
	KindConditional:              "conditional",
	KindInstruction:              "instruction",
	KindParameterizedInstruction: "parameterizedinstruction",
	KindConditionExpression:      "conditionexpression",
	KindCondition:                "condition",
	KindParameterizedCondition:   "parameterizedcondition",
	KindCustomMethodCall:         "customMethodCall",
	KindCustomConditionCall:      "customConditionCall",
	KindNumber:                   "number",
	KindColor:                    "color",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Range is a source span. Lines and columns are 1-based; EndCol is the
// column just past the last character.
type Range struct {
	StartLine int `json:"startLine"`
	StartCol  int `json:"startCol"`
	EndLine   int `json:"endLine"`
	EndCol    int `json:"endCol"`
}

func (r Range) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.StartLine, r.StartCol, r.EndLine, r.EndCol)
}

// IsZero reports whether r carries no position.
func (r Range) IsZero() bool {
	return r == Range{}
}

// Offsets converts r to byte offsets into src, suitable for slicing.
func (r Range) Offsets(src string) (start, end int) {
	return lineColOffset(src, r.StartLine, r.StartCol), lineColOffset(src, r.EndLine, r.EndCol)
}

// lineColOffset maps a 1-based line and rune column to a byte offset,
// clamping to the source length.
func lineColOffset(src string, line, col int) int {
	off := 0
	for l := 1; l < line; l++ {
		i := strings.IndexByte(src[off:], '\n')
		if i < 0 {
			return len(src)
		}
		off += i + 1
	}
	c := 1
	for i := range src[off:] {
		if c == col || src[off+i] == '\n' {
			return off + i
		}
		c++
	}
	return len(src)
}

// Node is one parse tree node. Trees are never mutated after Parse returns.
type Node struct {
	Kind     Kind
	Children []*Node
	Text     string // literal source text
	Name     string // identifier for call and definition nodes
	Range    Range

	start, end int // byte offsets, used while assembling
}

// Tokens returns the direct token children.
func (n *Node) Tokens() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == KindToken {
			out = append(out, c)
		}
	}
	return out
}

// IsToken reports whether n is a token whose text equals one of words,
// ignoring case.
func (n *Node) IsToken(words ...string) bool {
	if n.Kind != KindToken {
		return false
	}
	for _, w := range words {
		if strings.EqualFold(n.Text, w) {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants depth-first.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Dump renders the tree one node per line, for debugging and the check
// command.
func (n *Node) Dump() string {
	var sb strings.Builder
	n.dump(&sb, 0)
	return sb.String()
}

func (n *Node) dump(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(n.Kind.String())
	switch {
	case n.Name != "":
		fmt.Fprintf(sb, " %s", n.Name)
	case n.Kind == KindToken || n.Kind == KindNumber || n.Kind == KindColor:
		fmt.Fprintf(sb, " %q", n.Text)
	}
	fmt.Fprintf(sb, " [%s]\n", n.Range)
	for _, c := range n.Children {
		c.dump(sb, depth+1)
	}
}
