package syntax

import (
	"errors"
	"strings"
	"testing"
)

// kinds lists the kinds of n's children, writing tokens as their text.
func kinds(n *Node) []string {
	out := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Kind == KindToken {
			out = append(out, strings.ToLower(c.Text))
		} else {
			out = append(out, c.Kind.String())
		}
	}
	return out
}

func mustParse(t *testing.T, src string) *Node {
	t.Helper()
	n, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	return n
}

// stmt returns the construct inside the i-th top-level statement.
func stmt(t *testing.T, prog *Node, i int) *Node {
	t.Helper()
	var stmts []*Node
	for _, c := range prog.Children {
		if c.Kind == KindStatement {
			stmts = append(stmts, c)
		}
	}
	if i >= len(stmts) {
		t.Fatalf("Program has %d statements, wanted index %d", len(stmts), i)
	}
	if len(stmts[i].Children) != 1 {
		t.Fatalf("Statement has %d children, expected 1", len(stmts[i].Children))
	}
	return stmts[i].Children[0]
}

func equal(a, b []string) bool {
	return strings.Join(a, ",") == strings.Join(b, ",")
}

func TestParseInstructions(t *testing.T) {
	prog := mustParse(t, "Schritt LinksDrehen\nKarol.Hinlegen(rot) Schritt(3)")

	if prog.Kind != KindProgram {
		t.Fatalf("Root kind = %v", prog.Kind)
	}
	tests := []struct {
		kind Kind
		name string
	}{
		{KindInstruction, "Schritt"},
		{KindInstruction, "LinksDrehen"},
		{KindParameterizedInstruction, "Hinlegen"},
		{KindParameterizedInstruction, "Schritt"},
	}
	for i, tc := range tests {
		n := stmt(t, prog, i)
		if n.Kind != tc.kind || !strings.EqualFold(n.Name, tc.name) {
			t.Errorf("Statement %d = %v %q, expected %v %q", i, n.Kind, n.Name, tc.kind, tc.name)
		}
	}

	arg := stmt(t, prog, 2).Children
	var color *Node
	for _, c := range arg {
		if c.Kind == KindColor {
			color = c
		}
	}
	if color == nil || !strings.EqualFold(color.Text, "rot") {
		t.Errorf("Expected color child rot, got %v", kinds(stmt(t, prog, 2)))
	}
}

func TestParseRange(t *testing.T) {
	prog := mustParse(t, "Schritt\n  LinksDrehen")

	first := stmt(t, prog, 0)
	want := Range{StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 8}
	if first.Range != want {
		t.Errorf("Range = %v, expected %v", first.Range, want)
	}
	second := stmt(t, prog, 1)
	want = Range{StartLine: 2, StartCol: 3, EndLine: 2, EndCol: 14}
	if second.Range != want {
		t.Errorf("Range = %v, expected %v", second.Range, want)
	}
}

func TestParseLoopShapes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind Kind
		want []string
	}{
		{
			name: "iteration",
			src:  "wiederhole 3 mal Schritt *wiederhole",
			kind: KindIteration,
			want: []string{"wiederhole", "number", "mal", "statement", "*wiederhole"},
		},
		{
			name: "pre-condition while",
			src:  "wiederhole solange NichtIstWand Schritt endewiederhole",
			kind: KindLoop,
			want: []string{"wiederhole", "solange", "conditionexpression", "statement", "endewiederhole"},
		},
		{
			name: "post-condition until",
			src:  "wiederhole Schritt LinksDrehen *wiederhole bis IstWand",
			kind: KindLoop,
			want: []string{"wiederhole", "statement", "statement", "*wiederhole", "bis", "conditionexpression"},
		},
		{
			name: "post-condition while",
			src:  "wiederhole Schritt endewiederhole solange nicht IstWand",
			kind: KindLoop,
			want: []string{"wiederhole", "statement", "endewiederhole", "solange", "conditionexpression"},
		},
		{
			name: "forever",
			src:  "wiederhole immer Schritt *wiederhole",
			kind: KindLoop,
			want: []string{"wiederhole", "immer", "statement", "*wiederhole"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n := stmt(t, mustParse(t, tc.src), 0)
			if n.Kind != tc.kind {
				t.Fatalf("Kind = %v, expected %v", n.Kind, tc.kind)
			}
			if got := kinds(n); !equal(got, tc.want) {
				t.Errorf("Children = %v, expected %v", got, tc.want)
			}
		})
	}
}

func TestParseConditional(t *testing.T) {
	n := stmt(t, mustParse(t, "wenn IstZiegel(2) dann Aufheben sonst Hinlegen Schritt *wenn"), 0)

	want := []string{"wenn", "conditionexpression", "dann", "statement", "sonst", "statement", "statement", "*wenn"}
	if got := kinds(n); !equal(got, want) {
		t.Fatalf("Children = %v, expected %v", got, want)
	}
	cond := n.Children[1].Children[0]
	if cond.Kind != KindParameterizedCondition {
		t.Errorf("Condition kind = %v, expected parameterizedcondition", cond.Kind)
	}
}

func TestParseNegation(t *testing.T) {
	n, err := ParseCondition("nicht nicht IstMarke(blau)")
	if err != nil {
		t.Fatalf("ParseCondition failed: %v", err)
	}
	if got := kinds(n); !equal(got, []string{"nicht", "conditionexpression"}) {
		t.Fatalf("Children = %v", got)
	}
	inner := n.Children[1]
	if got := kinds(inner); !equal(got, []string{"nicht", "conditionexpression"}) {
		t.Fatalf("Inner children = %v", got)
	}
	leaf := inner.Children[1].Children[0]
	if leaf.Kind != KindParameterizedCondition || Canonical(leaf.Name) != "istmarke" {
		t.Errorf("Innermost = %v %q", leaf.Kind, leaf.Name)
	}
}

func TestParseDefinitions(t *testing.T) {
	src := `{ Zwei Schritte }
Anweisung ZweiSchritte
  Schritt Schritt
*Anweisung

Bedingung VorWand
  wenn IstWand dann wahr sonst falsch *wenn
*Bedingung

Programm
  ZweiSchritte
  wenn VorWand dann LinksDrehen *wenn
*Programm`
	prog := mustParse(t, src)

	want := []string{"definition", "definition", "programm", "statement", "statement", "*programm"}
	if got := kinds(prog); !equal(got, want) {
		t.Fatalf("Program children = %v, expected %v", got, want)
	}

	def := prog.Children[0]
	if def.Name != "ZweiSchritte" {
		t.Errorf("Definition name = %q", def.Name)
	}
	if got := kinds(def); !equal(got, []string{"anweisung", "zweischritte", "statement", "statement", "*anweisung"}) {
		t.Errorf("Definition children = %v", got)
	}

	call := stmt(t, prog, 0)
	if call.Kind != KindCustomMethodCall || call.Name != "ZweiSchritte" {
		t.Errorf("Call = %v %q", call.Kind, call.Name)
	}
	custom := stmt(t, prog, 1).Children[1].Children[0]
	if custom.Kind != KindCustomConditionCall {
		t.Errorf("Condition call kind = %v", custom.Kind)
	}

	result := prog.Children[1].Children[2].Children[0].Children[3].Children[0]
	if result.Kind != KindInstruction || result.Name != "wahr" {
		t.Errorf("Expected wahr instruction, got %v %q", result.Kind, result.Name)
	}
}

func TestParseCaseInsensitive(t *testing.T) {
	n := stmt(t, mustParse(t, "WIEDERHOLE 2 MAL schritt ENDEWIEDERHOLE"), 0)
	if n.Kind != KindIteration {
		t.Errorf("Kind = %v, expected iteration", n.Kind)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"object without brackets", "Karol.Schritt"},
		{"unknown object", "Robi.Schritt()"},
		{"unknown color", "Hinlegen(lila)"},
		{"number on plain instruction", "LinksDrehen(2)"},
		{"color on step", "Schritt(rot)"},
		{"custom call with argument", "Tanzen(2)"},
		{"mismatched closer", "wiederhole 2 mal Schritt *wenn"},
		{"both loop conditions", "wiederhole solange IstWand Schritt *wiederhole bis IstWand"},
		{"bare repeat", "wiederhole Schritt *wiederhole"},
		{"redefine builtin", "Anweisung Schritt LinksDrehen *Anweisung"},
		{"missing dann", "wenn IstWand Schritt *wenn"},
		{"stray character", "Schritt;"},
		{"unterminated block", "wiederhole 3 mal Schritt"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.src)
			var se *Error
			if !errors.As(err, &se) {
				t.Fatalf("Expected *syntax.Error, got %v", err)
			}
			if se.Error() == "" {
				t.Error("Empty error message")
			}
		})
	}
}

func TestRangeOffsets(t *testing.T) {
	src := "Schritt\nwenn IstWand dann LinksDrehen *wenn"
	prog := mustParse(t, src)
	turn := stmt(t, prog, 1).Children[3].Children[0]

	start, end := turn.Range.Offsets(src)
	if got := src[start:end]; got != "LinksDrehen" {
		t.Errorf("Offsets slice = %q, expected LinksDrehen", got)
	}
}

func TestCanonical(t *testing.T) {
	if got := Canonical("MarkeLoeschen"); got != "markelöschen" {
		t.Errorf("Canonical = %q", got)
	}
	if got := Canonical("IstSueden"); got != "istsüden" {
		t.Errorf("Canonical = %q", got)
	}
	if got := Canonical("Zurueck"); got != "zurueck" {
		t.Errorf("User names must not be folded, got %q", got)
	}
}

func TestErrorIncomplete(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"wiederhole 3 mal Schritt", true},
		{"wenn IstWand dann\n  LinksDrehen\n", true},
		{"Schritt )", false},
		{"Schritt;\nSchritt", false},
	}
	for _, tc := range tests {
		_, err := Parse(tc.src)
		var se *Error
		if !errors.As(err, &se) {
			t.Fatalf("Parse(%q) = %v, expected *syntax.Error", tc.src, err)
		}
		if got := se.Incomplete(tc.src); got != tc.want {
			t.Errorf("Incomplete(%q) = %v, expected %v (error %v)", tc.src, got, tc.want, se)
		}
	}
}
