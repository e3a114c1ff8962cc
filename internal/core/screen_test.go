package core

import (
	"strings"
	"testing"
)

func TestNewScreen(t *testing.T) {
	s := NewScreen(4, 2)
	if s.Width() != 4 || s.Height() != 2 {
		t.Fatalf("Size = %dx%d, expected 4x2", s.Width(), s.Height())
	}
	if s.String() != "    \n    " {
		t.Errorf("New screen = %q, expected blanks", s.String())
	}
}

func TestScreenSetGetCell(t *testing.T) {
	s := NewScreen(3, 3)
	s.SetCell(1, 2, Cell{Rune: '#', Color: ColorRed})

	if got := s.GetCell(1, 2); got != (Cell{Rune: '#', Color: ColorRed}) {
		t.Errorf("GetCell(1, 2) = %+v", got)
	}
	if s.Get(1, 2) != '#' {
		t.Errorf("Get(1, 2) = %q, expected '#'", s.Get(1, 2))
	}

	// out of bounds is ignored
	s.SetCell(3, 0, Cell{Rune: 'x'})
	s.Set(-1, 0, 'x')
	if s.Get(3, 0) != ' ' || strings.ContainsRune(s.String(), 'x') {
		t.Error("Out-of-bounds write changed the screen")
	}
}

func TestScreenClear(t *testing.T) {
	s := NewScreen(2, 2)
	s.Set(0, 0, 'a')
	s.Clear()
	if got := s.GetCell(0, 0); got != (Cell{Rune: ' '}) {
		t.Errorf("Cell after Clear() = %+v", got)
	}
}

func TestScreenDrawText(t *testing.T) {
	s := NewScreen(5, 1)
	s.DrawText(2, 0, "Karol", ColorYellow)
	if s.Row(0) != "  Kar" {
		t.Errorf("Row(0) = %q, expected clipped text", s.Row(0))
	}
	if s.GetCell(3, 0).Color != ColorYellow {
		t.Errorf("Text color = %v, expected yellow", s.GetCell(3, 0).Color)
	}

	c := NewScreen(7, 1)
	c.DrawTextCentered(0, "abc", ColorDefault)
	if c.Row(0) != "  abc  " {
		t.Errorf("Centered row = %q", c.Row(0))
	}
}

func TestScreenDrawBox(t *testing.T) {
	s := NewScreen(4, 3)
	s.DrawBox(s.Bounds(), ColorGray)
	expected := "┌──┐\n│  │\n└──┘"
	if s.String() != expected {
		t.Errorf("Box =\n%s\nexpected\n%s", s.String(), expected)
	}
	if s.GetCell(0, 0).Color != ColorGray {
		t.Error("Box corner lost its color")
	}
}

func TestScreenResize(t *testing.T) {
	s := NewScreen(3, 2)
	s.DrawText(0, 0, "abc", ColorDefault)
	s.DrawText(0, 1, "def", ColorDefault)

	s.Resize(2, 3)
	if s.Width() != 2 || s.Height() != 3 {
		t.Fatalf("Size after Resize = %dx%d", s.Width(), s.Height())
	}
	if s.String() != "ab\nde\n  " {
		t.Errorf("Resized screen = %q", s.String())
	}
}

func TestScreenRowOutOfRange(t *testing.T) {
	s := NewScreen(2, 1)
	if s.Row(1) != "" || s.Row(-1) != "" {
		t.Error("Row outside the screen should be empty")
	}
}
