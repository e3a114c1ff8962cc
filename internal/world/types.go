// Package world holds the Karol grid: a dense 3D field array plus a sparse
// marker map. It has no knowledge of the robot or of programs; it only
// answers bounds and occupancy queries and rejects invalid writes.
package world

import (
	"fmt"
	"strings"
)

// Coord2d is a position on the ground plane.
type Coord2d struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// Coord3d is a full grid position. Y is the stack level, 0 is the floor.
type Coord3d struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Flat drops the height component.
func (c Coord3d) Flat() Coord2d {
	return Coord2d{X: c.X, Z: c.Z}
}

// At lifts a ground position to the given height.
func (c Coord2d) At(y int) Coord3d {
	return Coord3d{X: c.X, Y: y, Z: c.Z}
}

func (c Coord2d) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Z)
}

func (c Coord3d) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

// Direction is the robot heading. Values are cyclic: turning right adds one
// modulo 4.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// offsets is indexed by Direction.
var offsets = [4]Coord2d{
	North: {X: 0, Z: -1},
	East:  {X: 1, Z: 0},
	South: {X: 0, Z: 1},
	West:  {X: -1, Z: 0},
}

// Valid reports whether d is one of the four headings.
func (d Direction) Valid() bool {
	return d >= North && d <= West
}

// TurnLeft returns the heading after a quarter turn counter-clockwise.
func (d Direction) TurnLeft() Direction {
	return (d + 3) % 4
}

// TurnRight returns the heading after a quarter turn clockwise.
func (d Direction) TurnRight() Direction {
	return (d + 1) % 4
}

// Offset returns the ground-plane step for one move in this direction.
func (d Direction) Offset() Coord2d {
	return offsets[d%4]
}

// String returns a human-readable name for the direction.
func (d Direction) String() string {
	switch d {
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	case West:
		return "West"
	default:
		return "Unknown"
	}
}

// Color is a brick or marker color. The values are the German names used by
// the Karol language and by snapshot files.
type Color string

const (
	Yellow Color = "gelb"
	Red    Color = "rot"
	Blue   Color = "blau"
	Green  Color = "grün"
	Black  Color = "schwarz"
)

// DefaultBrickColor is used when a brick is laid without a color argument.
const DefaultBrickColor = Red

// DefaultMarkerColor is used when a marker is set without a color argument.
const DefaultMarkerColor = Yellow

// Colors lists the palette in a stable order.
func Colors() []Color {
	return []Color{Yellow, Red, Blue, Green, Black}
}

// Valid reports whether c belongs to the palette.
func (c Color) Valid() bool {
	switch c {
	case Yellow, Red, Blue, Green, Black:
		return true
	}
	return false
}

// ParseColor matches a color name case-insensitively. "gruen" is accepted
// as a spelling of "grün".
func ParseColor(s string) (Color, bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "gruen" {
		name = string(Green)
	}
	c := Color(name)
	return c, c.Valid()
}

// FieldType is the content of one grid cell.
type FieldType int

const (
	Empty FieldType = iota
	Karol
	Wall
	BrickRed
	BrickYellow
	BrickBlue
	BrickGreen
	BrickBlack
)

// fieldTypeCount bounds the valid FieldType values.
const fieldTypeCount = BrickBlack + 1

// Valid reports whether t is a declared field type.
func (t FieldType) Valid() bool {
	return t >= Empty && t < fieldTypeCount
}

// IsBrick reports whether t is a brick of any color.
func (t FieldType) IsBrick() bool {
	return t >= BrickRed && t <= BrickBlack
}

// BrickColor returns the color of a brick field. ok is false for non-bricks.
func (t FieldType) BrickColor() (c Color, ok bool) {
	switch t {
	case BrickRed:
		return Red, true
	case BrickYellow:
		return Yellow, true
	case BrickBlue:
		return Blue, true
	case BrickGreen:
		return Green, true
	case BrickBlack:
		return Black, true
	}
	return "", false
}

// BrickOf returns the brick field for a color. Unknown colors map to the
// default brick color.
func BrickOf(c Color) FieldType {
	switch c {
	case Yellow:
		return BrickYellow
	case Blue:
		return BrickBlue
	case Green:
		return BrickGreen
	case Black:
		return BrickBlack
	default:
		return BrickRed
	}
}

func (t FieldType) String() string {
	switch t {
	case Empty:
		return "empty"
	case Karol:
		return "karol"
	case Wall:
		return "wall"
	}
	if c, ok := t.BrickColor(); ok {
		return "brick(" + string(c) + ")"
	}
	return fmt.Sprintf("FieldType(%d)", int(t))
}
