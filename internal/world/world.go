package world

import (
	"errors"
	"fmt"
	"sort"
)

// World is the dense 3D grid plus the marker map.
// The zero value is not usable; create worlds with New.
type World struct {
	dims    Coord3d
	fields  [][][]FieldType // indexed [x][y][z]
	markers map[Coord2d]Color
}

// Marker is a marker with its derived display height.
type Marker struct {
	Position Coord3d
	Color    Color
}

// New creates an empty world of the given size. Every dimension must be at
// least one.
func New(x, y, z int) (*World, error) {
	w := &World{}
	if err := w.Init(x, y, z); err != nil {
		return nil, err
	}
	return w, nil
}

// MustNew is like New but panics on invalid dimensions.
func MustNew(x, y, z int) *World {
	w, err := New(x, y, z)
	if err != nil {
		panic(err)
	}
	return w
}

// Init reallocates the grid with all cells empty and drops all markers.
func (w *World) Init(x, y, z int) error {
	if x < 1 || y < 1 || z < 1 {
		return fmt.Errorf("world: invalid dimensions %dx%dx%d", x, y, z)
	}
	w.dims = Coord3d{X: x, Y: y, Z: z}
	w.fields = make([][][]FieldType, x)
	for i := range w.fields {
		w.fields[i] = make([][]FieldType, y)
		for j := range w.fields[i] {
			w.fields[i][j] = make([]FieldType, z)
		}
	}
	w.markers = make(map[Coord2d]Color)
	return nil
}

// Reset empties the grid, keeping its dimensions.
func (w *World) Reset() {
	//nolint:errcheck // current dimensions are always valid
	w.Init(w.dims.X, w.dims.Y, w.dims.Z)
}

// Dimensions returns the grid size.
func (w *World) Dimensions() Coord3d {
	return w.dims
}

// IsValid reports whether pos lies inside the grid.
func (w *World) IsValid(pos Coord3d) bool {
	return pos.X >= 0 && pos.X < w.dims.X &&
		pos.Y >= 0 && pos.Y < w.dims.Y &&
		pos.Z >= 0 && pos.Z < w.dims.Z
}

// IsValidGround reports whether the column at c lies inside the grid.
func (w *World) IsValidGround(c Coord2d) bool {
	return w.IsValid(c.At(0))
}

// Field returns the content of a cell. Out-of-bounds cells read as Wall.
func (w *World) Field(pos Coord3d) FieldType {
	if !w.IsValid(pos) {
		return Wall
	}
	return w.fields[pos.X][pos.Y][pos.Z]
}

// SetField writes a cell.
func (w *World) SetField(pos Coord3d, t FieldType) error {
	if !w.IsValid(pos) {
		return &BoundsError{Pos: pos, Dimensions: w.dims}
	}
	if !t.Valid() {
		return fmt.Errorf("world: invalid field type %d", int(t))
	}
	w.fields[pos.X][pos.Y][pos.Z] = t
	return nil
}

// FirstFreeY returns the lowest level in the column at (x, z) that is empty
// or occupied by Karol. Bricks and walls block. The result equals the grid
// height when the column is full.
func (w *World) FirstFreeY(x, z int) int {
	y := 0
	for {
		pos := Coord3d{X: x, Y: y, Z: z}
		if !w.IsValid(pos) {
			return y
		}
		if f := w.fields[x][y][z]; f == Empty || f == Karol {
			return y
		}
		y++
	}
}

// BrickHeight counts the contiguous bricks from the floor at (x, z).
func (w *World) BrickHeight(x, z int) int {
	n := 0
	for w.Field(Coord3d{X: x, Y: n, Z: z}).IsBrick() {
		n++
	}
	return n
}

// HasBrick reports whether the brick stack at (x, z) contains a brick of
// the given color.
func (w *World) HasBrick(c Color, x, z int) bool {
	want := BrickOf(c)
	for y := 0; ; y++ {
		f := w.Field(Coord3d{X: x, Y: y, Z: z})
		if !f.IsBrick() {
			return false
		}
		if f == want {
			return true
		}
	}
}

// SetMarker places or recolors the marker at c.
func (w *World) SetMarker(c Coord2d, color Color) error {
	if !w.IsValidGround(c) {
		return &BoundsError{Pos: c.At(0), Dimensions: w.dims}
	}
	if !color.Valid() {
		return fmt.Errorf("world: invalid marker color %q", color)
	}
	w.markers[c] = color
	return nil
}

// Marker returns the marker color at c.
func (w *World) Marker(c Coord2d) (Color, bool) {
	color, ok := w.markers[c]
	return color, ok
}

// DeleteMarker removes the marker at c.
func (w *World) DeleteMarker(c Coord2d) error {
	if !w.IsValidGround(c) {
		return &BoundsError{Pos: c.At(0), Dimensions: w.dims}
	}
	if _, ok := w.markers[c]; !ok {
		return &NotFoundError{Pos: c}
	}
	delete(w.markers, c)
	return nil
}

// Markers lists all markers ordered by x then z. The height of each marker
// is the first free level of its column.
func (w *World) Markers() []Marker {
	out := make([]Marker, 0, len(w.markers))
	for c, color := range w.markers {
		out = append(out, Marker{Position: c.At(w.FirstFreeY(c.X, c.Z)), Color: color})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Position, out[j].Position
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Z < b.Z
	})
	return out
}

// ClearKarol empties every cell occupied by Karol.
func (w *World) ClearKarol() {
	for x := range w.fields {
		for y := range w.fields[x] {
			for z, f := range w.fields[x][y] {
				if f == Karol {
					w.fields[x][y][z] = Empty
				}
			}
		}
	}
}

// Clone returns a deep copy.
func (w *World) Clone() *World {
	c := &World{dims: w.dims, markers: make(map[Coord2d]Color, len(w.markers))}
	c.fields = make([][][]FieldType, len(w.fields))
	for x := range w.fields {
		c.fields[x] = make([][]FieldType, len(w.fields[x]))
		for y := range w.fields[x] {
			c.fields[x][y] = append([]FieldType(nil), w.fields[x][y]...)
		}
	}
	for k, v := range w.markers {
		c.markers[k] = v
	}
	return c
}

// State is the serialized form of a world.
type State struct {
	Dimensions Coord3d         `json:"dimensions"`
	Fields     [][][]FieldType `json:"fields"`
	Markers    []MarkerState   `json:"markers"`
}

// MarkerState is one serialized marker.
type MarkerState struct {
	Position Coord2d `json:"position"`
	Color    Color   `json:"color"`
}

// Serialize captures the full world state.
func (w *World) Serialize() State {
	st := State{
		Dimensions: w.dims,
		Fields:     w.Clone().fields,
		Markers:    make([]MarkerState, 0, len(w.markers)),
	}
	for _, m := range w.Markers() {
		st.Markers = append(st.Markers, MarkerState{Position: m.Position.Flat(), Color: m.Color})
	}
	return st
}

// Deserialize replaces the world with st. On error the world is unchanged.
func (w *World) Deserialize(st State) error {
	next := &World{}
	d := st.Dimensions
	if err := next.Init(d.X, d.Y, d.Z); err != nil {
		return err
	}
	if len(st.Fields) != d.X {
		return errors.New("world: field array does not match dimensions")
	}
	for x := range st.Fields {
		if len(st.Fields[x]) != d.Y {
			return errors.New("world: field array does not match dimensions")
		}
		for y := range st.Fields[x] {
			if len(st.Fields[x][y]) != d.Z {
				return errors.New("world: field array does not match dimensions")
			}
			for z, f := range st.Fields[x][y] {
				if err := next.SetField(Coord3d{X: x, Y: y, Z: z}, f); err != nil {
					return err
				}
			}
		}
	}
	for _, m := range st.Markers {
		if err := next.SetMarker(m.Position, m.Color); err != nil {
			return err
		}
	}
	*w = *next
	return nil
}

// CopyFrom replaces the contents of w with a deep copy of other.
func (w *World) CopyFrom(other *World) {
	*w = *other.Clone()
}
