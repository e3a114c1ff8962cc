// Package robot implements Karol, the actor that walks the world grid and
// stacks bricks. Every action validates before it mutates, so a failed
// action leaves both Karol and the world as they were.
package robot

import (
	"fmt"

	"github.com/vovakirdan/tui-karol/internal/world"
)

// Unlimited marks a brick count or capacity without bound.
const Unlimited = -1

// DefaultDirection is the heading after Reset.
const DefaultDirection = world.South

// Settings are the tunable properties of Karol.
type Settings struct {
	JumpHeight        int // max |Δy| for one move
	MaxBrickCount     int // carry capacity, Unlimited for none
	InitialBrickCount int // bricks after Reset, Unlimited for endless supply
}

// DefaultSettings returns an unlimited supply and a jump height of one.
func DefaultSettings() Settings {
	return Settings{
		JumpHeight:        1,
		MaxBrickCount:     Unlimited,
		InitialBrickCount: Unlimited,
	}
}

// Karol is the robot bound to one world.
type Karol struct {
	world      *world.World
	settings   Settings
	position   world.Coord3d
	direction  world.Direction
	brickCount int
}

// New places Karol at the origin of w.
func New(w *world.World, s Settings) (*Karol, error) {
	k := &Karol{world: w, settings: s}
	if err := k.Reset(); err != nil {
		return nil, err
	}
	return k, nil
}

// World returns the world Karol is bound to.
func (k *Karol) World() *world.World { return k.world }

// Position returns the current cell.
func (k *Karol) Position() world.Coord3d { return k.position }

// Direction returns the current heading.
func (k *Karol) Direction() world.Direction { return k.direction }

// BrickCount returns the carried bricks, or Unlimited.
func (k *Karol) BrickCount() int { return k.brickCount }

// Settings returns the current settings.
func (k *Karol) Settings() Settings { return k.settings }

// Reset clears the old cell, moves Karol to the origin column facing
// DefaultDirection and refills the brick supply.
func (k *Karol) Reset() error {
	y := k.world.FirstFreeY(0, 0)
	origin := world.Coord3d{X: 0, Y: y, Z: 0}
	if !k.world.IsValid(origin) {
		return newError(ErrNoLanding, "no free position at the origin")
	}
	k.world.ClearKarol()
	k.place(origin)
	k.direction = DefaultDirection
	k.brickCount = k.settings.InitialBrickCount
	return nil
}

// Refill restores the brick supply to the initial count.
func (k *Karol) Refill() {
	k.brickCount = k.settings.InitialBrickCount
}

// UpdateSettings replaces the settings and resets Karol.
func (k *Karol) UpdateSettings(s Settings) error {
	k.settings = s
	return k.Reset()
}

// SetDirection turns Karol to face d.
func (k *Karol) SetDirection(d world.Direction) {
	if d.Valid() {
		k.direction = d
	}
}

// place moves the Karol marker cell to pos. pos must be valid.
func (k *Karol) place(pos world.Coord3d) {
	if k.world.Field(k.position) == world.Karol {
		//nolint:errcheck // position came from a successful placement
		k.world.SetField(k.position, world.Empty)
	}
	//nolint:errcheck // callers validate pos
	k.world.SetField(pos, world.Karol)
	k.position = pos
}

// NextPosition is the cell in front of Karol at the current height.
func (k *Karol) NextPosition() world.Coord3d {
	off := k.direction.Offset()
	return world.Coord3d{X: k.position.X + off.X, Y: k.position.Y, Z: k.position.Z + off.Z}
}

// TurnLeft rotates counter-clockwise.
func (k *Karol) TurnLeft() {
	k.direction = k.direction.TurnLeft()
}

// TurnRight rotates clockwise.
func (k *Karol) TurnRight() {
	k.direction = k.direction.TurnRight()
}

// Move walks count cells forward. Each cell is validated before Karol
// steps onto it; the first failing cell stops the move.
func (k *Karol) Move(count int) error {
	for i := 0; i < count; i++ {
		next := k.NextPosition()
		if err := k.ValidateNextPosition(next); err != nil {
			return err
		}
		next.Y = k.world.FirstFreeY(next.X, next.Z)
		k.place(next)
	}
	return nil
}

// ValidateNextPosition checks that Karol can step from its position to pos.
func (k *Karol) ValidateNextPosition(pos world.Coord3d) error {
	if !k.world.IsValidGround(pos.Flat()) {
		return newError(ErrOutOfWorld, "blocked by wall: Karol bumped into the edge of the world")
	}
	next := k.world.Field(pos)
	if next == world.Wall {
		return newError(ErrQuader, "blocked by wall: Karol bumped into a quader")
	}
	if next.IsBrick() || k.position.Y > 0 {
		landing := pos
		landing.Y = k.world.FirstFreeY(pos.X, pos.Z)
		if !k.world.IsValid(landing) {
			return newError(ErrNoLanding, "cannot jump, there is no free position at %s", pos.Flat())
		}
		dy := landing.Y - k.position.Y
		if dy > k.settings.JumpHeight {
			return newError(ErrJumpTooHigh, "cannot jump that high: %d levels up, jump height is %d", dy, k.settings.JumpHeight)
		}
		if -dy > k.settings.JumpHeight {
			return newError(ErrJumpTooHigh, "cannot jump that low: %d levels down, jump height is %d", -dy, k.settings.JumpHeight)
		}
	}
	return nil
}

// LayBrick places count bricks of color c on the column in front of Karol.
func (k *Karol) LayBrick(count int, c world.Color) error {
	for i := 0; i < count; i++ {
		if err := k.layOne(c); err != nil {
			return err
		}
	}
	return nil
}

func (k *Karol) layOne(c world.Color) error {
	if k.brickCount != Unlimited && k.brickCount < 1 {
		return newError(ErrNotEnoughBricks, "not enough bricks: Karol has none left")
	}
	next := k.NextPosition()
	next.Y = 0
	if !k.world.IsValid(next) {
		return newError(ErrOutOfWorld, "blocked by wall: Karol is standing in front of the edge of the world")
	}
	for k.world.Field(next).IsBrick() {
		next.Y++
	}
	switch f := k.world.Field(next); {
	case f == world.Empty:
	case next.Y >= k.world.Dimensions().Y:
		return newError(ErrStackTooHigh, "stack too high: the maximum height of %d is reached", k.world.Dimensions().Y)
	default:
		return newError(ErrQuader, "blocked by wall: Karol is standing in front of a quader")
	}
	//nolint:errcheck // next was checked above
	k.world.SetField(next, world.BrickOf(c))
	if k.brickCount != Unlimited {
		k.brickCount--
	}
	return nil
}

// PickupBrick removes count bricks from the top of the column in front of
// Karol and adds them to the supply.
func (k *Karol) PickupBrick(count int) error {
	for i := 0; i < count; i++ {
		if err := k.pickupOne(); err != nil {
			return err
		}
	}
	return nil
}

func (k *Karol) pickupOne() error {
	next := k.NextPosition()
	h := k.world.BrickHeight(next.X, next.Z)
	if h == 0 {
		return newError(ErrNothingToPickUp, "nothing to pick up: there is no brick in front of Karol")
	}
	if k.brickCount != Unlimited && k.settings.MaxBrickCount != Unlimited &&
		k.brickCount >= k.settings.MaxBrickCount {
		return newError(ErrCarryLimit, "cannot carry more than %d bricks", k.settings.MaxBrickCount)
	}
	next.Y = h - 1
	//nolint:errcheck // the brick exists, so the cell is valid
	k.world.SetField(next, world.Empty)
	if k.brickCount != Unlimited {
		k.brickCount++
	}
	return nil
}

// NextFieldType is the content of the cell in front of Karol at its height.
func (k *Karol) NextFieldType() world.FieldType {
	return k.world.Field(k.NextPosition())
}

// BrickHeight is the brick stack height in front of Karol.
func (k *Karol) BrickHeight() int {
	next := k.NextPosition()
	return k.world.BrickHeight(next.X, next.Z)
}

// HasBrick reports whether the stack in front of Karol contains color c.
func (k *Karol) HasBrick(c world.Color) bool {
	next := k.NextPosition()
	return k.world.HasBrick(c, next.X, next.Z)
}

// SetMarker marks Karol's column.
func (k *Karol) SetMarker(c world.Color) error {
	return k.world.SetMarker(k.position.Flat(), c)
}

// Marker returns the marker under Karol.
func (k *Karol) Marker() (world.Color, bool) {
	return k.world.Marker(k.position.Flat())
}

// DeleteMarker removes the marker under Karol.
func (k *Karol) DeleteMarker() error {
	return k.world.DeleteMarker(k.position.Flat())
}

// State is the serialized form of Karol.
type State struct {
	Position  world.Coord3d   `json:"position"`
	Direction world.Direction `json:"direction"`
}

// Serialize captures position and heading.
func (k *Karol) Serialize() State {
	return State{Position: k.position, Direction: k.direction}
}

// Deserialize moves Karol to st. Any other Karol cell in the world is
// cleared. The brick supply is left untouched.
func (k *Karol) Deserialize(st State) error {
	if !st.Direction.Valid() {
		return fmt.Errorf("robot: invalid direction %d", st.Direction)
	}
	if !k.world.IsValid(st.Position) {
		return fmt.Errorf("robot: position %s outside the world", st.Position)
	}
	if f := k.world.Field(st.Position); f != world.Empty && f != world.Karol {
		return fmt.Errorf("robot: position %s is occupied by %s", st.Position, f)
	}
	k.world.ClearKarol()
	k.position = st.Position
	//nolint:errcheck // position validated above
	k.world.SetField(st.Position, world.Karol)
	k.direction = st.Direction
	return nil
}
