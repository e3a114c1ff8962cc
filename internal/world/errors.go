package world

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds is matched by every *BoundsError.
	ErrOutOfBounds = errors.New("position out of bounds")
	// ErrNoMarker is matched by every *NotFoundError.
	ErrNoMarker = errors.New("no marker to remove")
)

// BoundsError is returned for writes outside the grid.
type BoundsError struct {
	Pos        Coord3d
	Dimensions Coord3d
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("world: position %s outside %dx%dx%d grid",
		e.Pos, e.Dimensions.X, e.Dimensions.Y, e.Dimensions.Z)
}

func (e *BoundsError) Unwrap() error { return ErrOutOfBounds }

// NotFoundError is returned when deleting a marker that does not exist.
type NotFoundError struct {
	Pos Coord2d
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("world: no marker to remove at %s", e.Pos)
}

func (e *NotFoundError) Unwrap() error { return ErrNoMarker }
