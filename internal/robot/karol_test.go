package robot

import (
	"errors"
	"testing"

	"github.com/vovakirdan/tui-karol/internal/world"
)

func newKarol(t *testing.T, x, y, z int, s Settings) *Karol {
	t.Helper()
	k, err := New(world.MustNew(x, y, z), s)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return k
}

// countKarol returns every cell holding Karol.
func countKarol(w *world.World) []world.Coord3d {
	var cells []world.Coord3d
	d := w.Dimensions()
	for x := 0; x < d.X; x++ {
		for y := 0; y < d.Y; y++ {
			for z := 0; z < d.Z; z++ {
				pos := world.Coord3d{X: x, Y: y, Z: z}
				if w.Field(pos) == world.Karol {
					cells = append(cells, pos)
				}
			}
		}
	}
	return cells
}

func TestNewPlacesKarolAtOrigin(t *testing.T) {
	k := newKarol(t, 5, 5, 5, DefaultSettings())

	if k.Position() != (world.Coord3d{}) {
		t.Errorf("Expected origin, got %v", k.Position())
	}
	if k.Direction() != world.South {
		t.Errorf("Expected South, got %v", k.Direction())
	}
	if k.BrickCount() != Unlimited {
		t.Errorf("Expected unlimited bricks, got %d", k.BrickCount())
	}
	if cells := countKarol(k.World()); len(cells) != 1 {
		t.Errorf("Expected exactly one karol cell, got %v", cells)
	}
}

func TestMoveKeepsSingleKarol(t *testing.T) {
	k := newKarol(t, 5, 5, 5, DefaultSettings())

	k.SetDirection(world.East)
	if err := k.Move(2); err != nil {
		t.Fatalf("Move(2) failed: %v", err)
	}
	k.TurnRight()
	if err := k.Move(3); err != nil {
		t.Fatalf("Move(3) failed: %v", err)
	}

	want := world.Coord3d{X: 2, Y: 0, Z: 3}
	if k.Position() != want {
		t.Errorf("Position = %v, expected %v", k.Position(), want)
	}
	cells := countKarol(k.World())
	if len(cells) != 1 || cells[0] != k.Position() {
		t.Errorf("Karol cells = %v, expected only %v", cells, k.Position())
	}
}

func TestMoveIntoEdgeOfWorld(t *testing.T) {
	k := newKarol(t, 3, 3, 3, DefaultSettings())
	k.SetDirection(world.North)

	err := k.Move(1)
	if !errors.Is(err, ErrOutOfWorld) {
		t.Fatalf("Expected ErrOutOfWorld, got %v", err)
	}
	if k.Position() != (world.Coord3d{}) || k.Direction() != world.North {
		t.Error("Failed move should leave position and direction unchanged")
	}
}

func TestMoveIntoQuader(t *testing.T) {
	k := newKarol(t, 3, 3, 3, DefaultSettings())
	k.World().SetField(world.Coord3d{X: 0, Y: 0, Z: 1}, world.Wall)

	err := k.Move(1)
	if !errors.Is(err, ErrQuader) {
		t.Fatalf("Expected ErrQuader, got %v", err)
	}
	if k.Position() != (world.Coord3d{}) {
		t.Errorf("Position changed to %v", k.Position())
	}
	var re *Error
	if !errors.As(err, &re) || re.Error() == "" {
		t.Error("Expected a *robot.Error with a message")
	}
}

func TestJumpHeightBoundary(t *testing.T) {
	tests := []struct {
		name    string
		jump    int
		bricks  int
		wantErr bool
	}{
		{"equal to jump height", 1, 1, false},
		{"one above jump height", 1, 2, true},
		{"higher jump allowed", 3, 3, false},
		{"higher jump exceeded", 3, 4, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := DefaultSettings()
			s.JumpHeight = tc.jump
			k := newKarol(t, 3, 6, 3, s)
			for y := 0; y < tc.bricks; y++ {
				k.World().SetField(world.Coord3d{X: 0, Y: y, Z: 1}, world.BrickRed)
			}

			err := k.Move(1)
			if tc.wantErr {
				if !errors.Is(err, ErrJumpTooHigh) {
					t.Fatalf("Expected ErrJumpTooHigh, got %v", err)
				}
				if k.Position() != (world.Coord3d{}) {
					t.Errorf("Position changed to %v", k.Position())
				}
				return
			}
			if err != nil {
				t.Fatalf("Move(1) failed: %v", err)
			}
			want := world.Coord3d{X: 0, Y: tc.bricks, Z: 1}
			if k.Position() != want {
				t.Errorf("Position = %v, expected %v", k.Position(), want)
			}
		})
	}
}

func TestJumpDown(t *testing.T) {
	k := newKarol(t, 3, 5, 3, DefaultSettings())
	w := k.World()
	w.SetField(world.Coord3d{X: 0, Y: 0, Z: 1}, world.BrickRed)
	w.SetField(world.Coord3d{X: 0, Y: 0, Z: 2}, world.BrickRed)

	if err := k.Move(2); err != nil {
		t.Fatalf("Move(2) failed: %v", err)
	}
	if k.Position().Y != 1 {
		t.Fatalf("Expected to stand on bricks, got %v", k.Position())
	}

	k.TurnLeft()
	if err := k.Move(1); err != nil {
		t.Fatalf("Stepping down one level failed: %v", err)
	}
	if k.Position() != (world.Coord3d{X: 1, Y: 0, Z: 2}) {
		t.Errorf("Position = %v, expected (1,0,2)", k.Position())
	}
}

func TestLayBrickScenarioC(t *testing.T) {
	k := newKarol(t, 4, 4, 4, DefaultSettings())

	if err := k.LayBrick(2, world.DefaultBrickColor); err != nil {
		t.Fatalf("LayBrick(2) failed: %v", err)
	}
	w := k.World()
	for y := 0; y < 2; y++ {
		if f := w.Field(world.Coord3d{X: 0, Y: y, Z: 1}); f != world.BrickRed {
			t.Errorf("Field at y=%d = %v, expected red brick", y, f)
		}
	}
	if k.BrickHeight() != 2 {
		t.Errorf("BrickHeight() = %d, expected 2", k.BrickHeight())
	}
}

func TestLayThenPickupIsInverse(t *testing.T) {
	s := DefaultSettings()
	s.InitialBrickCount = 5
	s.MaxBrickCount = 10
	k := newKarol(t, 3, 4, 3, s)
	k.World().SetField(world.Coord3d{X: 0, Y: 0, Z: 1}, world.BrickBlue)

	before := k.BrickHeight()
	if err := k.LayBrick(1, world.Green); err != nil {
		t.Fatalf("LayBrick failed: %v", err)
	}
	if !k.HasBrick(world.Green) {
		t.Error("Expected green brick ahead")
	}
	if err := k.PickupBrick(1); err != nil {
		t.Fatalf("PickupBrick failed: %v", err)
	}
	if k.BrickHeight() != before {
		t.Errorf("BrickHeight = %d, expected %d", k.BrickHeight(), before)
	}
	if k.BrickCount() != 5 {
		t.Errorf("BrickCount = %d, expected 5", k.BrickCount())
	}
	if k.HasBrick(world.Green) {
		t.Error("Green brick should be gone")
	}
}

func TestLayBrickErrors(t *testing.T) {
	t.Run("not enough bricks", func(t *testing.T) {
		s := DefaultSettings()
		s.InitialBrickCount = 1
		k := newKarol(t, 3, 4, 3, s)
		err := k.LayBrick(2, world.Red)
		if !errors.Is(err, ErrNotEnoughBricks) {
			t.Fatalf("Expected ErrNotEnoughBricks, got %v", err)
		}
		if k.BrickHeight() != 1 || k.BrickCount() != 0 {
			t.Errorf("Expected first brick laid, height=%d count=%d", k.BrickHeight(), k.BrickCount())
		}
	})

	t.Run("edge of world", func(t *testing.T) {
		k := newKarol(t, 3, 4, 3, DefaultSettings())
		k.SetDirection(world.West)
		if err := k.LayBrick(1, world.Red); !errors.Is(err, ErrOutOfWorld) {
			t.Fatalf("Expected ErrOutOfWorld, got %v", err)
		}
	})

	t.Run("stack too high", func(t *testing.T) {
		k := newKarol(t, 3, 2, 3, DefaultSettings())
		if err := k.LayBrick(2, world.Red); err != nil {
			t.Fatalf("Filling column failed: %v", err)
		}
		if err := k.LayBrick(1, world.Red); !errors.Is(err, ErrStackTooHigh) {
			t.Fatalf("Expected ErrStackTooHigh, got %v", err)
		}
	})

	t.Run("quader", func(t *testing.T) {
		k := newKarol(t, 3, 4, 3, DefaultSettings())
		k.World().SetField(world.Coord3d{X: 0, Y: 0, Z: 1}, world.Wall)
		if err := k.LayBrick(1, world.Red); !errors.Is(err, ErrQuader) {
			t.Fatalf("Expected ErrQuader, got %v", err)
		}
	})
}

func TestPickupScenarioD(t *testing.T) {
	s := DefaultSettings()
	s.MaxBrickCount = 4
	s.InitialBrickCount = 3
	k := newKarol(t, 3, 5, 3, s)
	w := k.World()
	w.SetField(world.Coord3d{X: 0, Y: 0, Z: 1}, world.BrickRed)
	w.SetField(world.Coord3d{X: 0, Y: 1, Z: 1}, world.BrickRed)

	if err := k.PickupBrick(1); err != nil {
		t.Fatalf("First pickup failed: %v", err)
	}
	if k.BrickCount() != 4 {
		t.Fatalf("BrickCount = %d, expected 4", k.BrickCount())
	}

	err := k.PickupBrick(1)
	if !errors.Is(err, ErrCarryLimit) {
		t.Fatalf("Expected ErrCarryLimit, got %v", err)
	}
	if err.Error() != "cannot carry more than 4 bricks" {
		t.Errorf("Unexpected message %q", err.Error())
	}
	if k.BrickCount() != 4 {
		t.Errorf("BrickCount = %d, expected 4", k.BrickCount())
	}
	if k.BrickHeight() != 1 {
		t.Errorf("Remaining brick should stay, height=%d", k.BrickHeight())
	}
}

func TestPickupNothing(t *testing.T) {
	k := newKarol(t, 3, 3, 3, DefaultSettings())
	if err := k.PickupBrick(1); !errors.Is(err, ErrNothingToPickUp) {
		t.Fatalf("Expected ErrNothingToPickUp, got %v", err)
	}
}

func TestMarkers(t *testing.T) {
	k := newKarol(t, 3, 3, 3, DefaultSettings())

	if err := k.SetMarker(world.Blue); err != nil {
		t.Fatalf("SetMarker failed: %v", err)
	}
	if c, ok := k.Marker(); !ok || c != world.Blue {
		t.Errorf("Marker() = %v, %v", c, ok)
	}
	if err := k.DeleteMarker(); err != nil {
		t.Fatalf("DeleteMarker failed: %v", err)
	}
	if err := k.DeleteMarker(); !errors.Is(err, world.ErrNoMarker) {
		t.Errorf("Expected ErrNoMarker, got %v", err)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	k := newKarol(t, 4, 4, 4, DefaultSettings())
	k.SetDirection(world.East)
	k.Move(2)
	k.TurnRight()

	st := k.Serialize()
	other, err := New(k.World(), DefaultSettings())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := other.Deserialize(st); err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if other.Position() != st.Position || other.Direction() != st.Direction {
		t.Errorf("Restored %v/%v, expected %v/%v", other.Position(), other.Direction(), st.Position, st.Direction)
	}
	if cells := countKarol(k.World()); len(cells) != 1 {
		t.Errorf("Expected one karol cell after restore, got %v", cells)
	}

	if err := other.Deserialize(State{Position: world.Coord3d{X: 9}, Direction: world.North}); err == nil {
		t.Error("Expected error for out-of-world position")
	}
}

func TestUpdateSettingsResets(t *testing.T) {
	k := newKarol(t, 3, 3, 3, DefaultSettings())
	k.Move(1)

	s := Settings{JumpHeight: 2, MaxBrickCount: 8, InitialBrickCount: 6}
	if err := k.UpdateSettings(s); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	if k.Position() != (world.Coord3d{}) {
		t.Errorf("Expected reset to origin, got %v", k.Position())
	}
	if k.BrickCount() != 6 {
		t.Errorf("BrickCount = %d, expected 6", k.BrickCount())
	}
}
