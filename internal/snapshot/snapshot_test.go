package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vovakirdan/tui-karol/internal/robot"
	"github.com/vovakirdan/tui-karol/internal/world"
)

func builtKarol(t *testing.T) *robot.Karol {
	t.Helper()
	k, err := robot.New(world.MustNew(4, 3, 4), robot.DefaultSettings())
	if err != nil {
		t.Fatalf("robot.New() failed: %v", err)
	}
	if err := k.LayBrick(2, world.Blue); err != nil {
		t.Fatalf("LayBrick failed: %v", err)
	}
	if err := k.SetMarker(world.Green); err != nil {
		t.Fatalf("SetMarker failed: %v", err)
	}
	k.SetDirection(world.East)
	if err := k.Move(1); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	return k
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"world.json", "nested/world.json.zst"} {
		t.Run(name, func(t *testing.T) {
			k := builtKarol(t)
			want := Capture(k)
			path := filepath.Join(dir, name)

			if err := Save(path, want); err != nil {
				t.Fatalf("Save() failed: %v", err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load() failed: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Loaded snapshot differs:\n got %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestCompressedFileIsNotJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.zst")
	if err := Save(path, Capture(builtKarol(t))); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) == 0 || data[0] == '{' {
		t.Errorf("Expected zstd data, got %q", data[:min(len(data), 16)])
	}
}

func TestApplyRestoresState(t *testing.T) {
	src := builtKarol(t)
	snap := Capture(src)

	dst, err := robot.New(world.MustNew(2, 2, 2), robot.DefaultSettings())
	if err != nil {
		t.Fatalf("robot.New() failed: %v", err)
	}
	if err := snap.Apply(dst); err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}

	if dst.Position() != src.Position() || dst.Direction() != src.Direction() {
		t.Errorf("Karol = %v %v, expected %v %v", dst.Position(), dst.Direction(), src.Position(), src.Direction())
	}
	if !reflect.DeepEqual(dst.World().Serialize(), src.World().Serialize()) {
		t.Error("World differs after Apply")
	}
}

func TestApplyIsAtomic(t *testing.T) {
	k := builtKarol(t)
	before := Capture(k)

	bad := Capture(builtKarol(t))
	bad.Karol.Position = world.Coord3d{X: 0, Y: 0, Z: 1} // brick column

	if err := bad.Apply(k); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Apply() = %v, expected ErrInvalid", err)
	}
	if after := Capture(k); !reflect.DeepEqual(after, before) {
		t.Error("Failed Apply changed the state")
	}
}

func TestUnmarshalRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing karol", `{"world":{"dimensions":{"x":1,"y":1,"z":1},"fields":[[[0]]],"markers":[]}}`},
		{"bad direction", `{"world":{"dimensions":{"x":1,"y":1,"z":1},"fields":[[[1]]],"markers":[]},"karol":{"position":{"x":0,"y":0,"z":0},"direction":7}}`},
		{"bad color", `{"world":{"dimensions":{"x":1,"y":1,"z":1},"fields":[[[1]]],"markers":[{"position":{"x":0,"z":0},"color":"lila"}]},"karol":{"position":{"x":0,"y":0,"z":0},"direction":0}}`},
		{"bad field", `{"world":{"dimensions":{"x":1,"y":1,"z":1},"fields":[[[9]]],"markers":[]},"karol":{"position":{"x":0,"y":0,"z":0},"direction":0}}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Unmarshal([]byte(tc.data)); !errors.Is(err, ErrInvalid) {
				t.Errorf("Unmarshal() = %v, expected ErrInvalid", err)
			}
		})
	}
}

func TestUnmarshalAcceptsMinimal(t *testing.T) {
	data := `{"world":{"dimensions":{"x":1,"y":1,"z":1},"fields":[[[1]]],"markers":[]},"karol":{"position":{"x":0,"y":0,"z":0},"direction":2}}`
	s, err := Unmarshal([]byte(data))
	if err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if s.Karol.Direction != world.South {
		t.Errorf("Direction = %v, expected South", s.Karol.Direction)
	}
}
