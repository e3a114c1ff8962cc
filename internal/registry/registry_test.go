package registry

import (
	"testing"

	"github.com/vovakirdan/tui-karol/internal/engine"
	"github.com/vovakirdan/tui-karol/internal/robot"
	"github.com/vovakirdan/tui-karol/internal/syntax"
	"github.com/vovakirdan/tui-karol/internal/world"
)

func TestBuiltinsRegistered(t *testing.T) {
	list := List()
	want := []string{"burg", "quader", "sammeln", "treppe"}
	if len(list) != len(want) {
		t.Fatalf("List() = %v, expected %v", list, want)
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("List()[%d] = %q, expected %q", i, list[i].ID, id)
		}
		if list[i].Title == "" {
			t.Errorf("Example %s has no title", id)
		}
	}
	if !Exists("burg") || Exists("nope") {
		t.Error("Exists() is wrong")
	}
	if _, err := Create("nope"); err == nil {
		t.Error("Create() of an unknown example should fail")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected a panic")
		}
	}()
	Register("burg", func() Example { return Example{ID: "burg"} })
}

func TestCreateReturnsCopies(t *testing.T) {
	a, _ := Create("sammeln")
	a.Bricks[0].Count = 99
	a.Karol.InitialBricks = 5

	b, _ := Create("sammeln")
	if b.Bricks[0].Count != 2 || b.Karol.InitialBricks != 0 {
		t.Errorf("Mutating one copy changed another: %+v", b)
	}
}

// TestExamplesRun runs every example to the end.
func TestExamplesRun(t *testing.T) {
	for _, info := range List() {
		t.Run(info.ID, func(t *testing.T) {
			ex, err := Create(info.ID)
			if err != nil {
				t.Fatalf("Create() failed: %v", err)
			}
			k, err := ex.Setup(robot.DefaultSettings())
			if err != nil {
				t.Fatalf("Setup() failed: %v", err)
			}
			tree, err := syntax.Parse(ex.Source)
			if err != nil {
				t.Fatalf("Parse() failed: %v", err)
			}
			prog, err := engine.Compile(tree)
			if err != nil {
				t.Fatalf("Compile() failed: %v", err)
			}
			e := engine.New(prog, k)
			for i := 0; ; i++ {
				if i > 100000 {
					t.Fatal("example did not finish")
				}
				res, err := e.Step()
				if err != nil {
					t.Fatalf("Step() failed: %v", err)
				}
				if res.Done {
					break
				}
			}
		})
	}
}

func TestExampleOutcomes(t *testing.T) {
	run := func(id string) *robot.Karol {
		t.Helper()
		ex, _ := Create(id)
		k, err := ex.Setup(robot.DefaultSettings())
		if err != nil {
			t.Fatalf("Setup() failed: %v", err)
		}
		prog, err := engine.Compile(syntax.MustParse(ex.Source))
		if err != nil {
			t.Fatalf("Compile() failed: %v", err)
		}
		e := engine.New(prog, k)
		for {
			res, err := e.Step()
			if err != nil {
				t.Fatalf("Step() failed: %v", err)
			}
			if res.Done {
				return k
			}
		}
	}

	k := run("sammeln")
	if k.BrickCount() != 3 || k.Position() != (world.Coord3d{Z: 9}) {
		t.Errorf("sammeln: bricks %d at %v, expected 3 at (0,0,9)", k.BrickCount(), k.Position())
	}

	k = run("treppe")
	if k.Position() != (world.Coord3d{X: 3, Y: 3, Z: 1}) {
		t.Errorf("treppe: position %v, expected (3,3,1)", k.Position())
	}
	if c, ok := k.Marker(); !ok || c != world.Green {
		t.Errorf("treppe: marker %v %v, expected green", c, ok)
	}

	k = run("quader")
	if k.Position() != (world.Coord3d{Z: 4}) {
		t.Errorf("quader: position %v, expected (0,0,4)", k.Position())
	}
}
