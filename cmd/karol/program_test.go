package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vovakirdan/tui-karol/internal/config"
	"github.com/vovakirdan/tui-karol/internal/robot"
	"github.com/vovakirdan/tui-karol/internal/snapshot"
	"github.com/vovakirdan/tui-karol/internal/storage"
	"github.com/vovakirdan/tui-karol/internal/world"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	return path
}

func TestProgramFromExample(t *testing.T) {
	f := programFlags{example: "burg"}
	p, err := f.load(config.DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("load() failed: %v", err)
	}
	if p.name != "burg" || p.source == "" {
		t.Errorf("Program = %q with %d bytes of source", p.name, len(p.source))
	}

	// a file replaces the source but keeps the example's world
	path := writeFile(t, "eigene.kdp", "Schritt")
	p, err = f.load(config.DefaultConfig(), nil, []string{path})
	if err != nil {
		t.Fatalf("load() failed: %v", err)
	}
	if p.name != "eigene.kdp" || p.source != "Schritt" {
		t.Errorf("Program = %q %q, expected eigene.kdp Schritt", p.name, p.source)
	}
}

func TestProgramWorldSources(t *testing.T) {
	cfg := config.DefaultConfig()

	k, err := robot.New(world.MustNew(3, 2, 3), robot.DefaultSettings())
	if err != nil {
		t.Fatalf("robot.New() failed: %v", err)
	}
	k.TurnLeft()
	snap := snapshot.Capture(k)
	snapPath := filepath.Join(t.TempDir(), "w.json.zst")
	if err := snapshot.Save(snapPath, snap); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	prog := writeFile(t, "p.kdp", "Schritt")

	f := programFlags{world: snapPath}
	p, err := f.load(cfg, nil, []string{prog})
	if err != nil {
		t.Fatalf("load() failed: %v", err)
	}
	if d := p.karol.World().Dimensions(); d != (world.Coord3d{X: 3, Y: 2, Z: 3}) {
		t.Errorf("Dimensions = %v, expected 3x2x3", d)
	}
	if p.karol.Direction() != world.East {
		t.Errorf("Direction = %v, expected East", p.karol.Direction())
	}

	store, err := storage.Open(filepath.Join(t.TempDir(), "karol.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()
	if err := store.SaveWorld("klein", snap); err != nil {
		t.Fatalf("SaveWorld() failed: %v", err)
	}
	f = programFlags{saved: "klein"}
	if _, err := f.load(cfg, store, []string{prog}); err != nil {
		t.Errorf("load() from library failed: %v", err)
	}

	tests := []struct {
		name  string
		flags programFlags
		store *storage.Store
		args  []string
	}{
		{"no program", programFlags{}, nil, nil},
		{"unknown example", programFlags{example: "nope"}, nil, nil},
		{"both world sources", programFlags{world: snapPath, saved: "klein"}, store, []string{prog}},
		{"saved without database", programFlags{saved: "klein"}, nil, []string{prog}},
		{"unknown saved world", programFlags{saved: "gross"}, store, []string{prog}},
		{"missing file", programFlags{}, nil, []string{filepath.Join(t.TempDir(), "none.kdp")}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.flags.load(cfg, tc.store, tc.args); err == nil {
				t.Error("load() succeeded, expected an error")
			}
		})
	}
}
