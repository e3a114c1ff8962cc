package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-karol/internal/config"
	"github.com/vovakirdan/tui-karol/internal/registry"
	"github.com/vovakirdan/tui-karol/internal/robot"
	"github.com/vovakirdan/tui-karol/internal/snapshot"
	"github.com/vovakirdan/tui-karol/internal/storage"
)

// programFlags select the program and the world it starts in.
type programFlags struct {
	example string
	world   string // snapshot file
	saved   string // name in the world library
}

func (f *programFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.example, "example", "", "Built-in example to load (see 'karol examples')")
	cmd.Flags().StringVar(&f.world, "world", "", "World snapshot file (.json or .json.zst)")
	cmd.Flags().StringVar(&f.saved, "saved", "", "World from the library (see 'karol worlds')")
}

// program is a source together with the robot it drives.
type program struct {
	name   string
	source string
	karol  *robot.Karol
}

// load resolves the program. A file argument overrides the example's
// source but keeps its world; --world and --saved replace the world.
func (f *programFlags) load(cfg config.Config, store *storage.Store, args []string) (*program, error) {
	p, err := f.robot(cfg, store)
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("cannot read program: %w", err)
		}
		p.name, p.source = filepath.Base(args[0]), string(data)
	}
	if p.name == "" {
		return nil, errors.New("no program: pass a file or --example")
	}
	return p, nil
}

// robot builds Karol in the selected world. The program is only set when
// an example was chosen.
func (f *programFlags) robot(cfg config.Config, store *storage.Store) (*program, error) {
	p := &program{}

	if f.example != "" {
		ex, err := registry.Create(f.example)
		if err != nil {
			return nil, err
		}
		if p.karol, err = ex.Setup(cfg.RobotSettings()); err != nil {
			return nil, err
		}
		p.name, p.source = ex.ID, ex.Source
	} else {
		w, err := cfg.NewWorld()
		if err != nil {
			return nil, err
		}
		if p.karol, err = robot.New(w, cfg.RobotSettings()); err != nil {
			return nil, err
		}
	}

	snap, ok, err := f.snapshot(store)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := snap.Apply(p.karol); err != nil {
			return nil, err
		}
		p.karol.Refill()
	}
	return p, nil
}

func (f *programFlags) snapshot(store *storage.Store) (snapshot.Snapshot, bool, error) {
	switch {
	case f.world != "" && f.saved != "":
		return snapshot.Snapshot{}, false, errors.New("--world and --saved are mutually exclusive")
	case f.world != "":
		snap, err := snapshot.Load(f.world)
		return snap, err == nil, err
	case f.saved != "":
		if store == nil {
			return snapshot.Snapshot{}, false, errors.New("--saved needs the database")
		}
		snap, err := store.LoadWorld(f.saved)
		return snap, err == nil, errNotFound(err, f.saved)
	}
	return snapshot.Snapshot{}, false, nil
}
