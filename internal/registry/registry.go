// Package registry provides a global registry of example programs.
// The built-in examples register themselves in init() from an embedded
// catalog, allowing the CLI and the TUI to list and load them without
// hardcoded dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/tui-karol/internal/config"
	"github.com/vovakirdan/tui-karol/internal/robot"
	"github.com/vovakirdan/tui-karol/internal/world"
)

// Example is a program together with the world it is meant to run in.
type Example struct {
	ID          string
	Title       string
	Description string
	Source      string
	World       config.WorldConfig
	Karol       *config.KarolConfig // nil keeps the caller's settings
	Bricks      []Bricks
	Walls       []world.Coord2d
}

// Bricks is a stack placed in the world before the program runs.
type Bricks struct {
	X     int         `yaml:"x"`
	Z     int         `yaml:"z"`
	Count int         `yaml:"count"`
	Color world.Color `yaml:"color"`
}

// ExampleInfo contains metadata about a registered example.
type ExampleInfo struct {
	ID    string
	Title string
}

// Factory is a function that creates a new copy of an example.
type Factory func() Example

var (
	factories = make(map[string]Factory)
	titles    = make(map[string]string)
	mu        sync.RWMutex
)

// Register adds an example factory to the registry.
// Panics if an example with the same ID is already registered.
func Register(id string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("registry: example %q already registered", id))
	}

	factories[id] = f
	titles[id] = f().Title
}

// List returns information about all registered examples, sorted by ID.
func List() []ExampleInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]ExampleInfo, 0, len(factories))
	for id := range factories {
		result = append(result, ExampleInfo{
			ID:    id,
			Title: titles[id],
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create returns a new copy of the example with the given ID.
func Create(id string) (Example, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := factories[id]
	if !ok {
		return Example{}, fmt.Errorf("registry: unknown example %q", id)
	}

	return f(), nil
}

// Exists checks if an example with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[id]
	return ok
}

// Settings returns the example's robot settings, or base when the example
// does not set any.
func (e Example) Settings(base robot.Settings) robot.Settings {
	if e.Karol == nil {
		return base
	}
	return robot.Settings{
		JumpHeight:        e.Karol.JumpHeight,
		MaxBrickCount:     e.Karol.MaxBricks,
		InitialBrickCount: e.Karol.InitialBricks,
	}
}

// Setup builds the example world with its bricks and walls and places
// Karol at the origin.
func (e Example) Setup(base robot.Settings) (*robot.Karol, error) {
	w, err := world.New(e.World.Width, e.World.Height, e.World.Depth)
	if err != nil {
		return nil, fmt.Errorf("registry: example %s: %w", e.ID, err)
	}
	for _, wall := range e.Walls {
		if err := w.SetField(wall.At(0), world.Wall); err != nil {
			return nil, fmt.Errorf("registry: example %s: wall: %w", e.ID, err)
		}
	}
	for _, b := range e.Bricks {
		color := b.Color
		if color == "" {
			color = world.DefaultBrickColor
		}
		for y := 0; y < b.Count; y++ {
			if err := w.SetField(world.Coord3d{X: b.X, Y: y, Z: b.Z}, world.BrickOf(color)); err != nil {
				return nil, fmt.Errorf("registry: example %s: bricks: %w", e.ID, err)
			}
		}
	}
	k, err := robot.New(w, e.Settings(base))
	if err != nil {
		return nil, fmt.Errorf("registry: example %s: %w", e.ID, err)
	}
	return k, nil
}
