package registry

import (
	"embed"
	"fmt"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/tui-karol/internal/config"
	"github.com/vovakirdan/tui-karol/internal/world"
)

//go:embed examples/*.yaml examples/*.kdp
var examplesFS embed.FS

type catalogEntry struct {
	ID          string              `yaml:"id"`
	Title       string              `yaml:"title"`
	Description string              `yaml:"description"`
	File        string              `yaml:"file"`
	World       config.WorldConfig  `yaml:"world"`
	Karol       *config.KarolConfig `yaml:"karol"`
	Bricks      []Bricks            `yaml:"bricks"`
	Walls       []world.Coord2d     `yaml:"walls"`
}

func init() {
	examples, err := loadCatalog()
	if err != nil {
		panic(err)
	}
	for _, e := range examples {
		e := e // per-iteration copy (go 1.21 loop semantics)
		Register(e.ID, func() Example { return e.clone() })
	}
}

func loadCatalog() ([]Example, error) {
	data, err := examplesFS.ReadFile("examples/catalog.yaml")
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	var entries []catalogEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("registry: catalog: %w", err)
	}

	examples := make([]Example, 0, len(entries))
	for _, ce := range entries {
		src, err := examplesFS.ReadFile(path.Join("examples", ce.File))
		if err != nil {
			return nil, fmt.Errorf("registry: example %s: %w", ce.ID, err)
		}
		examples = append(examples, Example{
			ID:          ce.ID,
			Title:       ce.Title,
			Description: ce.Description,
			Source:      string(src),
			World:       ce.World,
			Karol:       ce.Karol,
			Bricks:      ce.Bricks,
			Walls:       ce.Walls,
		})
	}
	return examples, nil
}

// clone copies the slices so callers cannot change the registered example.
func (e Example) clone() Example {
	out := e
	if e.Karol != nil {
		k := *e.Karol
		out.Karol = &k
	}
	out.Bricks = append([]Bricks(nil), e.Bricks...)
	out.Walls = append([]world.Coord2d(nil), e.Walls...)
	return out
}
