package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/tui-karol/internal/engine"
	"github.com/vovakirdan/tui-karol/internal/robot"
	"github.com/vovakirdan/tui-karol/internal/session"
	"github.com/vovakirdan/tui-karol/internal/world"
)

// Load loads the configuration.
// Search order: customPath -> ~/.karol/config.yaml -> ./configs/karol.yaml -> embedded default
// Values missing from a file keep their defaults.
func Load(customPath string) (Config, error) {
	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		cfg, err := parse(data)
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if path := userConfigPath("config.yaml"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if cfg, err := parse(data); err == nil {
				return cfg, nil
			}
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile(filepath.Join("configs", "karol.yaml")); err == nil {
		if cfg, err := parse(data); err == nil {
			return cfg, nil
		}
	}

	// Use embedded default YAML
	cfg, err := parse(defaultYAML)
	if err != nil {
		return DefaultConfig(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

func parse(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// userConfigPath returns the path to a user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".karol", filename)
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.World.Width < 1 || c.World.Depth < 1 || c.World.Height < 1 {
		errs = append(errs, fmt.Errorf("world size %dx%dx%d must be at least 1 in every direction",
			c.World.Width, c.World.Depth, c.World.Height))
	}
	if c.Karol.JumpHeight < 0 {
		errs = append(errs, errors.New("karol.jump_height must not be negative"))
	}
	if c.Karol.MaxBricks < robot.Unlimited || c.Karol.InitialBricks < robot.Unlimited {
		errs = append(errs, errors.New("karol brick counts must be -1 or positive"))
	}
	if _, err := ParseSpeed(string(c.Run.Speed)); err != nil {
		errs = append(errs, err)
	}
	if c.Run.MaxCallDepth < 1 {
		errs = append(errs, errors.New("run.max_call_depth must be positive"))
	}
	return errors.Join(errs...)
}

// ApplySpeed sets the speed preset and clears any explicit delay.
func (c *Config) ApplySpeed(p SpeedPreset) {
	c.Run.Speed = p
	c.Run.StepDelayMS = 0
}

// RobotSettings converts the karol section.
func (c Config) RobotSettings() robot.Settings {
	return robot.Settings{
		JumpHeight:        c.Karol.JumpHeight,
		MaxBrickCount:     c.Karol.MaxBricks,
		InitialBrickCount: c.Karol.InitialBricks,
	}
}

// EngineOptions returns the configured engine limits.
func (c Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithMaxDepth(c.Run.MaxCallDepth),
		engine.WithMaxOps(c.Run.MaxOpsPerStep),
	}
}

// Pacing returns how a session should schedule steps.
func (r RunConfig) Pacing() session.Pacing {
	return session.Pacing{Delay: r.StepDelay(), Single: r.Speed.Manual()}
}

// NewWorld creates an empty world of the configured size.
func (c Config) NewWorld() (*world.World, error) {
	return world.New(c.World.Width, c.World.Height, c.World.Depth)
}

// DBPath returns the storage path, defaulting to ~/.karol/karol.db.
func (c Config) DBPath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	return "~/.karol/karol.db"
}
