// Package config provides YAML-based configuration for the world, Karol
// and run pacing.
package config

import "time"

// Config is the full karol configuration.
type Config struct {
	World   WorldConfig   `yaml:"world"`
	Karol   KarolConfig   `yaml:"karol"`
	Run     RunConfig     `yaml:"run"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
}

// WorldConfig sizes a new world.
type WorldConfig struct {
	Width  int `yaml:"width"`  // x
	Depth  int `yaml:"depth"`  // z
	Height int `yaml:"height"` // y, maximum stack height
}

// KarolConfig holds the robot settings. -1 means unlimited.
type KarolConfig struct {
	JumpHeight    int `yaml:"jump_height"`
	MaxBricks     int `yaml:"max_bricks"`
	InitialBricks int `yaml:"initial_bricks"`
}

// RunConfig controls pacing and engine limits.
type RunConfig struct {
	Speed         SpeedPreset `yaml:"speed"`
	StepDelayMS   int         `yaml:"step_delay_ms"` // overrides the preset when > 0
	MaxCallDepth  int         `yaml:"max_call_depth"`
	MaxOpsPerStep int         `yaml:"max_ops_per_step"`
}

// StepDelay returns the delay between two steps.
func (r RunConfig) StepDelay() time.Duration {
	if r.StepDelayMS > 0 {
		return time.Duration(r.StepDelayMS) * time.Millisecond
	}
	return r.Speed.Delay()
}

// StorageConfig locates the world library and run history database.
type StorageConfig struct {
	Path string `yaml:"path"` // empty = ~/.karol/karol.db
}

// ServerConfig holds listen addresses for karol serve.
type ServerConfig struct {
	SSHAddr string `yaml:"ssh_addr"`
	WSAddr  string `yaml:"ws_addr"`
	HostKey string `yaml:"host_key"`
}
