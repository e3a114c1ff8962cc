package config

import (
	_ "embed"
)

//go:embed defaults/karol.yaml
var defaultYAML []byte

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		World: WorldConfig{
			Width:  10,
			Depth:  10,
			Height: 6,
		},
		Karol: KarolConfig{
			JumpHeight:    1,
			MaxBricks:     -1,
			InitialBricks: -1,
		},
		Run: RunConfig{
			Speed:         SpeedNormal,
			MaxCallDepth:  1000,
			MaxOpsPerStep: 1_000_000,
		},
		Server: ServerConfig{
			SSHAddr: ":23234",
			WSAddr:  ":8090",
			HostKey: ".ssh/karol_ed25519",
		},
	}
}
