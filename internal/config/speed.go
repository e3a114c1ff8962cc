package config

import (
	"fmt"
	"strings"
	"time"
)

// SpeedPreset names a run pacing.
type SpeedPreset string

const (
	SpeedInstant SpeedPreset = "instant"
	SpeedFast    SpeedPreset = "fast"
	SpeedNormal  SpeedPreset = "normal"
	SpeedSlow    SpeedPreset = "slow"
	SpeedStep    SpeedPreset = "step" // one step per key press
)

// SpeedPresets lists the presets from fastest to slowest.
func SpeedPresets() []SpeedPreset {
	return []SpeedPreset{SpeedInstant, SpeedFast, SpeedNormal, SpeedSlow, SpeedStep}
}

// ParseSpeed parses a preset name, ignoring case.
func ParseSpeed(s string) (SpeedPreset, error) {
	p := SpeedPreset(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SpeedPresets() {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("config: unknown speed %q", s)
}

// Delay returns the pause between two steps for the preset.
func (p SpeedPreset) Delay() time.Duration {
	switch p {
	case SpeedInstant, SpeedStep:
		return 0
	case SpeedFast:
		return 50 * time.Millisecond
	case SpeedSlow:
		return 800 * time.Millisecond
	default:
		return 250 * time.Millisecond
	}
}

// Manual reports whether the preset waits for the user between steps.
func (p SpeedPreset) Manual() bool {
	return p == SpeedStep
}

// Faster returns the next faster preset, or p when it is the fastest.
func (p SpeedPreset) Faster() SpeedPreset {
	all := SpeedPresets()
	for i, s := range all {
		if s == p && i > 0 {
			return all[i-1]
		}
	}
	return p
}

// Slower returns the next slower preset, or p when it is the slowest.
func (p SpeedPreset) Slower() SpeedPreset {
	all := SpeedPresets()
	for i, s := range all {
		if s == p && i < len(all)-1 {
			return all[i+1]
		}
	}
	return p
}
