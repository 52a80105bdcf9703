package renderer

import (
	"fmt"
	"strings"
)

// The quantity visualized by a rendered frame.
type Mode uint8

const (
	// Nearest hit distance; closer surfaces are brighter.
	Depth Mode = iota

	// Number of bounds tests per primary ray.
	Heatmap
)

func (m Mode) String() string {
	switch m {
	case Depth:
		return "depth"
	case Heatmap:
		return "heatmap"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// Parse a mode name.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "depth":
		return Depth, nil
	case "heatmap", "bounds":
		return Heatmap, nil
	}
	return Depth, fmt.Errorf("renderer: unknown mode %q", name)
}

type Options struct {
	// Frame dims.
	FrameW uint32 `yaml:"width"`
	FrameH uint32 `yaml:"height"`

	// Number of CPU tracers. A zero value uses one tracer per CPU.
	Workers int `yaml:"workers"`

	// Use block timings from the previous frame to balance work between
	// tracers.
	Adaptive bool `yaml:"adaptive"`
}
