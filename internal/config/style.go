package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Style controls how the map view draws street and segment lines. Zones carry
// their own colors; everything else (sentinel colors, offsets, stroke
// weights) comes from here.
type Style struct {
	UnassignedColor string `yaml:"unassigned_color"`
	MixedColor      string `yaml:"mixed_color"`
	SelectedColor   string `yaml:"selected_color"`

	// SideOffsetMeters separates the even and odd side lines of a street.
	SideOffsetMeters float64 `yaml:"side_offset_meters"`

	StrokeWeight    float64 `yaml:"stroke_weight"`
	SelectedWeight  float64 `yaml:"selected_weight"`
	Opacity         float64 `yaml:"opacity"`
	SelectedOpacity float64 `yaml:"selected_opacity"`
}

// DefaultStyle matches the colors the map frontend shipped with.
func DefaultStyle() Style {
	return Style{
		UnassignedColor:  "#9e9e9e",
		MixedColor:       "#9b59b6",
		SelectedColor:    "#e74c3c",
		SideOffsetMeters: 4,
		StrokeWeight:     4,
		SelectedWeight:   7,
		Opacity:          0.7,
		SelectedOpacity:  1.0,
	}
}

// LoadStyle reads a YAML style file, filling unset fields from the defaults.
// An empty path returns the defaults unchanged.
func LoadStyle(path string) (Style, error) {
	style := DefaultStyle()
	if path == "" {
		return style, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return style, fmt.Errorf("read style file: %w", err)
	}
	if err := yaml.Unmarshal(data, &style); err != nil {
		return style, fmt.Errorf("parse style file: %w", err)
	}

	if style.SideOffsetMeters <= 0 {
		return style, fmt.Errorf("side_offset_meters must be positive, got %v", style.SideOffsetMeters)
	}
	return style, nil
}
