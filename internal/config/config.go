// Package config provides configuration management for netscheme.
//
// The config file tunes how a dataset is displayed: range tracker floors
// and output ranges, the category palettes, logging and the watcher. It
// never describes the dataset itself.
//
// Config file locations are listed by SearchPaths. A missing file yields
// DefaultConfig.
package config

import (
	"fmt"
	"maps"
	"os"
	"time"

	"netscheme/internal/represent"
	"netscheme/internal/scale"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns the stock configuration
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}

	d := scale.DefaultOptions()
	s := &c.Scale
	if s.MagnitudeFloor == 0 {
		s.MagnitudeFloor = d.MagnitudeFloor
	}
	if s.WeightFloor == 0 {
		s.WeightFloor = d.WeightFloor
	}
	if s.DepthFloor == 0 {
		s.DepthFloor = d.DepthFloor
	}
	if s.MagnitudeRange == (RangeConfig{}) {
		s.MagnitudeRange = RangeConfig{Min: d.MagnitudeRange.Min, Max: d.MagnitudeRange.Max}
	}
	if s.WidthRange == (RangeConfig{}) {
		s.WidthRange = RangeConfig{Min: d.WidthRange.Min, Max: d.WidthRange.Max}
	}
	if s.RingRange == 0 {
		s.RingRange = d.RingRange
	}
	if s.DepthFrom == "" {
		s.DepthFrom = d.DepthFrom.Hex()
	}
	if s.DepthTo == "" {
		s.DepthTo = d.DepthTo.Hex()
	}

	p := &c.Palette
	p.NeuronModels = withDefaults(p.NeuronModels, represent.DefaultNeuronModelColors)
	p.InputTypes = withDefaults(p.InputTypes, represent.DefaultInputTypeColors)
	p.OutputModels = withDefaults(p.OutputModels, represent.DefaultOutputModelColors)
	if p.SuperPopulation == "" {
		p.SuperPopulation = represent.DefaultSuperPopulationColor
	}
	if p.Generic == "" {
		p.Generic = represent.DefaultGenericColor
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = Duration(200 * time.Millisecond)
	}
}

// withDefaults returns colors with every stock category it lacks added
func withDefaults(colors, stock map[string]string) map[string]string {
	out := maps.Clone(stock)
	maps.Copy(out, colors)
	return out
}

// ScaleOptions converts the scale section into tracker options
func (c *Config) ScaleOptions() (scale.Options, error) {
	from, err := colorful.Hex(c.Scale.DepthFrom)
	if err != nil {
		return scale.Options{}, fmt.Errorf("depth_from: %w", err)
	}
	to, err := colorful.Hex(c.Scale.DepthTo)
	if err != nil {
		return scale.Options{}, fmt.Errorf("depth_to: %w", err)
	}
	return scale.Options{
		MagnitudeFloor: c.Scale.MagnitudeFloor,
		WeightFloor:    c.Scale.WeightFloor,
		DepthFloor:     c.Scale.DepthFloor,
		MagnitudeRange: scale.Range{Min: c.Scale.MagnitudeRange.Min, Max: c.Scale.MagnitudeRange.Max},
		WidthRange:     scale.Range{Min: c.Scale.WidthRange.Min, Max: c.Scale.WidthRange.Max},
		RingRange:      c.Scale.RingRange,
		DepthFrom:      from,
		DepthTo:        to,
	}, nil
}

// PaletteOptions converts the palette section into a represent.Palette
func (c *Config) PaletteOptions() (represent.Palette, error) {
	return represent.NewPalette(represent.PaletteConfig{
		NeuronModels:    c.Palette.NeuronModels,
		InputTypes:      c.Palette.InputTypes,
		OutputModels:    c.Palette.OutputModels,
		SuperPopulation: c.Palette.SuperPopulation,
		Generic:         c.Palette.Generic,
	})
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	s := c.Scale
	summary := fmt.Sprintf("Floors: magnitude %g, weight %g, depth %g\n", s.MagnitudeFloor, s.WeightFloor, s.DepthFloor)
	summary += fmt.Sprintf("Width: [%g, %g], ring range %g, depth %s -> %s\n",
		s.WidthRange.Min, s.WidthRange.Max, s.RingRange, s.DepthFrom, s.DepthTo)
	summary += fmt.Sprintf("Log level: %s", c.Log.Level)
	return summary
}
