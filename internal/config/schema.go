package config

import (
	"fmt"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// Config is the netscheme configuration file
type Config struct {
	Version int           `yaml:"version"`
	Scale   ScaleConfig   `yaml:"scale"`
	Palette PaletteConfig `yaml:"palette"`
	Log     LogConfig     `yaml:"log"`
	Watch   WatchConfig   `yaml:"watch"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// RangeConfig is a closed output interval
type RangeConfig struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// ScaleConfig holds the range tracker floors and output ranges
type ScaleConfig struct {
	MagnitudeFloor float64     `yaml:"magnitude_floor"`
	WeightFloor    float64     `yaml:"weight_floor"`
	DepthFloor     float64     `yaml:"depth_floor"`
	MagnitudeRange RangeConfig `yaml:"magnitude_range"`
	WidthRange     RangeConfig `yaml:"width_range"`
	RingRange      float64     `yaml:"ring_range"`
	DepthFrom      string      `yaml:"depth_from"`
	DepthTo        string      `yaml:"depth_to"`
}

// PaletteConfig holds hex colors per category
type PaletteConfig struct {
	NeuronModels    map[string]string `yaml:"neuron_models,omitempty"`
	InputTypes      map[string]string `yaml:"input_types,omitempty"`
	OutputModels    map[string]string `yaml:"output_models,omitempty"`
	SuperPopulation string            `yaml:"super_population,omitempty"`
	Generic         string            `yaml:"generic,omitempty"`
}

// LogConfig configures the console logger
type LogConfig struct {
	Level      string `yaml:"level"`
	Timestamps bool   `yaml:"timestamps"`
}

// WatchConfig configures the file watcher
type WatchConfig struct {
	Debounce Duration `yaml:"debounce"`
}

// MetricsConfig configures the Prometheus endpoint of the watch command
type MetricsConfig struct {
	// Listen is the address serving /metrics; empty disables it
	Listen string `yaml:"listen,omitempty"`
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	s := c.Scale
	if s.MagnitudeFloor <= 0 || s.WeightFloor <= 0 || s.DepthFloor <= 0 {
		return fmt.Errorf("scale floors must be positive")
	}
	if s.MagnitudeRange.Max < s.MagnitudeRange.Min {
		return fmt.Errorf("magnitude_range: max %g < min %g", s.MagnitudeRange.Max, s.MagnitudeRange.Min)
	}
	if s.WidthRange.Max < s.WidthRange.Min {
		return fmt.Errorf("width_range: max %g < min %g", s.WidthRange.Max, s.WidthRange.Min)
	}
	for _, h := range []string{s.DepthFrom, s.DepthTo} {
		if _, err := colorful.Hex(h); err != nil {
			return fmt.Errorf("depth gradient color %q: %w", h, err)
		}
	}
	return nil
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
