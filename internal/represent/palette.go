package represent

import (
	"fmt"

	"netscheme/internal/domain"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorMap assigns colors to the values of one categorical property
type ColorMap struct {
	colors   map[string]colorful.Color
	fallback string
}

// NewColorMap parses hex colors keyed by category. fallback names the
// category used for values outside the map and must be one of its keys.
func NewColorMap(hex map[string]string, fallback string) (ColorMap, error) {
	m := ColorMap{colors: make(map[string]colorful.Color, len(hex)), fallback: fallback}
	for k, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			return ColorMap{}, fmt.Errorf("color for %q: %w", k, err)
		}
		m.colors[k] = c
	}
	if _, ok := m.colors[fallback]; !ok {
		return ColorMap{}, fmt.Errorf("fallback category %q has no color", fallback)
	}
	return m, nil
}

// Lookup returns the color of category, or the fallback color and false
func (m ColorMap) Lookup(category string) (colorful.Color, bool) {
	if c, ok := m.colors[category]; ok {
		return c, true
	}
	return m.colors[m.fallback], false
}

// Fallback returns the default category
func (m ColorMap) Fallback() string {
	return m.fallback
}

// Palette holds the color maps of every entity kind
type Palette struct {
	NeuronModels    ColorMap
	InputTypes      ColorMap
	OutputModels    ColorMap
	SuperPopulation colorful.Color
	Generic         colorful.Color
}

// Default hex colors per category
var (
	DefaultNeuronModelColors = map[string]string{
		domain.NeuronModelIAFPscAlpha:  "#9fc5e8",
		domain.NeuronModelUndefined:    "#ea9999",
		domain.NeuronModelKuramoto:     "#ea0099",
		domain.NeuronModel2DOscillator: "#0a9909",
		domain.NeuronModelProxy:        "#0a5959",
	}
	DefaultInputTypeColors = map[string]string{
		domain.InputTypePulse:  "#ddf231",
		domain.InputTypeRandom: "#f9f190",
	}
	DefaultOutputModelColors = map[string]string{
		domain.OutputModelMultimeter:    "#d7b5fc",
		domain.OutputModelVoltmeter:     "#b075f0",
		domain.OutputModelSpikeDetector: "#4c1c7c",
	}
)

const (
	DefaultSuperPopulationColor = "#b6d7a8"
	DefaultGenericColor         = "#cccccc"
)

// PaletteConfig is the hex form of a Palette
type PaletteConfig struct {
	NeuronModels    map[string]string
	InputTypes      map[string]string
	OutputModels    map[string]string
	SuperPopulation string
	Generic         string
}

// DefaultPaletteConfig returns the stock colors
func DefaultPaletteConfig() PaletteConfig {
	return PaletteConfig{
		NeuronModels:    DefaultNeuronModelColors,
		InputTypes:      DefaultInputTypeColors,
		OutputModels:    DefaultOutputModelColors,
		SuperPopulation: DefaultSuperPopulationColor,
		Generic:         DefaultGenericColor,
	}
}

// NewPalette parses a PaletteConfig
func NewPalette(cfg PaletteConfig) (Palette, error) {
	var (
		p   Palette
		err error
	)
	if p.NeuronModels, err = NewColorMap(cfg.NeuronModels, domain.NeuronModelUndefined); err != nil {
		return Palette{}, fmt.Errorf("neuron models: %w", err)
	}
	if p.InputTypes, err = NewColorMap(cfg.InputTypes, domain.InputTypeRandom); err != nil {
		return Palette{}, fmt.Errorf("input types: %w", err)
	}
	if p.OutputModels, err = NewColorMap(cfg.OutputModels, domain.OutputModelMultimeter); err != nil {
		return Palette{}, fmt.Errorf("output models: %w", err)
	}
	if p.SuperPopulation, err = colorful.Hex(cfg.SuperPopulation); err != nil {
		return Palette{}, fmt.Errorf("super population: %w", err)
	}
	if p.Generic, err = colorful.Hex(cfg.Generic); err != nil {
		return Palette{}, fmt.Errorf("generic: %w", err)
	}
	return p, nil
}

// DefaultPalette returns the stock palette
func DefaultPalette() Palette {
	p, err := NewPalette(DefaultPaletteConfig())
	if err != nil {
		panic(err)
	}
	return p
}
