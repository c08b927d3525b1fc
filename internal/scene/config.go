package scene

import (
	"fmt"

	"netscheme/internal/config"

	"github.com/prometheus/client_golang/prometheus"
)

// FromConfig creates a scene with the tracker and palette settings of cfg.
// reg may be nil.
func FromConfig(cfg *config.Config, reg prometheus.Registerer) (*Scene, error) {
	scaleOpts, err := cfg.ScaleOptions()
	if err != nil {
		return nil, fmt.Errorf("scale options: %w", err)
	}
	palette, err := cfg.PaletteOptions()
	if err != nil {
		return nil, fmt.Errorf("palette: %w", err)
	}
	return New(Options{
		Scale:      scaleOpts,
		Palette:    &palette,
		Registerer: reg,
	}), nil
}
