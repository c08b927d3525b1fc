// Package loader turns network descriptions into ingestion calls.
//
// A description is first decoded into a Network, independent of its file
// format, and then applied to an Ingestor. Populations and connections are
// resolved by name. Items whose names cannot be resolved are skipped and
// counted in the Report rather than failing the load.
package loader

import (
	"context"
	"fmt"

	"netscheme/internal/domain"

	"gopkg.in/yaml.v3"
)

// Source produces a Network
type Source interface {
	Load(ctx context.Context) (*Network, error)
}

// Network is a format-independent network description
type Network struct {
	Version     string           `yaml:"version,omitempty" json:"version,omitempty"`
	Populations []PopulationSpec `yaml:"populations" json:"populations"`
	Connections []ConnectionSpec `yaml:"connections,omitempty" json:"connections,omitempty"`
}

// PopulationSpec describes one entity
type PopulationSpec struct {
	Name string `yaml:"name" json:"name"`
	// Kind is an entity kind; empty means population
	Kind string `yaml:"kind,omitempty" json:"kind,omitempty"`
	// Model is the neuron model, input type or output model depending on Kind
	Model   string   `yaml:"model,omitempty" json:"model,omitempty"`
	Neurons *float64 `yaml:"neurons,omitempty" json:"neurons,omitempty"`
	// Parent names the super-population containing this one
	Parent     string         `yaml:"parent,omitempty" json:"parent,omitempty"`
	Properties map[string]any `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// ConnectionSpec describes one projection between two named populations
type ConnectionSpec struct {
	Name        string        `yaml:"name,omitempty" json:"name,omitempty"`
	Source      string        `yaml:"source" json:"source"`
	Target      string        `yaml:"target" json:"target"`
	Pattern     string        `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Probability float64       `yaml:"probability,omitempty" json:"probability,omitempty"`
	FanOut      float64       `yaml:"fan_out,omitempty" json:"fan_out,omitempty"`
	FanIn       float64       `yaml:"fan_in,omitempty" json:"fan_in,omitempty"`
	Cutoff      float64       `yaml:"cutoff,omitempty" json:"cutoff,omitempty"`
	Sigma       float64       `yaml:"sigma,omitempty" json:"sigma,omitempty"`
	Weight      *QuantitySpec `yaml:"weight,omitempty" json:"weight,omitempty"`
	Delay       *QuantitySpec `yaml:"delay,omitempty" json:"delay,omitempty"`
	Threshold   *float64      `yaml:"threshold,omitempty" json:"threshold,omitempty"`
}

// QuantitySpec is either a fixed scalar or a Gaussian. In YAML a scalar
// node is fixed and a {mean, sigma} mapping is Gaussian.
type QuantitySpec struct {
	Fixed    *float64             `json:"fixed,omitempty"`
	Gaussian *domain.Distribution `json:"gaussian,omitempty"`
}

// Fixed returns a fixed quantity spec
func Fixed(v float64) *QuantitySpec {
	return &QuantitySpec{Fixed: &v}
}

// Gaussian returns a distributed quantity spec
func Gaussian(mean, sigma float64) *QuantitySpec {
	return &QuantitySpec{Gaussian: &domain.Distribution{Mean: mean, Sigma: sigma}}
}

// UnmarshalYAML implements yaml.Unmarshaler
func (q *QuantitySpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("line %d: quantity: %w", node.Line, err)
		}
		q.Fixed, q.Gaussian = &v, nil
		return nil
	case yaml.MappingNode:
		var d domain.Distribution
		if err := node.Decode(&d); err != nil {
			return fmt.Errorf("line %d: quantity: %w", node.Line, err)
		}
		q.Fixed, q.Gaussian = nil, &d
		return nil
	}
	return fmt.Errorf("line %d: quantity must be a number or a {mean, sigma} mapping", node.Line)
}

// MarshalYAML implements yaml.Marshaler
func (q QuantitySpec) MarshalYAML() (any, error) {
	if q.Gaussian != nil {
		return q.Gaussian, nil
	}
	if q.Fixed != nil {
		return *q.Fixed, nil
	}
	return nil, nil
}

// quantity converts q, using dflt when q is nil or empty. A NaN or
// infinite value also yields dflt and reports false.
func (q *QuantitySpec) quantity(dflt domain.Quantity) (domain.Quantity, bool) {
	switch {
	case q == nil:
		return dflt, true
	case q.Gaussian != nil:
		if !domain.Gaussian(q.Gaussian.Mean, q.Gaussian.Sigma).IsFinite() {
			return dflt, false
		}
		return domain.GaussianQuantity(q.Gaussian.Mean, q.Gaussian.Sigma), true
	case q.Fixed != nil:
		if !domain.Number(*q.Fixed).IsFinite() {
			return dflt, false
		}
		return domain.FixedQuantity(*q.Fixed), true
	}
	return dflt, true
}
