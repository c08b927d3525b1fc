package codec

import (
	"fmt"
	"io"

	"netscheme/internal/loader"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Parse imports a network description from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*loader.Network, error) {
	var net loader.Network
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&net); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &net, nil
}

// Export exports a snapshot to YAML
func (c *YAMLCodec) Export(snap *Snapshot, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
