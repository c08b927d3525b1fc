package loader

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLFile is a Source reading a YAML network description from disk
type YAMLFile struct {
	Path string
}

// Load implements Source
func (f YAMLFile) Load(ctx context.Context) (*Network, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadYAML(f.Path)
}

// LoadYAML loads a network description from a YAML file
func LoadYAML(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseYAML(data)
}

// ParseYAML parses a network description from YAML bytes
func ParseYAML(data []byte) (*Network, error) {
	var net Network
	if err := yaml.Unmarshal(data, &net); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &net, nil
}

// WriteYAML encodes net as YAML
func WriteYAML(net *Network, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(net); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}
