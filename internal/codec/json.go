package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"netscheme/internal/loader"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse imports a network description from JSON. Quantities use the
// {"fixed": v} or {"gaussian": {"mean": m, "sigma": s}} form.
func (c *JSONCodec) Parse(r io.Reader) (*loader.Network, error) {
	var net loader.Network
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&net); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return &net, nil
}

// Export exports a snapshot to JSON
func (c *JSONCodec) Export(snap *Snapshot, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
