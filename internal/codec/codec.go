// Package codec moves scene data in and out of files.
//
// Importers decode a network description. Exporters encode a Snapshot of
// the current representations for a rendering collaborator.
package codec

import (
	"fmt"
	"io"
	"slices"

	"netscheme/internal/loader"
)

// Importer decodes network descriptions
type Importer interface {
	Parse(r io.Reader) (*loader.Network, error)
	Format() string
}

// Exporter encodes representation snapshots
type Exporter interface {
	Export(snap *Snapshot, w io.Writer) error
	Format() string
}

// Codec is both an Importer and an Exporter
type Codec interface {
	Importer
	Exporter
}

var codecs = map[string]Codec{
	"json": NewJSONCodec(),
	"yaml": NewYAMLCodec(),
	"yml":  NewYAMLCodec(),
}

// ForFormat returns the codec registered for format
func ForFormat(format string) (Codec, error) {
	c, ok := codecs[format]
	if !ok {
		return nil, fmt.Errorf("unknown format %q (want one of %v)", format, Formats())
	}
	return c, nil
}

// Formats lists the registered format names
func Formats() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
