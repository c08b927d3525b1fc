// Package represent builds the display records derived from entities and
// connections.
//
// A Representation never owns what it describes. Entity representations
// carry the gid of their entity; connection representations carry the
// ordered gid pair and the handles of both endpoint representations.
// Handles are assigned by the cache that stores the record.
package represent

import (
	"fmt"

	"netscheme/internal/domain"

	"github.com/lucasb-eyer/go-colorful"
)

// Handle identifies a stored representation. Zero means unassigned.
type Handle uint32

// Shape is the arrowhead drawn at the destination of a connection
type Shape string

const (
	// ShapeTriangle marks an excitatory (non-negative) connection
	ShapeTriangle Shape = "triangle"
	// ShapeCircle marks an inhibitory (negative) connection
	ShapeCircle Shape = "circle"
)

// Variant distinguishes what a representation describes
type Variant int

const (
	VariantEntity Variant = iota + 1
	VariantConnection
	VariantSelfLoop
)

func (v Variant) String() string {
	switch v {
	case VariantEntity:
		return "entity"
	case VariantConnection:
		return "connection"
	case VariantSelfLoop:
		return "self_loop"
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// Representation is the view model of one entity or one ordered connection
type Representation struct {
	Handle  Handle
	Variant Variant

	// Entity fields
	Kind     domain.EntityKind
	Entity   domain.GID
	Category string

	// Connection fields
	Source     domain.GID
	Dest       domain.GID
	SourceRep  Handle
	DestRep    Handle
	Head       Shape
	Width      uint
	Weight     float64
	Aggregated bool
	EdgeCount  int

	Name      string
	Color     colorful.Color
	Magnitude float64

	// Super-population fields
	Rings           int
	RingSeparation  float64
	ColorSeparation float64
	RingColors      []colorful.Color
}

// IsConnection reports whether the record describes a connection or a self-loop
func (r *Representation) IsConnection() bool {
	return r.Variant == VariantConnection || r.Variant == VariantSelfLoop
}

// Pair returns the ordered endpoint pair of a connection representation
func (r *Representation) Pair() domain.Pair {
	return domain.Pair{Src: r.Source, Dst: r.Dest}
}

func (r *Representation) String() string {
	if r.IsConnection() {
		return fmt.Sprintf("%s %s (%s, width %d)", r.Variant, r.Pair(), r.Head, r.Width)
	}
	return fmt.Sprintf("%s %d %q (%s)", r.Kind, r.Entity, r.Name, r.Color.Hex())
}
