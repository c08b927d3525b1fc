// Package scale tracks the global maxima of a dataset and the display
// mappings derived from them.
//
// Three quantities are tracked: the largest entity magnitude (neurons per
// population), the largest absolute connection weight and the deepest
// hierarchy level. Each maximum only grows until Reset. When one grows its
// mapper is rebuilt, so every representation built afterwards is scaled
// relative to the new maximum.
//
// The tracker never touches any cache. Whoever calls Observe decides what
// to invalidate when it returns true.
package scale

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Kind selects a tracked quantity
type Kind int

const (
	KindMagnitude Kind = iota
	KindWeight
	KindDepth
	numKinds
)

func (k Kind) String() string {
	switch k {
	case KindMagnitude:
		return "magnitude"
	case KindWeight:
		return "weight"
	case KindDepth:
		return "depth"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Kinds lists every tracked quantity
func Kinds() []Kind {
	return []Kind{KindMagnitude, KindWeight, KindDepth}
}

// State of one tracked quantity
type State int

const (
	StateAtFloor State = iota
	StateElevated
)

func (s State) String() string {
	if s == StateElevated {
		return "elevated"
	}
	return "at-floor"
}

// Range is a closed output interval
type Range struct {
	Min float64
	Max float64
}

// Options configures a Tracker
type Options struct {
	MagnitudeFloor float64
	WeightFloor    float64
	DepthFloor     float64

	// MagnitudeRange is the output of the magnitude mapper
	MagnitudeRange Range
	// WidthRange is the output of the weight mapper, in display units
	WidthRange Range
	// RingRange is the radial extent shared by the rings of a nested group
	RingRange float64

	DepthFrom colorful.Color
	DepthTo   colorful.Color
}

// DefaultOptions returns the stock floors and ranges
func DefaultOptions() Options {
	from, _ := colorful.Hex("#b6d7a8")
	to, _ := colorful.Hex("#b075f0")
	return Options{
		MagnitudeFloor: 1,
		WeightFloor:    0.1,
		DepthFloor:     1,
		MagnitudeRange: Range{Min: 0, Max: 1},
		WidthRange:     Range{Min: 1, Max: 5},
		RingRange:      1,
		DepthFrom:      from,
		DepthTo:        to,
	}
}

// Tracker owns the monotonic maxima and their mappers
type Tracker struct {
	opts    Options
	maxima  [numKinds]float64
	mappers [numKinds]LinearMapper

	gradient        Gradient
	ringSeparation  float64
	colorSeparation float64
}

// NewTracker creates a tracker with every quantity at its floor
func NewTracker(opts Options) *Tracker {
	t := &Tracker{opts: opts}
	t.Reset()
	return t
}

func (t *Tracker) floor(k Kind) float64 {
	switch k {
	case KindMagnitude:
		return t.opts.MagnitudeFloor
	case KindWeight:
		return t.opts.WeightFloor
	case KindDepth:
		return t.opts.DepthFloor
	}
	return 0
}

func (t *Tracker) output(k Kind) Range {
	switch k {
	case KindMagnitude:
		return t.opts.MagnitudeRange
	case KindWeight:
		return t.opts.WidthRange
	}
	return Range{Min: 0, Max: 1}
}

// Reset returns every quantity to its floor
func (t *Tracker) Reset() {
	for _, k := range Kinds() {
		t.set(k, t.floor(k))
	}
}

func (t *Tracker) set(k Kind, value float64) {
	t.maxima[k] = value
	out := t.output(k)
	t.mappers[k] = NewLinearMapper(0, value, out.Min, out.Max)
	if k == KindDepth {
		t.gradient = NewGradient(0, value, t.opts.DepthFrom, t.opts.DepthTo)
		t.colorSeparation = 1 / (value + 1)
		t.ringSeparation = t.opts.RingRange * t.colorSeparation
	}
}

func (k Kind) valid() bool {
	return k >= 0 && k < numKinds
}

// Observe raises the maximum of k to value if value is larger and reports
// whether it did. NaN and infinite values are never observed.
func (t *Tracker) Observe(k Kind, value float64) bool {
	if !k.valid() || math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}
	if value <= t.maxima[k] {
		return false
	}
	t.set(k, value)
	return true
}

// Max returns the current maximum of k, or 0 for an unknown kind
func (t *Tracker) Max(k Kind) float64 {
	if !k.valid() {
		return 0
	}
	return t.maxima[k]
}

// State reports whether k is still at its floor. An unknown kind is
// always at its floor.
func (t *Tracker) State(k Kind) State {
	if k.valid() && t.maxima[k] > t.floor(k) {
		return StateElevated
	}
	return StateAtFloor
}

// Mapper returns the current mapper of k. An unknown kind gets a mapper
// with an empty domain.
func (t *Tracker) Mapper(k Kind) LinearMapper {
	if !k.valid() {
		return LinearMapper{}
	}
	return t.mappers[k]
}

// MaxAbsoluteWeight returns the largest absolute weight seen
func (t *Tracker) MaxAbsoluteWeight() float64 {
	return t.maxima[KindWeight]
}

// MaxMagnitude returns the largest entity magnitude seen
func (t *Tracker) MaxMagnitude() float64 {
	return t.maxima[KindMagnitude]
}

// MaxHierarchyDepth returns the deepest hierarchy level seen
func (t *Tracker) MaxHierarchyDepth() float64 {
	return t.maxima[KindDepth]
}

// DepthGradient returns the color gradient over hierarchy levels
func (t *Tracker) DepthGradient() Gradient {
	return t.gradient
}

// RingSeparation is the radial distance between consecutive rings of a
// nested group: RingRange / (max depth + 1).
func (t *Tracker) RingSeparation() float64 {
	return t.ringSeparation
}

// ColorSeparation is the gradient step between consecutive rings
func (t *Tracker) ColorSeparation() float64 {
	return t.colorSeparation
}

// Options returns the configuration the tracker was built with
func (t *Tracker) Options() Options {
	return t.opts
}
