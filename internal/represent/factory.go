package represent

import (
	"fmt"
	"math"

	"netscheme/internal/aggregate"
	"netscheme/internal/domain"
	"netscheme/internal/logger"
	"netscheme/internal/metrics"
	"netscheme/internal/scale"
	"netscheme/internal/store"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultName is used for entities without an "Entity name" or label
const DefaultName = " "

type builder func(f *Factory, e *domain.Entity, r *Representation)

// builders has exactly one case per entity kind
var builders = map[domain.EntityKind]builder{
	domain.KindPopulation:      (*Factory).buildPopulation,
	domain.KindSuperPopulation: (*Factory).buildSuperPopulation,
	domain.KindInput:           (*Factory).buildInput,
	domain.KindOutput:          (*Factory).buildOutput,
	domain.KindGeneric:         (*Factory).buildGeneric,
}

// Factory creates representations. Every magnitude and width goes through
// the tracker's current mappers.
type Factory struct {
	tracker *scale.Tracker
	palette Palette
	metrics *metrics.Cache
}

// Option configures a Factory
type Option func(*Factory)

// WithPalette replaces the default palette
func WithPalette(p Palette) Option {
	return func(f *Factory) {
		f.palette = p
	}
}

// WithMetrics counts defaulted properties
func WithMetrics(m *metrics.Cache) Option {
	return func(f *Factory) {
		f.metrics = m
	}
}

// NewFactory creates a factory reading mappers from tracker
func NewFactory(tracker *scale.Tracker, opts ...Option) *Factory {
	f := &Factory{
		tracker: tracker,
		palette: DefaultPalette(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Palette returns the palette in use
func (f *Factory) Palette() Palette {
	return f.palette
}

// Create builds the representation of e. Missing properties are defaulted
// with a warning; only an entity kind without a builder fails.
func (f *Factory) Create(e *domain.Entity) (*Representation, error) {
	build, ok := builders[e.Kind]
	if !ok {
		return nil, fmt.Errorf("entity %d: %w: %q", e.GID, domain.ErrUnknownKind, e.Kind)
	}
	r := &Representation{
		Variant: VariantEntity,
		Kind:    e.Kind,
		Entity:  e.GID,
	}
	build(f, e, r)
	return r, nil
}

func (f *Factory) missing(gid domain.GID, property string, dflt any) {
	f.metrics.Defaulted(property)
	logger.Warn(domain.ErrMissingExpectedProperty.Error(),
		"entity", gid, "property", property, "default", dflt)
}

func (f *Factory) name(e *domain.Entity) string {
	if name, ok := e.Properties.Text(domain.PropEntityName); ok {
		return name
	}
	if e.Label != "" {
		return e.Label
	}
	f.missing(e.GID, domain.PropEntityName, DefaultName)
	return DefaultName
}

func (f *Factory) number(e *domain.Entity, property string) float64 {
	if v, ok := e.Properties.Number(property); ok {
		return v
	}
	f.missing(e.GID, property, 0)
	return 0
}

func (f *Factory) category(e *domain.Entity, property string, colors ColorMap, r *Representation) {
	value, ok := e.Properties.Text(property)
	if !ok {
		f.missing(e.GID, property, colors.Fallback())
		value = colors.Fallback()
	}
	color, known := colors.Lookup(value)
	if !known {
		logger.Warn(domain.ErrUnrecognizedPattern.Error(),
			"entity", e.GID, "property", property, "value", value, "default", colors.Fallback())
		value = colors.Fallback()
	}
	r.Category = value
	r.Color = color
}

func (f *Factory) magnitude(v float64) float64 {
	return f.tracker.Mapper(scale.KindMagnitude).Map(v)
}

func (f *Factory) buildPopulation(e *domain.Entity, r *Representation) {
	r.Name = f.name(e)
	f.category(e, domain.PropNeuronModel, f.palette.NeuronModels, r)
	r.Magnitude = f.magnitude(f.number(e, domain.PropNbNeurons))
}

func (f *Factory) buildSuperPopulation(e *domain.Entity, r *Representation) {
	r.Name = f.name(e)
	r.Color = f.palette.SuperPopulation
	r.Magnitude = f.magnitude(f.number(e, domain.PropNbNeuronsMean))

	depth := f.number(e, domain.PropChildDepth)
	r.Rings = int(math.Max(0, math.Round(depth)))
	r.RingSeparation = f.tracker.RingSeparation()
	r.ColorSeparation = f.tracker.ColorSeparation()
	gradient := f.tracker.DepthGradient()
	r.RingColors = make([]colorful.Color, r.Rings+1)
	for i := range r.RingColors {
		r.RingColors[i] = gradient.At(float64(i))
	}
}

func (f *Factory) buildInput(e *domain.Entity, r *Representation) {
	r.Name = f.name(e)
	f.category(e, domain.PropInputType, f.palette.InputTypes, r)
	r.Magnitude = f.magnitude(f.number(e, domain.PropNbNeurons))
}

func (f *Factory) buildOutput(e *domain.Entity, r *Representation) {
	r.Name = f.name(e)
	f.category(e, domain.PropOutputModel, f.palette.OutputModels, r)
	r.Magnitude = f.magnitude(0)
}

func (f *Factory) buildGeneric(e *domain.Entity, r *Representation) {
	r.Name = e.Label
	if r.Name == "" {
		r.Name = DefaultName
	}
	r.Color = f.palette.Generic
	r.Magnitude = f.magnitude(0)
}

// CreateConnection builds the representation of the ordered pair src, dst.
// props is a raw edge bag, or an aggregated bag when aggregated is set, and
// may be nil for tables that only record adjacency. Equal endpoints yield a
// self-loop.
func (f *Factory) CreateConnection(src, dst domain.GID, srcRep, dstRep Handle, props domain.Properties, aggregated bool) *Representation {
	r := &Representation{
		Variant:    VariantConnection,
		Source:     src,
		Dest:       dst,
		SourceRep:  srcRep,
		DestRep:    dstRep,
		Head:       ShapeTriangle,
		Aggregated: aggregated,
		EdgeCount:  1,
	}
	if src == dst {
		r.Variant = VariantSelfLoop
	}
	if name, ok := props.Text(domain.PropConnectionLabel); ok {
		r.Name = name
	}

	var weight float64
	if aggregated {
		weight = f.aggregatedHead(props, r)
		if n, ok := props.Number(store.PropEdgeCount); ok {
			r.EdgeCount = int(n)
		}
	} else {
		weight = f.rawHead(src, dst, props, r)
	}
	r.Weight = weight
	r.Width = Width(f.tracker.Mapper(scale.KindWeight), weight)
	return r
}

func (f *Factory) rawHead(src, dst domain.GID, props domain.Properties, r *Representation) float64 {
	if props == nil {
		return 0
	}
	w, typ, ok := domain.WeightOf(props)
	if !ok {
		f.metrics.Defaulted(domain.PropWeight)
		logger.Warn(domain.ErrMissingExpectedProperty.Error(),
			"connection", domain.Pair{Src: src, Dst: dst}, "property", domain.PropWeight, "default", ShapeTriangle)
		return 0
	}
	if typ != "" {
		r.Head = HeadFor(w)
	}
	return w
}

func (f *Factory) aggregatedHead(props domain.Properties, r *Representation) float64 {
	w, hasFixed := props.Number(aggregate.PropWeightMean)
	g, hasGaussian := props.Number(aggregate.PropWeightGaussianMeanMean)
	if (hasFixed && w < 0) || (hasGaussian && g < 0) {
		r.Head = ShapeCircle
	}
	if !hasFixed && hasGaussian {
		return g
	}
	return w
}

// HeadFor selects the arrowhead for a signed weight
func HeadFor(weight float64) Shape {
	if weight < 0 {
		return ShapeCircle
	}
	return ShapeTriangle
}

// Width maps the magnitude of weight through m and rounds to whole display units
func Width(m scale.LinearMapper, weight float64) uint {
	return uint(math.Round(m.Map(math.Abs(weight))))
}
