package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Pattern is the connectivity pattern of a connection
type Pattern string

const (
	PatternAllToAll        Pattern = "all_to_all"
	PatternOneToOne        Pattern = "one_to_one"
	PatternRandom          Pattern = "random"
	PatternFanOut          Pattern = "fan_out"
	PatternFanIn           Pattern = "fan_in"
	PatternSpatialGaussian Pattern = "spatial_gaussian"
)

// ParsePattern converts a string to a Pattern. Matching ignores case and
// treats '-' and ' ' like '_'.
func ParsePattern(s string) (Pattern, error) {
	norm := strings.ToLower(strings.NewReplacer("-", "_", " ", "_").Replace(strings.TrimSpace(s)))
	switch p := Pattern(norm); p {
	case PatternAllToAll, PatternOneToOne, PatternRandom, PatternFanOut, PatternFanIn, PatternSpatialGaussian:
		return p, nil
	}
	return "", fmt.Errorf("%w: connectivity %q", ErrUnrecognizedPattern, s)
}

// QuantityType says whether a quantity is a fixed scalar or a distribution
type QuantityType string

const (
	QuantityFixed    QuantityType = "fixed"
	QuantityGaussian QuantityType = "gaussian"
)

// ParseQuantityType converts a string to a QuantityType
func ParseQuantityType(s string) (QuantityType, error) {
	switch t := QuantityType(strings.ToLower(strings.TrimSpace(s))); t {
	case QuantityFixed, QuantityGaussian:
		return t, nil
	}
	return "", fmt.Errorf("%w: quantity type %q", ErrUnrecognizedPattern, s)
}

// Edge property names
const (
	PropConnectivity    = "Connectivity pattern"
	PropProbability     = "Probability"
	PropFanOutDegree    = "Fan out degree"
	PropFanInDegree     = "Fan in degree"
	PropSpatialCutoff   = "Spatial Gaussian cutoff"
	PropSpatialSigma    = "Spatial Gaussian sigma"
	PropWeight          = "Weight"
	PropWeightType      = "Weight Type"
	PropWeightGaussian  = "Weight Gaussian"
	PropDelay           = "Delay"
	PropDelayType       = "Delay Type"
	PropDelayGaussian   = "Delay Gaussian"
	PropThreshold       = "Threshold"
	PropConnectionLabel = "Connection name"
)

// Quantity is either a fixed scalar or a Gaussian, never both
type Quantity struct {
	Type  QuantityType
	Fixed float64
	Dist  Distribution
}

// FixedQuantity creates a fixed quantity
func FixedQuantity(v float64) Quantity {
	return Quantity{Type: QuantityFixed, Fixed: v}
}

// GaussianQuantity creates a distributed quantity
func GaussianQuantity(mean, sigma float64) Quantity {
	return Quantity{Type: QuantityGaussian, Dist: Distribution{Mean: mean, Sigma: sigma}}
}

// Central returns the fixed value or the distribution mean
func (q Quantity) Central() float64 {
	if q.Type == QuantityGaussian {
		return q.Dist.Mean
	}
	return q.Fixed
}

// Connection is the typed form of an edge property bag
type Connection struct {
	Label       string
	Pattern     Pattern
	Probability float64
	FanOut      float64
	FanIn       float64
	Cutoff      float64
	Sigma       float64
	Weight      Quantity
	Delay       Quantity
	Threshold   *float64
}

// DefaultConnection returns the values ingestion uses when a description is
// silent: all-to-all, fixed weight 1, fixed delay 0.
func DefaultConnection() Connection {
	return Connection{
		Pattern: PatternAllToAll,
		Weight:  FixedQuantity(1),
		Delay:   FixedQuantity(0),
	}
}

// Properties encodes the connection as an edge property bag. Only the
// active half of each quantity is written.
func (c Connection) Properties() Properties {
	props := Properties{
		PropConnectivity: Enum(string(c.Pattern)),
	}
	if c.Label != "" {
		props[PropConnectionLabel] = String(c.Label)
	}
	switch c.Pattern {
	case PatternRandom:
		props[PropProbability] = Number(c.Probability)
	case PatternFanOut:
		props[PropFanOutDegree] = Number(c.FanOut)
	case PatternFanIn:
		props[PropFanInDegree] = Number(c.FanIn)
	case PatternSpatialGaussian:
		props[PropSpatialCutoff] = Number(c.Cutoff)
		props[PropSpatialSigma] = Number(c.Sigma)
	}
	putQuantity(props, c.Weight, PropWeightType, PropWeight, PropWeightGaussian)
	putQuantity(props, c.Delay, PropDelayType, PropDelay, PropDelayGaussian)
	if c.Threshold != nil {
		props[PropThreshold] = Number(*c.Threshold)
	}
	return props
}

func putQuantity(props Properties, q Quantity, typeKey, fixedKey, gaussKey string) {
	switch q.Type {
	case QuantityGaussian:
		props[typeKey] = Enum(string(QuantityGaussian))
		props[gaussKey] = Gaussian(q.Dist.Mean, q.Dist.Sigma)
	default:
		props[typeKey] = Enum(string(QuantityFixed))
		props[fixedKey] = Number(q.Fixed)
	}
}

// WeightOf reads the weight of an edge bag. It returns the fixed value or
// the Gaussian mean, the declared type, and whether the value was found.
// A bag without a recognizable "Weight Type" reports an empty type and uses
// the plain "Weight" number if present.
func WeightOf(props Properties) (float64, QuantityType, bool) {
	typeText, hasType := props.Text(PropWeightType)
	if hasType {
		t, err := ParseQuantityType(typeText)
		if err == nil && t == QuantityGaussian {
			d, ok := props.Distribution(PropWeightGaussian)
			return d.Mean, QuantityGaussian, ok
		}
		if err == nil {
			w, ok := props.Number(PropWeight)
			return w, QuantityFixed, ok
		}
	}
	w, ok := props.Number(PropWeight)
	return w, "", ok
}

// SanitizeEdge returns a copy of props restricted to the known vocabulary.
// An unrecognized connectivity pattern becomes all-to-all and an
// unrecognized quantity type becomes fixed, and a NaN or infinite number
// becomes its default. Every substitution is reported as an error wrapping
// ErrUnrecognizedPattern or ErrNonFiniteValue; the returned bag is always usable.
func SanitizeEdge(props Properties) (Properties, []error) {
	out := props.Clone()
	if out == nil {
		out = make(Properties)
	}
	var problems []error

	if v, ok := out.Get(PropConnectivity); ok {
		p, err := ParsePattern(v.Text)
		if err != nil || !v.IsCategorical() {
			problems = append(problems, fmt.Errorf("%w: connectivity %q, using %s", ErrUnrecognizedPattern, v.String(), PatternAllToAll))
			p = PatternAllToAll
		}
		out[PropConnectivity] = Enum(string(p))
	}

	for _, key := range []string{PropWeightType, PropDelayType} {
		v, ok := out.Get(key)
		if !ok {
			continue
		}
		t, err := ParseQuantityType(v.Text)
		if err != nil || !v.IsCategorical() {
			problems = append(problems, fmt.Errorf("%w: %s %q, using %s", ErrUnrecognizedPattern, key, v.String(), QuantityFixed))
			t = QuantityFixed
		}
		out[key] = Enum(string(t))
	}

	keys := make([]string, 0, len(out))
	for key, v := range out {
		if !v.IsFinite() {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	for _, key := range keys {
		v := out[key]
		dflt := nonFiniteDefault(key, v.Type)
		problems = append(problems, fmt.Errorf("%w: %s %s, using %s", ErrNonFiniteValue, key, v.String(), dflt.String()))
		out[key] = dflt
	}

	return out, problems
}

// nonFiniteDefault replaces a NaN or infinite number. Weights take the
// ingestion default of 1, everything else 0.
func nonFiniteDefault(key string, t ValueType) Value {
	w := DefaultConnection().Weight.Fixed
	if t == ValueDistribution {
		if key == PropWeightGaussian {
			return Gaussian(w, 0)
		}
		return Gaussian(0, 0)
	}
	if key == PropWeight {
		return Number(w)
	}
	return Number(0)
}
