package domain

import (
	"fmt"
	"math"
	"strconv"
)

// ValueType identifies which field of a Value is meaningful
type ValueType int

const (
	ValueNumber ValueType = iota + 1
	ValueString
	ValueEnum
	ValueDistribution
)

func (t ValueType) String() string {
	switch t {
	case ValueNumber:
		return "number"
	case ValueString:
		return "string"
	case ValueEnum:
		return "enum"
	case ValueDistribution:
		return "distribution"
	}
	return "invalid"
}

// Distribution is a Gaussian described by its mean and standard deviation
type Distribution struct {
	Mean  float64 `json:"mean" yaml:"mean"`
	Sigma float64 `json:"sigma" yaml:"sigma"`
}

// Value is a typed property value
type Value struct {
	Type   ValueType    `json:"type"`
	Number float64      `json:"number,omitempty"`
	Text   string       `json:"text,omitempty"`
	Dist   Distribution `json:"dist,omitempty"`
}

// Number creates a numeric value
func Number(f float64) Value {
	return Value{Type: ValueNumber, Number: f}
}

// String creates a free-text value
func String(s string) Value {
	return Value{Type: ValueString, Text: s}
}

// Enum creates an enumerated value
func Enum(s string) Value {
	return Value{Type: ValueEnum, Text: s}
}

// Gaussian creates a distribution value
func Gaussian(mean, sigma float64) Value {
	return Value{Type: ValueDistribution, Dist: Distribution{Mean: mean, Sigma: sigma}}
}

// IsFinite reports whether every number the value carries is neither NaN
// nor infinite. Categorical values are always finite.
func (v Value) IsFinite() bool {
	switch v.Type {
	case ValueNumber:
		return finite(v.Number)
	case ValueDistribution:
		return finite(v.Dist.Mean) && finite(v.Dist.Sigma)
	}
	return true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// IsCategorical reports whether the value is compared by identity rather than magnitude
func (v Value) IsCategorical() bool {
	return v.Type == ValueString || v.Type == ValueEnum
}

func (v Value) String() string {
	switch v.Type {
	case ValueNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case ValueString, ValueEnum:
		return v.Text
	case ValueDistribution:
		return fmt.Sprintf("N(%g, %g)", v.Dist.Mean, v.Dist.Sigma)
	}
	return ""
}

// Properties maps a property name to its value
type Properties map[string]Value

// Get returns the named value
func (p Properties) Get(name string) (Value, bool) {
	if p == nil {
		return Value{}, false
	}
	v, ok := p[name]
	return v, ok
}

// Has reports whether the property is present
func (p Properties) Has(name string) bool {
	_, ok := p.Get(name)
	return ok
}

// Number returns the named property when it is numeric
func (p Properties) Number(name string) (float64, bool) {
	v, ok := p.Get(name)
	if !ok || v.Type != ValueNumber {
		return 0, false
	}
	return v.Number, true
}

// Text returns the named property when it is a string or enum
func (p Properties) Text(name string) (string, bool) {
	v, ok := p.Get(name)
	if !ok || !v.IsCategorical() {
		return "", false
	}
	return v.Text, true
}

// Distribution returns the named property when it is a distribution
func (p Properties) Distribution(name string) (Distribution, bool) {
	v, ok := p.Get(name)
	if !ok || v.Type != ValueDistribution {
		return Distribution{}, false
	}
	return v.Dist, true
}

// Clone returns a shallow copy. Values are plain data so the copy is independent.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
