package scale

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// LinearMapper maps [DomainMin, DomainMax] linearly onto [RangeMin, RangeMax].
// Inputs outside the domain are clamped.
type LinearMapper struct {
	DomainMin float64
	DomainMax float64
	RangeMin  float64
	RangeMax  float64
}

// NewLinearMapper creates a mapper
func NewLinearMapper(domainMin, domainMax, rangeMin, rangeMax float64) LinearMapper {
	return LinearMapper{
		DomainMin: domainMin,
		DomainMax: domainMax,
		RangeMin:  rangeMin,
		RangeMax:  rangeMax,
	}
}

// Map returns the image of v
func (m LinearMapper) Map(v float64) float64 {
	span := m.DomainMax - m.DomainMin
	if span <= 0 {
		return m.RangeMin
	}
	t := (v - m.DomainMin) / span
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return m.RangeMin + t*(m.RangeMax-m.RangeMin)
}

func (m LinearMapper) String() string {
	return fmt.Sprintf("[%g, %g] -> [%g, %g]", m.DomainMin, m.DomainMax, m.RangeMin, m.RangeMax)
}

// Gradient blends two colors over [Min, Max]
type Gradient struct {
	Min  float64
	Max  float64
	From colorful.Color
	To   colorful.Color
}

// NewGradient creates a gradient
func NewGradient(lo, hi float64, from, to colorful.Color) Gradient {
	return Gradient{Min: lo, Max: hi, From: from, To: to}
}

// At returns the color at v, clamped to the gradient ends
func (g Gradient) At(v float64) colorful.Color {
	t := NewLinearMapper(g.Min, g.Max, 0, 1).Map(v)
	return g.From.BlendRgb(g.To, t).Clamped()
}

// Steps returns n colors spread evenly from Min to Max
func (g Gradient) Steps(n int) []colorful.Color {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []colorful.Color{g.From}
	}
	out := make([]colorful.Color, n)
	for i := range out {
		out[i] = g.At(g.Min + (g.Max-g.Min)*float64(i)/float64(n-1))
	}
	return out
}
