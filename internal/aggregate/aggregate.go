// Package aggregate summarizes the raw edges sharing a (source, destination)
// pair into one synthetic property bag.
//
// For every numeric property the bag carries "<name> mean" and
// "<name> count". A distribution property contributes the means of its
// Gaussian parameters as "<name> Mean mean" and "<name> Sigma mean".
// Categorical properties report their dominant value under the original
// name. Ties go to the value seen first in edge insertion order.
package aggregate

import (
	"netscheme/internal/domain"
	"netscheme/internal/store"

	"gonum.org/v1/gonum/stat"
)

// Suffixes appended to property names in aggregated bags
const (
	SuffixMean  = " mean"
	SuffixCount = " count"
)

// Aggregated property names read by representations and the range tracker
const (
	PropWeightMean             = domain.PropWeight + SuffixMean
	PropWeightCount            = domain.PropWeight + SuffixCount
	PropWeightGaussianMeanMean = domain.PropWeightGaussian + " Mean" + SuffixMean
)

// Engine implements store.Aggregator
type Engine struct{}

var _ store.Aggregator = (*Engine)(nil)

// New creates an aggregation engine
func New() *Engine {
	return &Engine{}
}

// Aggregate builds the summary bag for edges. Edges without a property bag
// still count towards the edge total.
func (e *Engine) Aggregate(edges []domain.Edge) domain.Properties {
	numbers := newSeries()
	means := newSeries()
	sigmas := newSeries()
	categories := make(map[string]*tally)
	var categoryOrder []string

	for _, edge := range edges {
		for name, v := range edge.Properties {
			switch v.Type {
			case domain.ValueNumber:
				numbers.add(name, v.Number)
			case domain.ValueDistribution:
				means.add(name, v.Dist.Mean)
				sigmas.add(name, v.Dist.Sigma)
			case domain.ValueString, domain.ValueEnum:
				t, ok := categories[name]
				if !ok {
					t = newTally(v.Type)
					categories[name] = t
					categoryOrder = append(categoryOrder, name)
				}
				t.add(v.Text)
			}
		}
	}

	out := domain.Properties{
		store.PropEdgeCount: domain.Number(float64(len(edges))),
	}
	for name, xs := range numbers.values {
		out[name+SuffixMean] = domain.Number(stat.Mean(xs, nil))
		out[name+SuffixCount] = domain.Number(float64(len(xs)))
	}
	for name, xs := range means.values {
		out[name+" Mean"+SuffixMean] = domain.Number(stat.Mean(xs, nil))
		out[name+" Sigma"+SuffixMean] = domain.Number(stat.Mean(sigmas.values[name], nil))
		out[name+SuffixCount] = domain.Number(float64(len(xs)))
	}
	for _, name := range categoryOrder {
		t := categories[name]
		out[name] = domain.Value{Type: t.valueType, Text: t.dominant()}
	}
	return out
}

// Pair aggregates the edges of one pair read straight from a raw table
func (e *Engine) Pair(rel *store.OneToN, src, dst domain.GID) (domain.Properties, bool) {
	edges := rel.Edges(src, dst)
	if len(edges) == 0 {
		return nil, false
	}
	return e.Aggregate(edges), true
}

type series struct {
	values map[string][]float64
}

func newSeries() *series {
	return &series{values: make(map[string][]float64)}
}

func (s *series) add(name string, v float64) {
	s.values[name] = append(s.values[name], v)
}

// tally counts categorical values and remembers first-seen order
type tally struct {
	valueType domain.ValueType
	counts    map[string]int
	order     []string
}

func newTally(t domain.ValueType) *tally {
	return &tally{valueType: t, counts: make(map[string]int)}
}

func (t *tally) add(v string) {
	if _, ok := t.counts[v]; !ok {
		t.order = append(t.order, v)
	}
	t.counts[v]++
}

func (t *tally) dominant() string {
	best, bestCount := "", 0
	for _, v := range t.order {
		if c := t.counts[v]; c > bestCount {
			best, bestCount = v, c
		}
	}
	return best
}
