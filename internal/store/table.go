package store

import (
	"fmt"

	"netscheme/internal/domain"
)

// Kind is the variant of a relationship table
type Kind int

const (
	KindOneToOne Kind = iota + 1
	KindOneToN
	KindAggregatedOneToN
)

func (k Kind) String() string {
	switch k {
	case KindOneToOne:
		return "one-to-one"
	case KindOneToN:
		return "one-to-n"
	case KindAggregatedOneToN:
		return "aggregated-one-to-n"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Table is a handle on one named relationship table. Exactly one of the
// variant accessors succeeds.
type Table struct {
	name string
	kind Kind
	one  *OneToOne
	many *OneToN
	agg  *AggregatedOneToN
}

// Name returns the table name
func (t *Table) Name() string {
	return t.name
}

// Kind returns the table variant
func (t *Table) Kind() Kind {
	return t.kind
}

func (t *Table) wrongKind(want Kind) error {
	return fmt.Errorf("table %q is %s, accessed as %s: %w", t.name, t.kind, want, domain.ErrWrongRelationshipKind)
}

// OneToOne returns the table as a OneToOne relationship
func (t *Table) OneToOne() (*OneToOne, error) {
	if t.kind != KindOneToOne {
		return nil, t.wrongKind(KindOneToOne)
	}
	return t.one, nil
}

// OneToN returns the table as a OneToN relationship
func (t *Table) OneToN() (*OneToN, error) {
	if t.kind != KindOneToN {
		return nil, t.wrongKind(KindOneToN)
	}
	return t.many, nil
}

// Aggregated returns the table as an AggregatedOneToN relationship
func (t *Table) Aggregated() (*AggregatedOneToN, error) {
	if t.kind != KindAggregatedOneToN {
		return nil, t.wrongKind(KindAggregatedOneToN)
	}
	return t.agg, nil
}

// Count returns the number of edges from src to dst whatever the variant
func (t *Table) Count(src, dst domain.GID) int {
	switch t.kind {
	case KindOneToOne:
		if d, ok := t.one.Get(src); ok && d == dst {
			return 1
		}
		return 0
	case KindOneToN:
		return t.many.Count(src, dst)
	case KindAggregatedOneToN:
		return t.agg.Count(src, dst)
	}
	return 0
}

// HasSource reports whether any edge leaves src
func (t *Table) HasSource(src domain.GID) bool {
	switch t.kind {
	case KindOneToOne:
		_, ok := t.one.Get(src)
		return ok
	case KindOneToN:
		return t.many.HasSource(src)
	case KindAggregatedOneToN:
		return t.agg.base.HasSource(src)
	}
	return false
}

// OneToOne maps a source to a single destination
type OneToOne struct {
	dst map[domain.GID]domain.GID
}

func newOneToOne() *OneToOne {
	return &OneToOne{dst: make(map[domain.GID]domain.GID)}
}

// Set points src at dst, replacing any previous destination
func (r *OneToOne) Set(src, dst domain.GID) {
	r.dst[src] = dst
}

// Get returns the destination of src
func (r *OneToOne) Get(src domain.GID) (domain.GID, bool) {
	d, ok := r.dst[src]
	return d, ok
}

// Remove drops the mapping for src
func (r *OneToOne) Remove(src domain.GID) bool {
	if _, ok := r.dst[src]; !ok {
		return false
	}
	delete(r.dst, src)
	return true
}

// Len returns the number of mapped sources
func (r *OneToOne) Len() int {
	return len(r.dst)
}

// OneToN maps a source to a multiset of destinations. Every edge is kept in
// insertion order, including repeated edges to the same destination.
type OneToN struct {
	edges map[domain.GID][]domain.Edge

	// clock advances on every mutation; versions records the clock value of
	// the last mutation touching each pair.
	clock    uint64
	versions map[domain.Pair]uint64
}

func newOneToN() *OneToN {
	return &OneToN{
		edges:    make(map[domain.GID][]domain.Edge),
		versions: make(map[domain.Pair]uint64),
	}
}

func (r *OneToN) touch(p domain.Pair) {
	r.clock++
	r.versions[p] = r.clock
}

// Add appends an edge from src to dst. props may be nil.
func (r *OneToN) Add(src, dst domain.GID, props domain.Properties) {
	r.edges[src] = append(r.edges[src], domain.Edge{Src: src, Dst: dst, Properties: props})
	r.touch(domain.Pair{Src: src, Dst: dst})
}

// Edges returns the edges from src to dst in insertion order
func (r *OneToN) Edges(src, dst domain.GID) []domain.Edge {
	var out []domain.Edge
	for _, e := range r.edges[src] {
		if e.Dst == dst {
			out = append(out, e)
		}
	}
	return out
}

// First returns the first inserted edge from src to dst
func (r *OneToN) First(src, dst domain.GID) (domain.Edge, bool) {
	for _, e := range r.edges[src] {
		if e.Dst == dst {
			return e, true
		}
	}
	return domain.Edge{}, false
}

// From returns every edge leaving src in insertion order
func (r *OneToN) From(src domain.GID) []domain.Edge {
	return append([]domain.Edge(nil), r.edges[src]...)
}

// Count returns the number of edges from src to dst
func (r *OneToN) Count(src, dst domain.GID) int {
	n := 0
	for _, e := range r.edges[src] {
		if e.Dst == dst {
			n++
		}
	}
	return n
}

// HasSource reports whether any edge leaves src
func (r *OneToN) HasSource(src domain.GID) bool {
	return len(r.edges[src]) > 0
}

// Destinations returns the distinct destinations of src in first-seen order
func (r *OneToN) Destinations(src domain.GID) []domain.GID {
	seen := make(map[domain.GID]struct{})
	var out []domain.GID
	for _, e := range r.edges[src] {
		if _, ok := seen[e.Dst]; ok {
			continue
		}
		seen[e.Dst] = struct{}{}
		out = append(out, e.Dst)
	}
	return out
}

// UpdateFirst replaces the property bag of the first edge from src to dst
func (r *OneToN) UpdateFirst(src, dst domain.GID, props domain.Properties) bool {
	edges := r.edges[src]
	for i := range edges {
		if edges[i].Dst == dst {
			edges[i].Properties = props
			r.touch(domain.Pair{Src: src, Dst: dst})
			return true
		}
	}
	return false
}

// Remove drops every edge from src to dst and returns how many were removed
func (r *OneToN) Remove(src, dst domain.GID) int {
	edges := r.edges[src]
	kept := edges[:0]
	removed := 0
	for _, e := range edges {
		if e.Dst == dst {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	if removed == 0 {
		return 0
	}
	if len(kept) == 0 {
		delete(r.edges, src)
	} else {
		r.edges[src] = kept
	}
	r.touch(domain.Pair{Src: src, Dst: dst})
	return removed
}

// Version returns a value that changes whenever an edge between src and dst
// is added, updated or removed. Zero means the pair was never touched.
func (r *OneToN) Version(src, dst domain.GID) uint64 {
	return r.versions[domain.Pair{Src: src, Dst: dst}]
}

// Len returns the total number of edges
func (r *OneToN) Len() int {
	n := 0
	for _, edges := range r.edges {
		n += len(edges)
	}
	return n
}

// AggregatedOneToN maps each (source, destination) pair of a base OneToN
// table to one synthetic property bag. Bags are recomputed lazily: a read
// recomputes the pair when the base table changed since the last read.
type AggregatedOneToN struct {
	base       *OneToN
	aggregator Aggregator
	bags       map[domain.Pair]aggregatedBag
}

type aggregatedBag struct {
	version uint64
	props   domain.Properties
}

func newAggregated(base *OneToN, a Aggregator) *AggregatedOneToN {
	return &AggregatedOneToN{
		base:       base,
		aggregator: a,
		bags:       make(map[domain.Pair]aggregatedBag),
	}
}

// Base returns the raw table the aggregation reads from
func (r *AggregatedOneToN) Base() *OneToN {
	return r.base
}

// Get returns the aggregated bag for src to dst. The bag reflects every
// edge present in the base table at the moment of the call. It reports
// false when no edge connects the pair.
func (r *AggregatedOneToN) Get(src, dst domain.GID) (domain.Properties, bool) {
	p := domain.Pair{Src: src, Dst: dst}
	version := r.base.Version(src, dst)
	if bag, ok := r.bags[p]; ok && bag.version == version {
		return bag.props, bag.props != nil
	}

	edges := r.base.Edges(src, dst)
	var props domain.Properties
	if len(edges) > 0 {
		props = r.aggregator.Aggregate(edges)
	}
	r.bags[p] = aggregatedBag{version: version, props: props}
	return props, props != nil
}

// Count returns the number of raw edges behind the pair
func (r *AggregatedOneToN) Count(src, dst domain.GID) int {
	return r.base.Count(src, dst)
}

// Destinations returns the distinct destinations of src
func (r *AggregatedOneToN) Destinations(src domain.GID) []domain.GID {
	return r.base.Destinations(src)
}

// Stale reports whether the pair's bag would be recomputed on the next Get
func (r *AggregatedOneToN) Stale(src, dst domain.GID) bool {
	bag, ok := r.bags[domain.Pair{Src: src, Dst: dst}]
	return !ok || bag.version != r.base.Version(src, dst)
}
