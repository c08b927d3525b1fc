// Package store owns the entities of a dataset and the relationship tables
// connecting them.
//
// Entities are indexed by GID in a B-tree so iteration follows id order.
// Relationship tables are created on first access and come in three kinds:
// OneToOne, OneToN and AggregatedOneToN. A table handle exposes
// capability-checked accessors; asking for the wrong kind fails with
// domain.ErrWrongRelationshipKind.
//
// The store performs no locking. Callers serialize access.
package store

import (
	"fmt"

	"netscheme/internal/domain"

	"github.com/tidwall/btree"
)

// Aggregator summarizes the edges sharing one (source, destination) pair
type Aggregator interface {
	Aggregate(edges []domain.Edge) domain.Properties
}

// Option configures a Store
type Option func(*Store)

// WithAggregator sets the aggregator used by AggregatedOneToN tables
func WithAggregator(a Aggregator) Option {
	return func(s *Store) {
		s.aggregator = a
	}
}

// Store holds entities keyed by GID and named relationship tables
type Store struct {
	entities   *btree.BTreeG[*domain.Entity]
	nextGID    domain.GID
	tables     map[string]*Table
	aggregator Aggregator
}

func byGID(a, b *domain.Entity) bool {
	return a.GID < b.GID
}

// New creates an empty store
func New(opts ...Option) *Store {
	s := &Store{
		aggregator: countAggregator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.entities = btree.NewBTreeG(byGID)
	s.nextGID = 1
	s.tables = make(map[string]*Table)
}

// Add inserts an entity. A zero GID is replaced by the next free id; a
// non-zero GID is kept if unused. On ErrDuplicateIdentifier the store is
// left unchanged.
func (s *Store) Add(e *domain.Entity) (domain.GID, error) {
	if e == nil {
		return 0, fmt.Errorf("add entity: nil entity")
	}
	if e.GID == 0 {
		e.GID = s.nextGID
	} else if _, exists := s.entities.Get(e); exists {
		return 0, fmt.Errorf("add entity %d: %w", e.GID, domain.ErrDuplicateIdentifier)
	}
	if e.Properties == nil {
		e.Properties = make(domain.Properties)
	}
	s.entities.Set(e)
	if e.GID >= s.nextGID {
		s.nextGID = e.GID + 1
	}
	return e.GID, nil
}

// Get returns the entity with the given id
func (s *Store) Get(gid domain.GID) (*domain.Entity, error) {
	e, ok := s.entities.Get(&domain.Entity{GID: gid})
	if !ok {
		return nil, fmt.Errorf("entity %d: %w", gid, domain.ErrNotFound)
	}
	return e, nil
}

// Has reports whether an entity with the given id exists
func (s *Store) Has(gid domain.GID) bool {
	_, ok := s.entities.Get(&domain.Entity{GID: gid})
	return ok
}

// Len returns the number of entities
func (s *Store) Len() int {
	return s.entities.Len()
}

// All returns every entity in GID order
func (s *Store) All() []*domain.Entity {
	out := make([]*domain.Entity, 0, s.entities.Len())
	s.entities.Scan(func(e *domain.Entity) bool {
		out = append(out, e)
		return true
	})
	return out
}

// Ascend calls fn for each entity in GID order until fn returns false
func (s *Store) Ascend(fn func(*domain.Entity) bool) {
	s.entities.Scan(fn)
}

// Clear drops all entities and relationship tables and reclaims the id
// space. Table handles obtained before Clear are detached and must be
// requested again.
func (s *Store) Clear() {
	s.reset()
}

// Table returns the named relationship table, creating it with the given
// kind on first access. An AggregatedOneToN table created this way
// aggregates over a private OneToN table reachable through Base.
func (s *Store) Table(name string, kind Kind) (*Table, error) {
	if t, ok := s.tables[name]; ok {
		if t.kind != kind {
			return nil, fmt.Errorf("table %q is %s, requested %s: %w", name, t.kind, kind, domain.ErrWrongRelationshipKind)
		}
		return t, nil
	}

	t := &Table{name: name, kind: kind}
	switch kind {
	case KindOneToOne:
		t.one = newOneToOne()
	case KindOneToN:
		t.many = newOneToN()
	case KindAggregatedOneToN:
		t.agg = newAggregated(newOneToN(), s.aggregator)
	default:
		return nil, fmt.Errorf("table %q: invalid kind %d", name, kind)
	}
	s.tables[name] = t
	return t, nil
}

// AggregateOver returns the named AggregatedOneToN table built over the
// OneToN table base, creating either as needed.
func (s *Store) AggregateOver(name, base string) (*Table, error) {
	baseTable, err := s.Table(base, KindOneToN)
	if err != nil {
		return nil, err
	}
	if t, ok := s.tables[name]; ok {
		if t.kind != KindAggregatedOneToN {
			return nil, fmt.Errorf("table %q is %s, requested %s: %w", name, t.kind, KindAggregatedOneToN, domain.ErrWrongRelationshipKind)
		}
		if t.agg.base != baseTable.many {
			return nil, fmt.Errorf("table %q aggregates another table than %q", name, base)
		}
		return t, nil
	}
	t := &Table{
		name: name,
		kind: KindAggregatedOneToN,
		agg:  newAggregated(baseTable.many, s.aggregator),
	}
	s.tables[name] = t
	return t, nil
}

// Lookup returns an existing table without creating it
func (s *Store) Lookup(name string) (*Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// TableNames returns the names of all tables
func (s *Store) TableNames() []string {
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	return names
}

// countAggregator is used when no Aggregator is configured
type countAggregator struct{}

func (countAggregator) Aggregate(edges []domain.Edge) domain.Properties {
	return domain.Properties{PropEdgeCount: domain.Number(float64(len(edges)))}
}

// PropEdgeCount is the number of raw edges that went into an aggregated bag
const PropEdgeCount = "Edge count"
