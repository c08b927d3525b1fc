// Package scene is the context object tying the store, the range tracker,
// the factory and the representation cache together.
//
// Ingestion and interactive edits go through Scene so that every growth of
// a tracked maximum is seen by the rescale policy: when the tracker reports
// growth, the whole representation cache is cleared and later queries
// rebuild against the new mappers.
//
// A Scene is not safe for concurrent use. Callers serialize every call,
// queries included.
package scene

import (
	"errors"
	"fmt"
	"math"

	"netscheme/internal/aggregate"
	"netscheme/internal/cache"
	"netscheme/internal/domain"
	"netscheme/internal/logger"
	"netscheme/internal/metrics"
	"netscheme/internal/represent"
	"netscheme/internal/scale"
	"netscheme/internal/store"

	"github.com/prometheus/client_golang/prometheus"
)

// Standard relationship tables
const (
	TableConnectsTo           = "connectsTo"
	TableConnectedBy          = "connectedBy"
	TableIsParentOf           = "isParentOf"
	TableIsChildOf            = "isChildOf"
	TableAggregatedConnectsTo = "aggregatedConnectsTo"
)

// Options configures a Scene
type Options struct {
	Scale   scale.Options
	Palette *represent.Palette
	// Registerer receives the cache metrics; nil disables them
	Registerer prometheus.Registerer
}

// DefaultOptions returns the stock tracker settings without metrics
func DefaultOptions() Options {
	return Options{Scale: scale.DefaultOptions()}
}

// Scene owns one dataset and everything derived from it
type Scene struct {
	store   *store.Store
	tracker *scale.Tracker
	factory *represent.Factory
	cache   *cache.Cache
	metrics *metrics.Cache
	events  *EventBus
}

// New creates an empty scene with the standard tables
func New(opts Options) *Scene {
	s := &Scene{
		store:   store.New(store.WithAggregator(aggregate.New())),
		tracker: scale.NewTracker(opts.Scale),
		events:  NewEventBus(),
	}
	if opts.Registerer != nil {
		s.metrics = metrics.NewCache(opts.Registerer)
	}
	factoryOpts := []represent.Option{represent.WithMetrics(s.metrics)}
	if opts.Palette != nil {
		factoryOpts = append(factoryOpts, represent.WithPalette(*opts.Palette))
	}
	s.factory = represent.NewFactory(s.tracker, factoryOpts...)
	s.cache = cache.New(s.factory, cache.WithMetrics(s.metrics))
	s.createStandardTables()
	return s
}

func (s *Scene) createStandardTables() {
	for name, kind := range map[string]store.Kind{
		TableConnectsTo:  store.KindOneToN,
		TableConnectedBy: store.KindOneToN,
		TableIsParentOf:  store.KindOneToN,
		TableIsChildOf:   store.KindOneToOne,
	} {
		if _, err := s.store.Table(name, kind); err != nil {
			panic(err)
		}
	}
	if _, err := s.store.AggregateOver(TableAggregatedConnectsTo, TableConnectsTo); err != nil {
		panic(err)
	}
}

// Store returns the entity store
func (s *Scene) Store() *store.Store { return s.store }

// Tracker returns the range tracker
func (s *Scene) Tracker() *scale.Tracker { return s.tracker }

// Cache returns the representation cache
func (s *Scene) Cache() *cache.Cache { return s.cache }

// Factory returns the representation factory
func (s *Scene) Factory() *represent.Factory { return s.factory }

// Events returns the event bus
func (s *Scene) Events() *EventBus { return s.events }

// Metrics returns the cache metrics, nil when disabled
func (s *Scene) Metrics() *metrics.Cache { return s.metrics }

// Observe feeds value to the tracker and applies the rescale policy. It
// reports whether the maximum of kind grew.
func (s *Scene) Observe(kind scale.Kind, value float64) bool {
	if !s.tracker.Observe(kind, value) {
		return false
	}
	s.metrics.Rescale(kind.String())
	s.cache.Clear()
	logger.Debug("rescaled", "kind", kind, "max", value)
	s.events.Publish(Event{
		Type:    EventRescaled,
		Payload: map[string]any{"kind": kind.String(), "max": value},
	})
	return true
}

// EntityUpdatedOrCreated observes the tracked quantities of e and reports
// whether any maximum grew
func (s *Scene) EntityUpdatedOrCreated(e *domain.Entity) bool {
	grew := false
	switch e.Kind {
	case domain.KindPopulation, domain.KindInput:
		if n, ok := e.Properties.Number(domain.PropNbNeurons); ok {
			grew = s.Observe(scale.KindMagnitude, n) || grew
		}
	case domain.KindSuperPopulation:
		if n, ok := e.Properties.Number(domain.PropNbNeuronsMean); ok {
			grew = s.Observe(scale.KindMagnitude, n) || grew
		}
		if d, ok := e.Properties.Number(domain.PropChildDepth); ok {
			grew = s.Observe(scale.KindDepth, d) || grew
		}
	}
	return grew
}

// RelationshipUpdatedOrCreated observes the absolute weight of an edge bag
// and reports whether the maximum grew. aggregated selects the "Weight mean"
// field of an aggregated bag.
func (s *Scene) RelationshipUpdatedOrCreated(props domain.Properties, aggregated bool) bool {
	var (
		w  float64
		ok bool
	)
	if aggregated {
		w, ok = props.Number(aggregate.PropWeightMean)
	} else {
		w, _, ok = domain.WeightOf(props)
	}
	if !ok {
		return false
	}
	return s.Observe(scale.KindWeight, math.Abs(w))
}

// DefineEntity adds a new entity and returns its gid
func (s *Scene) DefineEntity(kind domain.EntityKind, label string, props domain.Properties) (domain.GID, error) {
	e := domain.NewEntity(kind, label)
	for name, v := range props {
		e.SetProperty(name, v)
	}
	return s.AddEntity(e)
}

// AddEntity adds e, keeping its gid when set. It fails with
// domain.ErrDuplicateIdentifier if the gid is taken and
// domain.ErrUnknownKind for a kind outside the closed set.
func (s *Scene) AddEntity(e *domain.Entity) (domain.GID, error) {
	if !e.Kind.Valid() {
		return 0, fmt.Errorf("entity %q: %w: %q", e.Label, domain.ErrUnknownKind, e.Kind)
	}
	gid, err := s.store.Add(e)
	if err != nil {
		return 0, err
	}
	s.EntityUpdatedOrCreated(e)
	s.events.Publish(Event{
		Type:    EventEntityDefined,
		Payload: map[string]any{"gid": gid, "kind": string(e.Kind)},
	})
	return gid, nil
}

// Entity returns the entity with the given gid
func (s *Scene) Entity(gid domain.GID) (*domain.Entity, error) {
	return s.store.Get(gid)
}

// SetEntityProperty changes one property of an entity in place. The
// entity's representation is rebuilt on the next query.
func (s *Scene) SetEntityProperty(gid domain.GID, name string, value domain.Value) error {
	e, err := s.store.Get(gid)
	if err != nil {
		return err
	}
	e.SetProperty(name, value)
	if !s.EntityUpdatedOrCreated(e) {
		s.cache.Invalidate(gid)
	}
	s.events.Publish(Event{
		Type:    EventEntityUpdated,
		Payload: map[string]any{"gid": gid, "property": name},
	})
	return nil
}

func (s *Scene) requireEntities(gids ...domain.GID) error {
	for _, gid := range gids {
		if !s.store.Has(gid) {
			return fmt.Errorf("entity %d: %w", gid, domain.ErrNotFound)
		}
	}
	return nil
}

func (s *Scene) sanitize(pair domain.Pair, props domain.Properties) domain.Properties {
	clean, problems := domain.SanitizeEdge(props)
	for _, err := range problems {
		logger.Warn("edge property defaulted", "connection", pair, "error", err)
	}
	return clean
}

func (s *Scene) oneToN(name string) (*store.OneToN, error) {
	tbl, ok := s.store.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("table %q: %w", name, domain.ErrNotFound)
	}
	return tbl.OneToN()
}

// DefineEdge adds an edge from src to dst to the named table, creating a
// OneToN table on first use. Edges of connectsTo are sanitized, their weight
// is observed and the inverse edge is recorded in connectedBy.
func (s *Scene) DefineEdge(table string, src, dst domain.GID, props domain.Properties) error {
	if err := s.requireEntities(src, dst); err != nil {
		return err
	}
	pair := domain.Pair{Src: src, Dst: dst}
	tbl, ok := s.store.Lookup(table)
	if !ok {
		var err error
		if tbl, err = s.store.Table(table, store.KindOneToN); err != nil {
			return err
		}
	}

	switch tbl.Kind() {
	case store.KindOneToOne:
		one, _ := tbl.OneToOne()
		one.Set(src, dst)
	case store.KindOneToN:
		many, _ := tbl.OneToN()
		if props != nil {
			props = s.sanitize(pair, props)
		}
		many.Add(src, dst, props)
		if table == TableConnectsTo {
			inverse, err := s.oneToN(TableConnectedBy)
			if err != nil {
				return err
			}
			inverse.Add(dst, src, nil)
		}
	default:
		return fmt.Errorf("define edge in %q: derived tables are read-only: %w", table, domain.ErrWrongRelationshipKind)
	}

	s.cache.DropConnection(pair)
	if props != nil {
		s.RelationshipUpdatedOrCreated(props, false)
	}
	s.events.Publish(Event{
		Type:    EventEdgeDefined,
		Payload: map[string]any{"table": table, "src": src, "dst": dst},
	})
	return nil
}

// UpdateEdge replaces the property bag of the first edge from src to dst
func (s *Scene) UpdateEdge(table string, src, dst domain.GID, props domain.Properties) error {
	rel, err := s.oneToN(table)
	if err != nil {
		return err
	}
	pair := domain.Pair{Src: src, Dst: dst}
	props = s.sanitize(pair, props)
	if !rel.UpdateFirst(src, dst, props) {
		return fmt.Errorf("edge %s in %q: %w", pair, table, domain.ErrNotFound)
	}
	s.cache.DropConnection(pair)
	s.RelationshipUpdatedOrCreated(props, false)
	s.events.Publish(Event{
		Type:    EventEdgeUpdated,
		Payload: map[string]any{"table": table, "src": src, "dst": dst},
	})
	return nil
}

// BreakEdge removes every edge from src to dst in the named table and
// returns how many were removed. Breaking connectsTo edges also removes
// their connectedBy inverses.
func (s *Scene) BreakEdge(table string, src, dst domain.GID) (int, error) {
	rel, err := s.oneToN(table)
	if err != nil {
		return 0, err
	}
	pair := domain.Pair{Src: src, Dst: dst}
	removed := rel.Remove(src, dst)
	if removed == 0 {
		return 0, fmt.Errorf("edge %s in %q: %w", pair, table, domain.ErrNotFound)
	}
	s.cache.DropConnection(pair)
	if table == TableConnectsTo {
		if inverse, err := s.oneToN(TableConnectedBy); err == nil && inverse.Remove(dst, src) > 0 {
			s.cache.DropConnection(domain.Pair{Src: dst, Dst: src})
		}
	}
	s.events.Publish(Event{
		Type:    EventEdgeBroken,
		Payload: map[string]any{"table": table, "src": src, "dst": dst, "removed": removed},
	})
	return removed, nil
}

// SetParent makes child a member of parent. The "child depth" of every
// ancestor is raised so it stays one more than the deepest descendant.
func (s *Scene) SetParent(child, parent domain.GID) error {
	if child == parent {
		return fmt.Errorf("entity %d cannot contain itself", child)
	}
	if err := s.requireEntities(child, parent); err != nil {
		return err
	}
	parents, err := s.oneToN(TableIsParentOf)
	if err != nil {
		return err
	}
	childOf, err := s.childOf()
	if err != nil {
		return err
	}
	for cur, ok := parent, true; ok; cur, ok = childOf.Get(cur) {
		if cur == child {
			return fmt.Errorf("entity %d is an ancestor of %d", child, parent)
		}
	}

	parents.Add(parent, child, nil)
	childOf.Set(child, parent)

	depth := s.childDepth(child) + 1
	for cur, ok := parent, true; ok; cur, ok = childOf.Get(cur) {
		e, err := s.store.Get(cur)
		if err != nil || s.childDepth(cur) >= depth {
			break
		}
		e.SetProperty(domain.PropChildDepth, domain.Number(depth))
		if !s.EntityUpdatedOrCreated(e) {
			s.cache.Invalidate(cur)
		}
		depth++
	}
	return nil
}

func (s *Scene) childOf() (*store.OneToOne, error) {
	tbl, ok := s.store.Lookup(TableIsChildOf)
	if !ok {
		return nil, fmt.Errorf("table %q: %w", TableIsChildOf, domain.ErrNotFound)
	}
	return tbl.OneToOne()
}

func (s *Scene) childDepth(gid domain.GID) float64 {
	e, err := s.store.Get(gid)
	if err != nil {
		return 0
	}
	d, _ := e.Properties.Number(domain.PropChildDepth)
	return d
}

// Parent returns the parent of gid
func (s *Scene) Parent(gid domain.GID) (domain.GID, bool) {
	childOf, err := s.childOf()
	if err != nil {
		return 0, false
	}
	return childOf.Get(gid)
}

// Children returns the direct members of gid in insertion order
func (s *Scene) Children(gid domain.GID) []domain.GID {
	parents, err := s.oneToN(TableIsParentOf)
	if err != nil {
		return nil
	}
	return parents.Destinations(gid)
}

// Clear drops the dataset, resets every maximum to its floor and empties
// the representation cache. Freed gids can be used again.
func (s *Scene) Clear() {
	s.store.Clear()
	s.tracker.Reset()
	s.cache.Clear()
	s.createStandardTables()
	s.events.Publish(Event{Type: EventCleared})
}

// Representations returns the representations of the given entities.
// Unknown gids are skipped.
func (s *Scene) Representations(gids []domain.GID) []*represent.Representation {
	entities := make([]*domain.Entity, 0, len(gids))
	for _, gid := range gids {
		e, err := s.store.Get(gid)
		if err != nil {
			logger.Debug("skipping representation", "entity", gid, "error", err)
			continue
		}
		entities = append(entities, e)
	}
	return s.cache.RepresentationsFor(entities, true, true)
}

// AllRepresentations returns the representations of every entity in gid order
func (s *Scene) AllRepresentations() []*represent.Representation {
	return s.cache.RepresentationsFor(s.store.All(), true, true)
}

// ConnectionRepresentations returns the connection representations among
// gids in the named table
func (s *Scene) ConnectionRepresentations(gids []domain.GID, table string) ([]*represent.Representation, error) {
	tbl, ok := s.store.Lookup(table)
	if !ok {
		return nil, fmt.Errorf("table %q: %w", table, domain.ErrNotFound)
	}
	return s.cache.ConnectionRepresentationsFor(gids, tbl), nil
}

// GIDs returns every entity id in ascending order
func (s *Scene) GIDs() []domain.GID {
	gids := make([]domain.GID, 0, s.store.Len())
	s.store.Ascend(func(e *domain.Entity) bool {
		gids = append(gids, e.GID)
		return true
	})
	return gids
}

// MaxAbsoluteWeight returns the largest absolute connection weight seen
func (s *Scene) MaxAbsoluteWeight() float64 { return s.tracker.MaxAbsoluteWeight() }

// MaxMagnitude returns the largest entity magnitude seen
func (s *Scene) MaxMagnitude() float64 { return s.tracker.MaxMagnitude() }

// MaxHierarchyDepth returns the deepest hierarchy level seen
func (s *Scene) MaxHierarchyDepth() float64 { return s.tracker.MaxHierarchyDepth() }

// IsSkippable reports whether err marks an item ingestion skips rather
// than a failure of the whole load
func IsSkippable(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUnknownKind)
}
