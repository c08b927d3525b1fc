// Package cache stores representations and deduplicates them.
//
// Representations live in an arena keyed by handle. Entities and
// representations refer to each other only through two index maps over
// stable ids (gid and handle), so neither side owns the other. Each entity
// has at most one primary representation built by the factory; additional
// representations of the same entity (independent views) can be attached
// with Link.
//
// Connection representations are keyed by ordered gid pair. A pair gets one
// representation no matter how many edges or tables connect it.
//
// Cache is not safe for concurrent use.
package cache

import (
	"cmp"
	"slices"

	"netscheme/internal/domain"
	"netscheme/internal/logger"
	"netscheme/internal/metrics"
	"netscheme/internal/represent"
	"netscheme/internal/store"
)

// ConnectionEntry is the cached state of one ordered pair
type ConnectionEntry struct {
	Rep       *represent.Representation
	Source    domain.GID
	Dest      domain.GID
	SourceRep *represent.Representation
	DestRep   *represent.Representation
	// Table is the name of the table whose query created the entry
	Table string
}

// Cache is the representation cache
type Cache struct {
	factory *represent.Factory
	metrics *metrics.Cache

	nextHandle represent.Handle
	arena      map[represent.Handle]*represent.Representation

	primary     map[domain.GID]represent.Handle
	entityReps  map[domain.GID][]represent.Handle
	repEntities map[represent.Handle][]domain.GID
	connections map[domain.Pair]*ConnectionEntry
}

// Option configures a Cache
type Option func(*Cache)

// WithMetrics records hits and misses
func WithMetrics(m *metrics.Cache) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New creates an empty cache building through factory
func New(factory *represent.Factory, opts ...Option) *Cache {
	c := &Cache{factory: factory}
	for _, opt := range opts {
		opt(c)
	}
	c.reset()
	return c
}

func (c *Cache) reset() {
	c.arena = make(map[represent.Handle]*represent.Representation)
	c.primary = make(map[domain.GID]represent.Handle)
	c.entityReps = make(map[domain.GID][]represent.Handle)
	c.repEntities = make(map[represent.Handle][]domain.GID)
	c.connections = make(map[domain.Pair]*ConnectionEntry)
}

// store assigns a handle to r and puts it in the arena. Handles are never
// reused, so a handle held across Clear cannot alias a newer record.
func (c *Cache) store(r *represent.Representation) {
	c.nextHandle++
	r.Handle = c.nextHandle
	c.arena[r.Handle] = r
}

// RepresentationsFor returns the representations of entities in order. An
// entity already cached yields its existing records, so observers holding
// references keep seeing the same objects. Otherwise the factory builds one
// and the link maps are indexed in the directions requested. Entities the
// factory rejects are skipped with a warning.
func (c *Cache) RepresentationsFor(entities []*domain.Entity, linkEntityToRep, linkRepToEntity bool) []*represent.Representation {
	out := make([]*represent.Representation, 0, len(entities))
	for _, e := range entities {
		if h, ok := c.primary[e.GID]; ok {
			c.metrics.EntityHit()
			out = append(out, c.entityRepresentations(e.GID, h)...)
			continue
		}

		r, err := c.factory.Create(e)
		if err != nil {
			logger.Warn("skipping entity", "entity", e.GID, "error", err)
			continue
		}
		c.metrics.EntityMiss()
		c.store(r)
		c.primary[e.GID] = r.Handle
		if linkEntityToRep {
			c.entityReps[e.GID] = append(c.entityReps[e.GID], r.Handle)
		}
		if linkRepToEntity {
			c.repEntities[r.Handle] = append(c.repEntities[r.Handle], e.GID)
		}
		out = append(out, r)
	}
	return out
}

// entityRepresentations returns the primary record of gid followed by any
// other record linked to it
func (c *Cache) entityRepresentations(gid domain.GID, primary represent.Handle) []*represent.Representation {
	out := []*represent.Representation{c.arena[primary]}
	for _, h := range c.entityReps[gid] {
		if r, ok := c.arena[h]; ok && h != primary {
			out = append(out, r)
		}
	}
	return out
}

// Link attaches an existing representation to gid in both directions
func (c *Cache) Link(gid domain.GID, h represent.Handle) bool {
	if _, ok := c.arena[h]; !ok {
		return false
	}
	if !slices.Contains(c.entityReps[gid], h) {
		c.entityReps[gid] = append(c.entityReps[gid], h)
	}
	if !slices.Contains(c.repEntities[h], gid) {
		c.repEntities[h] = append(c.repEntities[h], gid)
	}
	return true
}

// ConnectionRepresentationsFor returns one representation per ordered pair
// of gids connected in table. A pair is skipped when either endpoint has no
// cached representation or the table holds no edge for it. The first query
// of a pair builds the record from the first edge of a raw table, or from
// the aggregated bag of an aggregated table; later queries return the same
// record whatever table they go through.
func (c *Cache) ConnectionRepresentationsFor(gids []domain.GID, table *store.Table) []*represent.Representation {
	var out []*represent.Representation
	for _, src := range gids {
		srcHandle, ok := c.primary[src]
		if !ok || !table.HasSource(src) {
			continue
		}
		for _, dst := range gids {
			dstHandle, ok := c.primary[dst]
			if !ok || table.Count(src, dst) == 0 {
				continue
			}
			pair := domain.Pair{Src: src, Dst: dst}
			if entry, ok := c.connections[pair]; ok {
				c.metrics.ConnectionHit()
				out = append(out, entry.Rep)
				continue
			}

			props, aggregated := edgeProperties(table, src, dst)
			r := c.factory.CreateConnection(src, dst, srcHandle, dstHandle, props, aggregated)
			c.metrics.ConnectionMiss()
			c.store(r)
			c.connections[pair] = &ConnectionEntry{
				Rep:       r,
				Source:    src,
				Dest:      dst,
				SourceRep: c.arena[srcHandle],
				DestRep:   c.arena[dstHandle],
				Table:     table.Name(),
			}
			out = append(out, r)
		}
	}
	return out
}

// edgeProperties returns the bag a connection representation is built from.
// Raw tables contribute only their first edge for the pair.
func edgeProperties(table *store.Table, src, dst domain.GID) (domain.Properties, bool) {
	switch table.Kind() {
	case store.KindOneToN:
		rel, _ := table.OneToN()
		if edge, ok := rel.First(src, dst); ok {
			return edge.Properties, false
		}
	case store.KindAggregatedOneToN:
		rel, _ := table.Aggregated()
		if bag, ok := rel.Get(src, dst); ok {
			return bag, true
		}
	}
	return nil, false
}

// Clear drops every representation, both link maps and the connection cache
func (c *Cache) Clear() {
	c.metrics.Clear()
	c.reset()
}

// Invalidate drops the primary representation of gid, unlinks gid from any
// other representation and drops every connection touching it.
func (c *Cache) Invalidate(gid domain.GID) {
	for _, h := range c.entityReps[gid] {
		c.repEntities[h] = without(c.repEntities[h], gid)
		if len(c.repEntities[h]) == 0 {
			delete(c.repEntities, h)
		}
	}
	delete(c.entityReps, gid)

	if h, ok := c.primary[gid]; ok {
		for _, other := range c.repEntities[h] {
			c.entityReps[other] = without(c.entityReps[other], h)
		}
		delete(c.repEntities, h)
		delete(c.arena, h)
		delete(c.primary, gid)
	}

	for pair := range c.connections {
		if pair.Src == gid || pair.Dst == gid {
			c.DropConnection(pair)
		}
	}
}

func without[T comparable](xs []T, x T) []T {
	return slices.DeleteFunc(xs, func(v T) bool { return v == x })
}

// DropConnection removes the cached representation of pair
func (c *Cache) DropConnection(pair domain.Pair) bool {
	entry, ok := c.connections[pair]
	if !ok {
		return false
	}
	delete(c.arena, entry.Rep.Handle)
	delete(c.connections, pair)
	return true
}

// Get returns the representation stored under h
func (c *Cache) Get(h represent.Handle) (*represent.Representation, bool) {
	r, ok := c.arena[h]
	return r, ok
}

// Primary returns the factory-built representation of gid
func (c *Cache) Primary(gid domain.GID) (*represent.Representation, bool) {
	h, ok := c.primary[gid]
	if !ok {
		return nil, false
	}
	return c.arena[h], true
}

// RepresentationsOf returns the representations linked to gid
func (c *Cache) RepresentationsOf(gid domain.GID) []*represent.Representation {
	var out []*represent.Representation
	for _, h := range c.entityReps[gid] {
		if r, ok := c.arena[h]; ok {
			out = append(out, r)
		}
	}
	return out
}

// EntitiesOf returns the gids linked to the representation h
func (c *Cache) EntitiesOf(h represent.Handle) []domain.GID {
	return slices.Clone(c.repEntities[h])
}

// Connection returns the cached entry of pair
func (c *Cache) Connection(pair domain.Pair) (*ConnectionEntry, bool) {
	e, ok := c.connections[pair]
	return e, ok
}

// Entities returns the primary entity representations ordered by gid
func (c *Cache) Entities() []*represent.Representation {
	out := make([]*represent.Representation, 0, len(c.primary))
	for _, h := range c.primary {
		out = append(out, c.arena[h])
	}
	slices.SortFunc(out, func(a, b *represent.Representation) int {
		return cmp.Compare(a.Entity, b.Entity)
	})
	return out
}

// Connections returns every connection entry ordered by pair
func (c *Cache) Connections() []*ConnectionEntry {
	out := make([]*ConnectionEntry, 0, len(c.connections))
	for _, e := range c.connections {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *ConnectionEntry) int {
		if n := cmp.Compare(a.Source, b.Source); n != 0 {
			return n
		}
		return cmp.Compare(a.Dest, b.Dest)
	})
	return out
}

// Len returns the number of stored representations
func (c *Cache) Len() int {
	return len(c.arena)
}

// ConnectionLen returns the number of cached pairs
func (c *Cache) ConnectionLen() int {
	return len(c.connections)
}
