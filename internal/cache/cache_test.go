package cache

import (
	"testing"

	"netscheme/internal/aggregate"
	"netscheme/internal/domain"
	"netscheme/internal/metrics"
	"netscheme/internal/represent"
	"netscheme/internal/scale"
	"netscheme/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *store.Store
	cache   *Cache
	metrics *metrics.Cache
	gids    []domain.GID
}

func newFixture(t *testing.T, n int) *fixture {
	t.Helper()
	s := store.New(store.WithAggregator(aggregate.New()))
	m := metrics.NewCache(prometheus.NewRegistry())
	f := represent.NewFactory(scale.NewTracker(scale.DefaultOptions()))
	fx := &fixture{store: s, cache: New(f, WithMetrics(m)), metrics: m}
	for i := 0; i < n; i++ {
		e := domain.NewEntity(domain.KindPopulation, "p")
		e.SetProperty(domain.PropNbNeurons, domain.Number(1))
		gid, err := s.Add(e)
		require.NoError(t, err)
		fx.gids = append(fx.gids, gid)
	}
	return fx
}

func (fx *fixture) entities(t *testing.T) []*domain.Entity {
	t.Helper()
	out := make([]*domain.Entity, 0, len(fx.gids))
	for _, gid := range fx.gids {
		e, err := fx.store.Get(gid)
		require.NoError(t, err)
		out = append(out, e)
	}
	return out
}

func (fx *fixture) raw(t *testing.T, name string) (*store.Table, *store.OneToN) {
	t.Helper()
	tbl, err := fx.store.Table(name, store.KindOneToN)
	require.NoError(t, err)
	rel, err := tbl.OneToN()
	require.NoError(t, err)
	return tbl, rel
}

func weight(w float64) domain.Properties {
	c := domain.DefaultConnection()
	c.Weight = domain.FixedQuantity(w)
	return c.Properties()
}

func TestRepresentationsForPreservesIdentity(t *testing.T) {
	fx := newFixture(t, 2)
	entities := fx.entities(t)

	first := fx.cache.RepresentationsFor(entities, true, true)
	second := fx.cache.RepresentationsFor(entities, true, true)

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	for i := range first {
		assert.Same(t, first[i], second[i])
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(fx.metrics.EntityMisses))
	assert.Equal(t, 2.0, testutil.ToFloat64(fx.metrics.EntityHits))
}

func TestRepresentationsForLinkFlags(t *testing.T) {
	t.Run("both directions", func(t *testing.T) {
		fx := newFixture(t, 1)
		reps := fx.cache.RepresentationsFor(fx.entities(t), true, true)
		require.Len(t, reps, 1)

		assert.Equal(t, reps, fx.cache.RepresentationsOf(fx.gids[0]))
		assert.Equal(t, []domain.GID{fx.gids[0]}, fx.cache.EntitiesOf(reps[0].Handle))
	})

	t.Run("no links still deduplicates", func(t *testing.T) {
		fx := newFixture(t, 1)
		a := fx.cache.RepresentationsFor(fx.entities(t), false, false)
		b := fx.cache.RepresentationsFor(fx.entities(t), false, false)

		assert.Same(t, a[0], b[0])
		assert.Empty(t, fx.cache.RepresentationsOf(fx.gids[0]))
		assert.Empty(t, fx.cache.EntitiesOf(a[0].Handle))
	})
}

func TestRepresentationsForSkipsUnknownKind(t *testing.T) {
	fx := newFixture(t, 1)
	odd := &domain.Entity{GID: 99, Kind: domain.EntityKind("synapse")}

	reps := fx.cache.RepresentationsFor(append(fx.entities(t), odd), true, true)
	assert.Len(t, reps, 1)
}

func TestLink(t *testing.T) {
	fx := newFixture(t, 2)
	reps := fx.cache.RepresentationsFor(fx.entities(t), true, true)

	require.True(t, fx.cache.Link(fx.gids[0], reps[1].Handle))
	assert.Len(t, fx.cache.RepresentationsOf(fx.gids[0]), 2)
	assert.ElementsMatch(t, fx.gids, fx.cache.EntitiesOf(reps[1].Handle))

	again := fx.cache.RepresentationsFor(fx.entities(t)[:1], true, true)
	require.Len(t, again, 2)
	assert.Same(t, reps[0], again[0])

	assert.False(t, fx.cache.Link(fx.gids[0], 999))
}

func TestConnectionDeduplication(t *testing.T) {
	fx := newFixture(t, 2)
	a, b := fx.gids[0], fx.gids[1]
	fx.cache.RepresentationsFor(fx.entities(t), true, true)

	tbl, rel := fx.raw(t, "connectsTo")
	rel.Add(a, b, weight(2))
	rel.Add(a, b, weight(-7))

	reps := fx.cache.ConnectionRepresentationsFor(fx.gids, tbl)
	require.Len(t, reps, 1, "two edges on one pair yield one representation")
	assert.Equal(t, represent.ShapeTriangle, reps[0].Head, "first edge wins")
	assert.Equal(t, 1, fx.cache.ConnectionLen())

	other, otherRel := fx.raw(t, "projectsTo")
	otherRel.Add(a, b, weight(-1))
	again := fx.cache.ConnectionRepresentationsFor(fx.gids, other)
	require.Len(t, again, 1)
	assert.Same(t, reps[0], again[0], "pair is shared across tables")

	entry, ok := fx.cache.Connection(domain.Pair{Src: a, Dst: b})
	require.True(t, ok)
	assert.Equal(t, "connectsTo", entry.Table)
	assert.Equal(t, a, entry.SourceRep.Entity)
	assert.Equal(t, b, entry.DestRep.Entity)
}

func TestConnectionSkips(t *testing.T) {
	t.Run("endpoint without a representation", func(t *testing.T) {
		fx := newFixture(t, 2)
		fx.cache.RepresentationsFor(fx.entities(t)[:1], true, true)
		tbl, rel := fx.raw(t, "connectsTo")
		rel.Add(fx.gids[0], fx.gids[1], weight(1))

		assert.Empty(t, fx.cache.ConnectionRepresentationsFor(fx.gids, tbl))
	})

	t.Run("unconnected pair", func(t *testing.T) {
		fx := newFixture(t, 3)
		fx.cache.RepresentationsFor(fx.entities(t), true, true)
		tbl, rel := fx.raw(t, "connectsTo")
		rel.Add(fx.gids[0], fx.gids[1], weight(1))

		reps := fx.cache.ConnectionRepresentationsFor(fx.gids, tbl)
		require.Len(t, reps, 1)
		assert.Equal(t, domain.Pair{Src: fx.gids[0], Dst: fx.gids[1]}, reps[0].Pair())
	})
}

func TestSelfLoop(t *testing.T) {
	fx := newFixture(t, 2)
	a, b := fx.gids[0], fx.gids[1]
	fx.cache.RepresentationsFor(fx.entities(t), true, true)
	tbl, rel := fx.raw(t, "connectsTo")
	rel.Add(a, a, weight(3))
	rel.Add(a, b, weight(3))

	reps := fx.cache.ConnectionRepresentationsFor(fx.gids, tbl)
	require.Len(t, reps, 2)
	assert.Equal(t, represent.VariantSelfLoop, reps[0].Variant)
	assert.Equal(t, represent.VariantConnection, reps[1].Variant)
	assert.Equal(t, reps[0].Width, reps[1].Width)
	assert.NotSame(t, reps[0], reps[1])
}

func TestAggregatedAndOneToOneTables(t *testing.T) {
	fx := newFixture(t, 2)
	a, b := fx.gids[0], fx.gids[1]
	fx.cache.RepresentationsFor(fx.entities(t), true, true)

	_, rel := fx.raw(t, "connectsTo")
	rel.Add(a, b, weight(-2))
	rel.Add(a, b, weight(-4))
	agg, err := fx.store.AggregateOver("aggregatedConnectsTo", "connectsTo")
	require.NoError(t, err)

	reps := fx.cache.ConnectionRepresentationsFor(fx.gids, agg)
	require.Len(t, reps, 1)
	assert.True(t, reps[0].Aggregated)
	assert.Equal(t, 2, reps[0].EdgeCount)
	assert.Equal(t, represent.ShapeCircle, reps[0].Head)
	assert.Equal(t, -3.0, reps[0].Weight)

	fx.cache.Clear()
	fx.cache.RepresentationsFor(fx.entities(t), true, true)
	parent, err := fx.store.Table("isChildOf", store.KindOneToOne)
	require.NoError(t, err)
	one, _ := parent.OneToOne()
	one.Set(b, a)
	reps = fx.cache.ConnectionRepresentationsFor(fx.gids, parent)
	require.Len(t, reps, 1)
	assert.Equal(t, domain.Pair{Src: b, Dst: a}, reps[0].Pair())
}

func TestClear(t *testing.T) {
	fx := newFixture(t, 2)
	before := fx.cache.RepresentationsFor(fx.entities(t), true, true)
	tbl, rel := fx.raw(t, "connectsTo")
	rel.Add(fx.gids[0], fx.gids[1], weight(1))
	fx.cache.ConnectionRepresentationsFor(fx.gids, tbl)

	fx.cache.Clear()

	assert.Equal(t, 0, fx.cache.Len())
	assert.Equal(t, 0, fx.cache.ConnectionLen())
	assert.Empty(t, fx.cache.RepresentationsOf(fx.gids[0]))
	_, ok := fx.cache.Get(before[0].Handle)
	assert.False(t, ok)

	after := fx.cache.RepresentationsFor(fx.entities(t), true, true)
	assert.NotSame(t, before[0], after[0])
	assert.NotEqual(t, before[0].Handle, after[0].Handle, "handles are not reused")
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.Clears))
}

func TestInvalidate(t *testing.T) {
	fx := newFixture(t, 2)
	a, b := fx.gids[0], fx.gids[1]
	reps := fx.cache.RepresentationsFor(fx.entities(t), true, true)
	tbl, rel := fx.raw(t, "connectsTo")
	rel.Add(a, b, weight(1))
	fx.cache.ConnectionRepresentationsFor(fx.gids, tbl)
	require.True(t, fx.cache.Link(b, reps[0].Handle))

	fx.cache.Invalidate(a)

	_, ok := fx.cache.Primary(a)
	assert.False(t, ok)
	_, ok = fx.cache.Connection(domain.Pair{Src: a, Dst: b})
	assert.False(t, ok)
	assert.Equal(t, []*represent.Representation{reps[1]}, fx.cache.RepresentationsOf(b))

	kept, ok := fx.cache.Primary(b)
	require.True(t, ok)
	assert.Same(t, reps[1], kept)

	assert.False(t, fx.cache.DropConnection(domain.Pair{Src: b, Dst: b}))
}

func TestOrderedSnapshots(t *testing.T) {
	fx := newFixture(t, 3)
	fx.cache.RepresentationsFor(fx.entities(t), false, false)
	tbl, rel := fx.raw(t, "connectsTo")
	rel.Add(fx.gids[2], fx.gids[0], weight(1))
	rel.Add(fx.gids[0], fx.gids[1], weight(1))
	fx.cache.ConnectionRepresentationsFor(fx.gids, tbl)

	ents := fx.cache.Entities()
	require.Len(t, ents, 3)
	for i, r := range ents {
		assert.Equal(t, fx.gids[i], r.Entity)
	}

	conns := fx.cache.Connections()
	require.Len(t, conns, 2)
	assert.Equal(t, fx.gids[0], conns[0].Source)
	assert.Equal(t, fx.gids[2], conns[1].Source)
}
