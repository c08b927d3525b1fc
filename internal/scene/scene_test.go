package scene

import (
	"errors"
	"math"
	"testing"

	"netscheme/internal/config"
	"netscheme/internal/domain"
	"netscheme/internal/represent"
	"netscheme/internal/scale"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func population(neurons float64) domain.Properties {
	return domain.Properties{
		domain.PropEntityName:  domain.String("p"),
		domain.PropNeuronModel: domain.Enum(domain.NeuronModelIAFPscAlpha),
		domain.PropNbNeurons:   domain.Number(neurons),
	}
}

func weight(w float64) domain.Properties {
	c := domain.DefaultConnection()
	c.Weight = domain.FixedQuantity(w)
	return c.Properties()
}

func define(t *testing.T, s *Scene, n int) []domain.GID {
	t.Helper()
	gids := make([]domain.GID, n)
	for i := range gids {
		gid, err := s.DefineEntity(domain.KindPopulation, "", population(10))
		require.NoError(t, err)
		gids[i] = gid
	}
	return gids
}

func TestDefineEntity(t *testing.T) {
	s := New(DefaultOptions())
	a, err := s.DefineEntity(domain.KindPopulation, "a", population(10))
	require.NoError(t, err)
	b, err := s.DefineEntity(domain.KindInput, "b", nil)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, 10.0, s.MaxMagnitude())

	_, err = s.AddEntity(&domain.Entity{GID: a, Kind: domain.KindGeneric})
	assert.True(t, errors.Is(err, domain.ErrDuplicateIdentifier))
	assert.Equal(t, 2, s.Store().Len(), "store unchanged after a duplicate")

	_, err = s.DefineEntity(domain.EntityKind("synapse"), "x", nil)
	assert.True(t, errors.Is(err, domain.ErrUnknownKind))
	assert.True(t, IsSkippable(err))
}

func TestRepresentationIdentity(t *testing.T) {
	s := New(DefaultOptions())
	gids := define(t, s, 1)

	first := s.Representations(gids)
	second := s.Representations(gids)
	require.Len(t, first, 1)
	assert.Same(t, first[0], second[0])

	assert.Empty(t, s.Representations([]domain.GID{999}), "unknown gids are skipped")
}

func TestConnectionDeduplicatedAcrossEdges(t *testing.T) {
	s := New(DefaultOptions())
	gids := define(t, s, 2)
	require.NoError(t, s.DefineEdge(TableConnectsTo, gids[0], gids[1], weight(1)))
	require.NoError(t, s.DefineEdge(TableConnectsTo, gids[0], gids[1], weight(1)))
	s.Representations(gids)

	reps, err := s.ConnectionRepresentations(gids, TableConnectsTo)
	require.NoError(t, err)
	require.Len(t, reps, 1)

	agg, err := s.ConnectionRepresentations(gids, TableAggregatedConnectsTo)
	require.NoError(t, err)
	require.Len(t, agg, 1)
	assert.Same(t, reps[0], agg[0])

	inverse, err := s.ConnectionRepresentations(gids, TableConnectedBy)
	require.NoError(t, err)
	require.Len(t, inverse, 1)
	assert.Equal(t, domain.Pair{Src: gids[1], Dst: gids[0]}, inverse[0].Pair())

	_, err = s.ConnectionRepresentations(gids, "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSelfLoopConnection(t *testing.T) {
	s := New(DefaultOptions())
	gids := define(t, s, 2)
	require.NoError(t, s.DefineEdge(TableConnectsTo, gids[0], gids[0], weight(1)))
	require.NoError(t, s.DefineEdge(TableConnectsTo, gids[0], gids[1], weight(1)))
	s.Representations(gids)

	reps, err := s.ConnectionRepresentations(gids, TableConnectsTo)
	require.NoError(t, err)
	require.Len(t, reps, 2)
	assert.Equal(t, represent.VariantSelfLoop, reps[0].Variant)
	assert.Equal(t, represent.VariantConnection, reps[1].Variant)
	assert.Equal(t, reps[0].Width, reps[1].Width)
}

func TestAggregationThroughScene(t *testing.T) {
	s := New(DefaultOptions())
	gids := define(t, s, 2)
	for _, w := range []float64{2, 4, 6} {
		require.NoError(t, s.DefineEdge(TableConnectsTo, gids[0], gids[1], weight(w)))
	}

	tbl, ok := s.Store().Lookup(TableAggregatedConnectsTo)
	require.True(t, ok)
	rel, err := tbl.Aggregated()
	require.NoError(t, err)
	bag, ok := rel.Get(gids[0], gids[1])
	require.True(t, ok)

	count, _ := bag.Number(domain.PropWeight + " count")
	mean, _ := bag.Number(domain.PropWeight + " mean")
	assert.Equal(t, 3.0, count)
	assert.Equal(t, 4.0, mean)
}

func TestRangeGrowthRecomputesWidth(t *testing.T) {
	reg := prometheus.NewRegistry()
	opts := DefaultOptions()
	opts.Registerer = reg
	s := New(opts)
	gids := define(t, s, 3)

	require.NoError(t, s.DefineEdge(TableConnectsTo, gids[0], gids[1], weight(5)))
	s.Representations(gids)
	before, err := s.ConnectionRepresentations(gids, TableConnectsTo)
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.Equal(t, uint(5), before[0].Width)

	events := make(chan Event, 8)
	s.Events().Subscribe(events)

	require.NoError(t, s.DefineEdge(TableConnectsTo, gids[1], gids[2], weight(-10)))
	assert.Equal(t, 10.0, s.MaxAbsoluteWeight())
	assert.Equal(t, 0, s.Cache().Len(), "growth clears the cache")
	assert.Equal(t, 5.0, s.Tracker().Mapper(scale.KindWeight).Map(10))

	s.Representations(gids)
	after, err := s.ConnectionRepresentations(gids, TableConnectsTo)
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, uint(3), after[0].Width)
	assert.NotSame(t, before[0], after[0])
	assert.Equal(t, represent.ShapeCircle, after[1].Head)

	assert.Equal(t, 2.0, testutil.ToFloat64(s.Metrics().Rescales.WithLabelValues("weight")), "grew to 5 then to 10")
	require.NotEmpty(t, events)
	assert.Equal(t, EventRescaled, (<-events).Type)
}

func TestObserveWithoutGrowthKeepsCache(t *testing.T) {
	s := New(DefaultOptions())
	gids := define(t, s, 1)
	reps := s.Representations(gids)

	assert.False(t, s.Observe(scale.KindMagnitude, 3))
	assert.Same(t, reps[0], s.Representations(gids)[0])
}

func TestDefineEdgeErrors(t *testing.T) {
	s := New(DefaultOptions())
	gids := define(t, s, 1)

	err := s.DefineEdge(TableConnectsTo, gids[0], 42, nil)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	err = s.DefineEdge(TableAggregatedConnectsTo, gids[0], gids[0], nil)
	assert.True(t, errors.Is(err, domain.ErrWrongRelationshipKind))
}

func TestNonFiniteWeightLeavesMaximum(t *testing.T) {
	s := New(DefaultOptions())
	gids := define(t, s, 2)
	require.NoError(t, s.DefineEdge(TableConnectsTo, gids[0], gids[1], weight(5)))

	require.NoError(t, s.DefineEdge(TableConnectsTo, gids[1], gids[0], weight(math.NaN())))
	assert.Equal(t, 5.0, s.MaxAbsoluteWeight())
	assert.False(t, s.Observe(scale.KindWeight, math.Inf(1)))
	assert.False(t, s.Observe(scale.KindWeight, 0.5))
	assert.Equal(t, 5.0, s.MaxAbsoluteWeight())

	s.Representations(gids)
	reps, err := s.ConnectionRepresentations(gids, TableConnectsTo)
	require.NoError(t, err)
	require.Len(t, reps, 2)
	assert.Equal(t, 1.0, reps[1].Weight, "NaN weight is replaced by the default")
	assert.Equal(t, uint(2), reps[1].Width)
}

func TestDefineEdgeSanitizes(t *testing.T) {
	s := New(DefaultOptions())
	gids := define(t, s, 2)
	props := weight(1)
	props[domain.PropConnectivity] = domain.Enum("butterfly")

	require.NoError(t, s.DefineEdge(TableConnectsTo, gids[0], gids[1], props))

	rel, err := s.oneToN(TableConnectsTo)
	require.NoError(t, err)
	edge, ok := rel.First(gids[0], gids[1])
	require.True(t, ok)
	p, _ := edge.Properties.Text(domain.PropConnectivity)
	assert.Equal(t, string(domain.PatternAllToAll), p)
}

func TestUpdateAndBreakEdge(t *testing.T) {
	s := New(DefaultOptions())
	gids := define(t, s, 2)
	a, b := gids[0], gids[1]
	require.NoError(t, s.DefineEdge(TableConnectsTo, a, b, weight(1)))
	s.Representations(gids)
	reps, _ := s.ConnectionRepresentations(gids, TableConnectsTo)
	require.Len(t, reps, 1)
	assert.Equal(t, represent.ShapeTriangle, reps[0].Head)

	require.NoError(t, s.UpdateEdge(TableConnectsTo, a, b, weight(-0.5)))
	_, cached := s.Cache().Connection(domain.Pair{Src: a, Dst: b})
	assert.False(t, cached)
	reps, _ = s.ConnectionRepresentations(gids, TableConnectsTo)
	require.Len(t, reps, 1)
	assert.Equal(t, represent.ShapeCircle, reps[0].Head)

	assert.True(t, errors.Is(s.UpdateEdge(TableConnectsTo, b, a, weight(1)), domain.ErrNotFound))

	inverse, _ := s.ConnectionRepresentations(gids, TableConnectedBy)
	require.Len(t, inverse, 1)
	_, cached = s.Cache().Connection(domain.Pair{Src: b, Dst: a})
	require.True(t, cached)

	removed, err := s.BreakEdge(TableConnectsTo, a, b)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	_, cached = s.Cache().Connection(domain.Pair{Src: b, Dst: a})
	assert.False(t, cached, "breaking connectsTo drops the cached inverse too")
	assert.Equal(t, 0, s.Cache().ConnectionLen())
	reps, _ = s.ConnectionRepresentations(gids, TableConnectsTo)
	assert.Empty(t, reps)
	inverse, _ = s.ConnectionRepresentations(gids, TableConnectedBy)
	assert.Empty(t, inverse)

	_, err = s.BreakEdge(TableConnectsTo, a, b)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSetEntityProperty(t *testing.T) {
	s := New(DefaultOptions())
	gids := define(t, s, 1)
	before := s.Representations(gids)[0]
	assert.Equal(t, "#9fc5e8", before.Color.Hex())

	require.NoError(t, s.SetEntityProperty(gids[0], domain.PropNeuronModel, domain.Enum(domain.NeuronModelProxy)))
	after := s.Representations(gids)[0]
	assert.NotSame(t, before, after)
	assert.Equal(t, "#0a5959", after.Color.Hex())

	err := s.SetEntityProperty(999, domain.PropNbNeurons, domain.Number(1))
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	require.NoError(t, s.SetEntityProperty(gids[0], domain.PropNbNeurons, domain.Number(500)))
	assert.Equal(t, 500.0, s.MaxMagnitude())
}

func TestSetParent(t *testing.T) {
	s := New(DefaultOptions())
	leaf := define(t, s, 1)[0]
	mid, err := s.DefineEntity(domain.KindSuperPopulation, "mid", nil)
	require.NoError(t, err)
	top, err := s.DefineEntity(domain.KindSuperPopulation, "top", nil)
	require.NoError(t, err)

	require.NoError(t, s.SetParent(leaf, mid))
	require.NoError(t, s.SetParent(mid, top))

	parent, ok := s.Parent(leaf)
	require.True(t, ok)
	assert.Equal(t, mid, parent)
	assert.Equal(t, []domain.GID{mid}, s.Children(top))

	topEntity, err := s.Entity(top)
	require.NoError(t, err)
	depth, _ := topEntity.Properties.Number(domain.PropChildDepth)
	assert.Equal(t, 2.0, depth)
	assert.Equal(t, 2.0, s.MaxHierarchyDepth())
	assert.InDelta(t, 1.0/3, s.Tracker().RingSeparation(), 1e-9)

	reps := s.Representations([]domain.GID{top})
	require.Len(t, reps, 1)
	assert.Equal(t, 2, reps[0].Rings)

	assert.Error(t, s.SetParent(top, leaf), "cycles are rejected")
	assert.Error(t, s.SetParent(top, top))
}

func TestClearReclaimsIDs(t *testing.T) {
	s := New(DefaultOptions())
	gids := define(t, s, 2)
	require.NoError(t, s.DefineEdge(TableConnectsTo, gids[0], gids[1], weight(7)))
	s.Representations(gids)

	s.Clear()

	assert.Equal(t, 0, s.Store().Len())
	assert.Equal(t, 0, s.Cache().Len())
	for _, k := range scale.Kinds() {
		assert.Equal(t, scale.StateAtFloor, s.Tracker().State(k))
	}

	gid, err := s.AddEntity(&domain.Entity{GID: gids[0], Kind: domain.KindGeneric, Label: "again"})
	require.NoError(t, err)
	assert.Equal(t, gids[0], gid)

	_, ok := s.Store().Lookup(TableAggregatedConnectsTo)
	assert.True(t, ok, "standard tables exist after clear")
}

func TestGIDsAndAllRepresentations(t *testing.T) {
	s := New(DefaultOptions())
	gids := define(t, s, 3)
	assert.Equal(t, gids, s.GIDs())
	assert.Len(t, s.AllRepresentations(), 3)
}

func TestFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scale.WidthRange = config.RangeConfig{Min: 2, Max: 10}
	cfg.Palette.Generic = "#123456"

	s, err := FromConfig(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 10.0, s.Tracker().Options().WidthRange.Max)

	gid, err := s.DefineEntity(domain.KindGeneric, "g", nil)
	require.NoError(t, err)
	reps := s.Representations([]domain.GID{gid})
	require.Len(t, reps, 1)
	assert.Equal(t, "#123456", reps[0].Color.Hex())

	cfg.Scale.DepthTo = "nope"
	_, err = FromConfig(cfg, nil)
	assert.Error(t, err)
}
