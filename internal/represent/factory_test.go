package represent

import (
	"errors"
	"testing"

	"netscheme/internal/aggregate"
	"netscheme/internal/domain"
	"netscheme/internal/metrics"
	"netscheme/internal/scale"
	"netscheme/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFactory(t *testing.T) (*Factory, *scale.Tracker, *metrics.Cache) {
	t.Helper()
	tr := scale.NewTracker(scale.DefaultOptions())
	m := metrics.NewCache(prometheus.NewRegistry())
	return NewFactory(tr, WithMetrics(m)), tr, m
}

func entity(gid domain.GID, kind domain.EntityKind, props domain.Properties) *domain.Entity {
	e := domain.NewEntity(kind, "")
	e.GID = gid
	for k, v := range props {
		e.SetProperty(k, v)
	}
	return e
}

func TestEveryKindHasABuilder(t *testing.T) {
	for _, k := range domain.Kinds() {
		_, ok := builders[k]
		assert.True(t, ok, "no builder for %s", k)
	}
	assert.Len(t, builders, len(domain.Kinds()))
}

func TestCreatePopulation(t *testing.T) {
	f, tr, m := newFactory(t)
	tr.Observe(scale.KindMagnitude, 100)

	r, err := f.Create(entity(7, domain.KindPopulation, domain.Properties{
		domain.PropEntityName:  domain.String("cortex"),
		domain.PropNeuronModel: domain.Enum(domain.NeuronModelIAFPscAlpha),
		domain.PropNbNeurons:   domain.Number(50),
	}))
	require.NoError(t, err)

	assert.Equal(t, VariantEntity, r.Variant)
	assert.Equal(t, domain.GID(7), r.Entity)
	assert.Equal(t, "cortex", r.Name)
	assert.Equal(t, "#9fc5e8", r.Color.Hex())
	assert.Equal(t, domain.NeuronModelIAFPscAlpha, r.Category)
	assert.InDelta(t, 0.5, r.Magnitude, 1e-9)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Warnings.WithLabelValues(domain.PropNbNeurons)))
}

func TestCreateDefaultsMissingProperties(t *testing.T) {
	tests := []struct {
		name     string
		kind     domain.EntityKind
		color    string
		category string
	}{
		{"population", domain.KindPopulation, "#ea9999", domain.NeuronModelUndefined},
		{"input", domain.KindInput, "#f9f190", domain.InputTypeRandom},
		{"output", domain.KindOutput, "#d7b5fc", domain.OutputModelMultimeter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _, m := newFactory(t)
			r, err := f.Create(entity(1, tt.kind, nil))
			require.NoError(t, err)

			assert.Equal(t, DefaultName, r.Name)
			assert.Equal(t, tt.color, r.Color.Hex())
			assert.Equal(t, tt.category, r.Category)
			assert.Equal(t, 0.0, r.Magnitude)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.Warnings.WithLabelValues(domain.PropEntityName)))
		})
	}

	t.Run("label stands in for a missing name", func(t *testing.T) {
		f, _, _ := newFactory(t)
		e := entity(1, domain.KindPopulation, nil)
		e.Label = "thalamus"
		r, err := f.Create(e)
		require.NoError(t, err)
		assert.Equal(t, "thalamus", r.Name)
	})

	t.Run("unknown category uses the fallback color", func(t *testing.T) {
		f, _, _ := newFactory(t)
		r, err := f.Create(entity(1, domain.KindPopulation, domain.Properties{
			domain.PropNeuronModel: domain.Enum("hodgkin_huxley"),
		}))
		require.NoError(t, err)
		assert.Equal(t, "#ea9999", r.Color.Hex())
		assert.Equal(t, domain.NeuronModelUndefined, r.Category)
	})
}

func TestCreateSuperPopulation(t *testing.T) {
	f, tr, _ := newFactory(t)
	tr.Observe(scale.KindDepth, 3)

	r, err := f.Create(entity(2, domain.KindSuperPopulation, domain.Properties{
		domain.PropEntityName:    domain.String("column"),
		domain.PropNbNeuronsMean: domain.Number(1),
		domain.PropChildDepth:    domain.Number(2),
	}))
	require.NoError(t, err)

	assert.Equal(t, "#b6d7a8", r.Color.Hex())
	assert.Equal(t, 2, r.Rings)
	assert.InDelta(t, 0.25, r.RingSeparation, 1e-9)
	assert.InDelta(t, 0.25, r.ColorSeparation, 1e-9)
	require.Len(t, r.RingColors, 3)
	assert.Equal(t, "#b6d7a8", r.RingColors[0].Hex())
}

func TestCreateUnknownKind(t *testing.T) {
	f, _, _ := newFactory(t)
	_, err := f.Create(entity(1, domain.EntityKind("synapse"), nil))
	assert.True(t, errors.Is(err, domain.ErrUnknownKind))
}

func TestArrowhead(t *testing.T) {
	fixed := func(w float64) domain.Properties {
		c := domain.DefaultConnection()
		c.Weight = domain.FixedQuantity(w)
		return c.Properties()
	}
	gaussian := func(mean float64) domain.Properties {
		c := domain.DefaultConnection()
		c.Weight = domain.GaussianQuantity(mean, 1)
		return c.Properties()
	}

	tests := []struct {
		name  string
		props domain.Properties
		want  Shape
	}{
		{"negative fixed weight", fixed(-3), ShapeCircle},
		{"positive fixed weight", fixed(3), ShapeTriangle},
		{"zero weight", fixed(0), ShapeTriangle},
		{"negative gaussian mean", gaussian(-1), ShapeCircle},
		{"positive gaussian mean", gaussian(2), ShapeTriangle},
		{"absent weight", domain.Properties{}, ShapeTriangle},
		{"no bag", nil, ShapeTriangle},
		{"weight without a type", domain.Properties{domain.PropWeight: domain.Number(-3)}, ShapeTriangle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _, _ := newFactory(t)
			r := f.CreateConnection(1, 2, 1, 2, tt.props, false)
			assert.Equal(t, tt.want, r.Head)
		})
	}
}

func TestCreateConnection(t *testing.T) {
	t.Run("self loop", func(t *testing.T) {
		f, _, _ := newFactory(t)
		loop := f.CreateConnection(4, 4, 9, 9, nil, false)
		cross := f.CreateConnection(4, 5, 9, 10, nil, false)

		assert.Equal(t, VariantSelfLoop, loop.Variant)
		assert.Equal(t, VariantConnection, cross.Variant)
		assert.Equal(t, loop.Width, cross.Width)
		assert.True(t, loop.IsConnection())
		assert.Equal(t, domain.Pair{Src: 4, Dst: 4}, loop.Pair())
	})

	t.Run("width is relative to the largest weight", func(t *testing.T) {
		f, tr, _ := newFactory(t)
		c := domain.DefaultConnection()
		c.Weight = domain.FixedQuantity(-5)
		props := c.Properties()

		tr.Observe(scale.KindWeight, 5)
		assert.Equal(t, uint(5), f.CreateConnection(1, 2, 0, 0, props, false).Width)

		tr.Observe(scale.KindWeight, 10)
		assert.Equal(t, uint(3), f.CreateConnection(1, 2, 0, 0, props, false).Width)
	})

	t.Run("aggregated bag", func(t *testing.T) {
		f, _, _ := newFactory(t)
		bag := domain.Properties{
			aggregate.PropWeightMean: domain.Number(-0.5),
			store.PropEdgeCount:      domain.Number(3),
		}
		r := f.CreateConnection(1, 2, 0, 0, bag, true)
		assert.True(t, r.Aggregated)
		assert.Equal(t, ShapeCircle, r.Head)
		assert.Equal(t, 3, r.EdgeCount)

		bag = domain.Properties{
			aggregate.PropWeightMean:             domain.Number(1),
			aggregate.PropWeightGaussianMeanMean: domain.Number(-2),
		}
		assert.Equal(t, ShapeCircle, f.CreateConnection(1, 2, 0, 0, bag, true).Head)
	})
}

func TestNewPaletteRejectsBadInput(t *testing.T) {
	cfg := DefaultPaletteConfig()
	cfg.SuperPopulation = "green"
	_, err := NewPalette(cfg)
	assert.Error(t, err)

	_, err = NewColorMap(map[string]string{"a": "#000000"}, "b")
	assert.Error(t, err)
}
