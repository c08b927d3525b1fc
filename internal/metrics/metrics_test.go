package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCache(reg)

	m.EntityHit()
	m.EntityHit()
	m.EntityMiss()
	m.ConnectionMiss()
	m.Clear()
	m.Rescale("weight")
	m.Defaulted("Weight")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EntityHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EntityMisses))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ConnectionHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConnectionMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Clears))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rescales.WithLabelValues("weight")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Warnings.WithLabelValues("Weight")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilCacheIsSafe(t *testing.T) {
	var m *Cache
	assert.NotPanics(t, func() {
		m.EntityHit()
		m.EntityMiss()
		m.ConnectionHit()
		m.ConnectionMiss()
		m.Clear()
		m.Rescale("depth")
		m.Defaulted("x")
	})
}

func TestSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCache(prometheus.NewRegistry())
		NewCache(prometheus.NewRegistry())
	})
}
