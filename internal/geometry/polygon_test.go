package geometry

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarch/roofscout/internal/model"
)

func TestBuild_TooFewVertices(t *testing.T) {
	t.Parallel()

	b := NewBuilder()

	tests := []struct {
		name     string
		vertices []model.GeoPoint
	}{
		{"empty", nil},
		{"one", []model.GeoPoint{{Lon: 9.64, Lat: 47.43}}},
		{"two", []model.GeoPoint{{Lon: 9.64, Lat: 47.43}, {Lon: 9.65, Lat: 47.44}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			poly, ok := b.Build(tt.vertices)
			assert.False(t, ok)
			assert.Nil(t, poly)
		})
	}
}

func TestBuild_ClosesOpenRing(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	poly, ok := b.Build([]model.GeoPoint{
		{Lon: 0, Lat: 0},
		{Lon: 1, Lat: 0},
		{Lon: 1, Lat: 1},
		{Lon: 0, Lat: 1},
	})
	require.True(t, ok)

	ring := poly.Ring()
	assert.True(t, ring.Closed())
	assert.Len(t, ring, 5)
}

func TestBuild_AlreadyClosedRing(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	poly, ok := b.Build([]model.GeoPoint{
		{Lon: 0, Lat: 0},
		{Lon: 1, Lat: 0},
		{Lon: 1, Lat: 1},
		{Lon: 0, Lat: 0},
	})
	require.True(t, ok)
	assert.Len(t, poly.Ring(), 4)
}

func TestBuild_DegenerateLine(t *testing.T) {
	t.Parallel()

	// Line-like "building" ways have no enclosed area and must be dropped,
	// not crash the pipeline.
	b := NewBuilder()
	poly, ok := b.Build([]model.GeoPoint{
		{Lon: 0, Lat: 0},
		{Lon: 1, Lat: 1},
		{Lon: 2, Lat: 2},
	})
	assert.False(t, ok)
	assert.Nil(t, poly)
}

func TestBuild_BowtieRepaired(t *testing.T) {
	t.Parallel()

	// Self-intersecting bowtie: the repairer keeps the larger lobe.
	b := NewBuilder()
	poly, ok := b.Build([]model.GeoPoint{
		{Lon: 0, Lat: 0},
		{Lon: 3, Lat: 3},
		{Lon: 3, Lat: 0},
		{Lon: 0, Lat: 2},
	})
	require.True(t, ok)

	ring := poly.Ring()
	assert.True(t, isSimple(ring))
	assert.InDelta(t, 2.7, math.Abs(planar.Area(ring)), 1e-9)
}

func TestIsSimple(t *testing.T) {
	t.Parallel()

	square := orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	assert.True(t, isSimple(square))

	bowtie := orb.Ring{{0, 0}, {2, 2}, {2, 0}, {0, 2}, {0, 0}}
	assert.False(t, isSimple(bowtie))
}

func TestUntwistRepairer_SymmetricBowtie(t *testing.T) {
	t.Parallel()

	// Equal lobes: the outer split wins the tie, deterministically.
	bowtie := orb.Ring{{0, 0}, {2, 2}, {2, 0}, {0, 2}, {0, 0}}
	repaired, ok := UntwistRepairer{}.Repair(bowtie)
	require.True(t, ok)
	assert.True(t, isSimple(repaired))
	assert.InDelta(t, 1.0, math.Abs(planar.Area(repaired)), 1e-9)
}

func TestUntwistRepairer_AlreadySimple(t *testing.T) {
	t.Parallel()

	square := orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	repaired, ok := UntwistRepairer{}.Repair(square)
	require.True(t, ok)
	assert.Equal(t, square, repaired)
}
