// Package candidate builds scored roof candidates from raw footprints and
// ranks them.
package candidate

import (
	"fmt"

	"github.com/paulmach/orb/planar"

	"github.com/solarch/roofscout/internal/geometry"
	"github.com/solarch/roofscout/internal/model"
	"github.com/solarch/roofscout/internal/projection"
)

// ScoreWeights parameterize the ranking heuristic. The defaults must be kept
// bit-compatible with existing exports; they are not physically derived.
type ScoreWeights struct {
	Area         float64
	Compactness  float64
	CompactScale float64
}

// DefaultScoreWeights is the documented 70/30 area-vs-compactness weighting,
// with compactness rescaled so its 0..1 range is not negligible next to
// areas in square meters.
var DefaultScoreWeights = ScoreWeights{
	Area:         0.7,
	Compactness:  0.3,
	CompactScale: 10000,
}

// Score computes the ranking heuristic for a measured footprint.
func (w ScoreWeights) Score(areaM2, compactness float64) float64 {
	return w.Area*areaM2 + w.Compactness*(compactness*w.CompactScale)
}

// Factory maps footprints to roof candidates. Each mapping is a pure,
// independent function: no I/O, no shared state.
type Factory struct {
	proj    projection.Projector
	builder geometry.Builder
	weights ScoreWeights
}

// NewFactory creates a Factory using the given projector and score weights.
func NewFactory(proj projection.Projector, weights ScoreWeights) *Factory {
	return &Factory{
		proj:    proj,
		builder: geometry.NewBuilder(),
		weights: weights,
	}
}

// FromFootprint builds a candidate from a raw footprint. Malformed or
// degenerate geometry yields ok=false; such records are expected in
// crowd-sourced data and are dropped without diagnostics.
func (f *Factory) FromFootprint(fp model.Footprint) (model.RoofCandidate, bool) {
	poly, ok := f.builder.Build(fp.Vertices)
	if !ok {
		return model.RoofCandidate{}, false
	}

	m := geometry.Measure(f.proj, poly)

	// Centroid of the raw geodetic ring; display-only, never used for
	// area math.
	centroidPt, _ := planar.CentroidArea(poly.Ring())
	centroid := model.GeoPoint{Lon: centroidPt[0], Lat: centroidPt[1]}

	name, _ := fp.Tags.Name()
	building, _ := fp.Tags.Building()

	return model.RoofCandidate{
		Kind:        fp.Kind,
		ID:          fp.ID,
		Name:        name,
		BuildingTag: building,
		ClassGuess:  GuessClass(fp.Tags),
		AreaM2:      m.AreaM2,
		Compactness: m.Compactness,
		Score:       f.weights.Score(m.AreaM2, m.Compactness),
		Centroid:    centroid,
		MapLink:     MapLink(centroid),
		SourceLink:  SourceLink(fp.Kind, fp.ID),
	}, true
}

// MapLink returns a Google Maps search URL for the centroid, latitude first,
// 6 decimal places, comma encoded as %2C.
func MapLink(centroid model.GeoPoint) string {
	return fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%.6f%%2C%.6f",
		centroid.Lat, centroid.Lon)
}

// SourceLink returns the OpenStreetMap browse URL for the source element.
func SourceLink(kind model.SourceKind, id int64) string {
	return fmt.Sprintf("https://www.openstreetmap.org/%s/%d", kind, id)
}
