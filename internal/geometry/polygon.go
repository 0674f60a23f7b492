// Package geometry turns raw geodetic vertex lists into validated polygons
// and computes their metric properties. Validity checks run on the raw
// lon/lat ring; all area and distance math runs on projected coordinates.
package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/solarch/roofscout/internal/model"
)

// ValidPolygon is a simple closed ring with positive enclosed area. It is
// only constructed by Builder.Build and never mutated afterwards.
type ValidPolygon struct {
	ring orb.Ring
}

// Ring returns the closed geodetic ring (x=lon, y=lat).
func (p *ValidPolygon) Ring() orb.Ring {
	return p.ring
}

// Builder converts ordered geodetic vertex lists into valid polygons.
// Malformed input is signaled by returning ok=false, never by panicking;
// line-like "building" ways fall out at the zero-area check.
type Builder struct {
	repair RingRepairer
}

// NewBuilder returns a Builder using the default untwist repairer.
func NewBuilder() Builder {
	return Builder{repair: UntwistRepairer{}}
}

// NewBuilderWithRepairer returns a Builder using a custom repair backend.
func NewBuilderWithRepairer(r RingRepairer) Builder {
	return Builder{repair: r}
}

// Build validates vertices into a polygon. It closes the ring if the first
// and last vertex differ, repairs self-intersections best-effort, and
// rejects degenerate (zero-area) input.
func (b Builder) Build(vertices []model.GeoPoint) (*ValidPolygon, bool) {
	if len(vertices) < 3 {
		return nil, false
	}

	ring := make(orb.Ring, 0, len(vertices)+1)
	for _, v := range vertices {
		ring = append(ring, orb.Point{v.Lon, v.Lat})
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}

	if !isSimple(ring) {
		repaired, ok := b.repair.Repair(ring)
		if !ok {
			return nil, false
		}
		ring = repaired
	}

	if math.Abs(planar.Area(ring)) == 0 {
		return nil, false
	}

	return &ValidPolygon{ring: ring}, true
}

// isSimple reports whether no two non-adjacent ring segments intersect.
// The ring must be closed.
func isSimple(ring orb.Ring) bool {
	n := len(ring) - 1 // segment count, ring[n] == ring[0]
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			// Skip adjacent segments, including the first/last pair.
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			if segmentsIntersect(ring[i], ring[i+1], ring[j], ring[j+1]) {
				return false
			}
		}
	}
	return true
}

// segmentsIntersect reports whether segments pq and rs share any point.
func segmentsIntersect(p, q, r, s orb.Point) bool {
	d1 := cross(r, s, p)
	d2 := cross(r, s, q)
	d3 := cross(p, q, r)
	d4 := cross(p, q, s)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	switch {
	case d1 == 0 && onSegment(r, s, p):
		return true
	case d2 == 0 && onSegment(r, s, q):
		return true
	case d3 == 0 && onSegment(p, q, r):
		return true
	case d4 == 0 && onSegment(p, q, s):
		return true
	}
	return false
}

// cross is the z-component of (b-a) x (c-a).
func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// onSegment reports whether c, known collinear with ab, lies on segment ab.
func onSegment(a, b, c orb.Point) bool {
	return math.Min(a[0], b[0]) <= c[0] && c[0] <= math.Max(a[0], b[0]) &&
		math.Min(a[1], b[1]) <= c[1] && c[1] <= math.Max(a[1], b[1])
}
