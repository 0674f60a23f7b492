package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// RingRepairer attempts to turn an invalid (self-intersecting) closed ring
// into a valid simple one. Repair is best-effort: different backends may
// legitimately produce different topologies for the same pathological input,
// so repaired output is not guaranteed to match across geometry engines.
type RingRepairer interface {
	Repair(ring orb.Ring) (orb.Ring, bool)
}

// UntwistRepairer is the default repair backend. It splits the ring at the
// first self-intersection into two sub-rings and keeps the one enclosing the
// larger area, repeating until the result is simple. Bowtie footprints
// resolve to their dominant lobe; inputs that do not converge are rejected.
type UntwistRepairer struct{}

const maxRepairPasses = 10

// Repair implements RingRepairer.
func (UntwistRepairer) Repair(ring orb.Ring) (orb.Ring, bool) {
	current := ring
	for range maxRepairPasses {
		if isSimple(current) {
			if math.Abs(planar.Area(current)) == 0 {
				return nil, false
			}
			return current, true
		}

		next, ok := untwistOnce(current)
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

// untwistOnce finds the first pair of crossing non-adjacent segments, splits
// the ring at the crossing point and returns the larger sub-ring.
func untwistOnce(ring orb.Ring) (orb.Ring, bool) {
	n := len(ring) - 1
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			x, ok := crossingPoint(ring[i], ring[i+1], ring[j], ring[j+1])
			if !ok {
				continue
			}

			// Outer part: ring[0..i], x, ring[j+1..end].
			outer := make(orb.Ring, 0, n+2)
			outer = append(outer, ring[:i+1]...)
			outer = append(outer, x)
			outer = append(outer, ring[j+1:]...)

			// Inner loop: x, ring[i+1..j], x.
			inner := make(orb.Ring, 0, j-i+2)
			inner = append(inner, x)
			inner = append(inner, ring[i+1:j+1]...)
			inner = append(inner, x)

			if math.Abs(planar.Area(inner)) > math.Abs(planar.Area(outer)) {
				return inner, true
			}
			return outer, true
		}
	}
	return nil, false
}

// crossingPoint returns the proper intersection point of segments pq and rs,
// if they cross at a single interior point. Collinear overlaps are not
// repairable by splitting and report no crossing.
func crossingPoint(p, q, r, s orb.Point) (orb.Point, bool) {
	d := (q[0]-p[0])*(s[1]-r[1]) - (q[1]-p[1])*(s[0]-r[0])
	if d == 0 {
		return orb.Point{}, false
	}

	t := ((r[0]-p[0])*(s[1]-r[1]) - (r[1]-p[1])*(s[0]-r[0])) / d
	u := ((r[0]-p[0])*(q[1]-p[1]) - (r[1]-p[1])*(q[0]-p[0])) / d
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return orb.Point{}, false
	}

	return orb.Point{p[0] + t*(q[0]-p[0]), p[1] + t*(q[1]-p[1])}, true
}
