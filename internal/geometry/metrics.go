package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/solarch/roofscout/internal/model"
	"github.com/solarch/roofscout/internal/projection"
)

// Metrics holds the projected measurements of a polygon.
type Metrics struct {
	AreaM2      float64
	PerimeterM  float64
	Compactness float64
}

// Measure projects every ring vertex into the metric CRS and computes area,
// perimeter and Polsby-Popper compactness. All three are pure functions of
// the polygon: area is the absolute shoelace area (invariant to winding),
// perimeter the sum of planar segment lengths around the closed ring.
func Measure(proj projection.Projector, poly *ValidPolygon) Metrics {
	ring := poly.Ring()
	projected := make(orb.Ring, len(ring))
	for i, pt := range ring {
		pp := proj.ToPlanar(model.GeoPoint{Lon: pt[0], Lat: pt[1]})
		projected[i] = orb.Point{pp.E, pp.N}
	}

	area := math.Abs(planar.Area(projected))
	perimeter := planar.Length(projected)

	return Metrics{
		AreaM2:      area,
		PerimeterM:  perimeter,
		Compactness: Compactness(area, perimeter),
	}
}

// Compactness is the Polsby-Popper shape index 4*pi*A/P^2: 1.0 for a circle,
// approaching 0 for elongated shapes, 0 when the perimeter is zero. Values
// are not clamped; repaired pathological rings may fall slightly outside
// [0,1].
func Compactness(areaM2, perimeterM float64) float64 {
	if perimeterM == 0 {
		return 0
	}
	return 4 * math.Pi * areaM2 / (perimeterM * perimeterM)
}
