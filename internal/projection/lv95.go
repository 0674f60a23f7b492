package projection

import (
	"math"

	"github.com/solarch/roofscout/internal/model"
)

// LV95 implements Projector for the Swiss national grid CH1903+/LV95
// (EPSG:2056). The forward transform uses the swisstopo approximation
// series; the inverse refines the published inverse series with a Newton
// iteration on the forward transform so that round trips close to machine
// precision rather than to the ~1 m accuracy of the raw series.
type LV95 struct{}

// NewLV95 returns the LV95 projector.
func NewLV95() LV95 {
	return LV95{}
}

// ToPlanar converts a WGS84 point to LV95 east/north meters.
func (LV95) ToPlanar(p model.GeoPoint) model.PlanarPoint {
	e, n := forward(p.Lon, p.Lat)
	return model.PlanarPoint{E: e, N: n}
}

// ToGeodetic converts LV95 east/north meters back to WGS84 degrees.
func (LV95) ToGeodetic(p model.PlanarPoint) model.GeoPoint {
	lon, lat := inverseSeed(p.E, p.N)

	// Newton refinement against the forward transform. The Jacobian is
	// taken by central differences; three iterations close the residual
	// to well under a millimeter anywhere in the grid's domain.
	const h = 1e-7
	for range 8 {
		e, n := forward(lon, lat)
		de := e - p.E
		dn := n - p.N
		if math.Abs(de) < 1e-6 && math.Abs(dn) < 1e-6 {
			break
		}

		e1, n1 := forward(lon+h, lat)
		e2, n2 := forward(lon, lat+h)
		dEdLon := (e1 - e) / h
		dNdLon := (n1 - n) / h
		dEdLat := (e2 - e) / h
		dNdLat := (n2 - n) / h

		det := dEdLon*dNdLat - dEdLat*dNdLon
		if det == 0 {
			break
		}
		lon -= (de*dNdLat - dn*dEdLat) / det
		lat -= (dn*dEdLon - de*dNdLon) / det
	}

	return model.GeoPoint{Lon: lon, Lat: lat}
}

// forward is the swisstopo approximation series WGS84 -> LV95.
func forward(lon, lat float64) (e, n float64) {
	phi := (lat*3600 - 169028.66) / 10000
	lam := (lon*3600 - 26782.5) / 10000

	e = 2600072.37 +
		211455.93*lam -
		10938.51*lam*phi -
		0.36*lam*phi*phi -
		44.54*lam*lam*lam

	n = 1200147.07 +
		308807.95*phi +
		3745.25*lam*lam +
		76.63*phi*phi -
		194.56*lam*lam*phi +
		119.79*phi*phi*phi

	return e, n
}

// inverseSeed is the swisstopo approximation series LV95 -> WGS84, used as
// the starting point for the Newton refinement.
func inverseSeed(e, n float64) (lon, lat float64) {
	y := (e - 2600000) / 1000000
	x := (n - 1200000) / 1000000

	lam := 2.6779094 +
		4.728982*y +
		0.791484*y*x +
		0.1306*y*x*x -
		0.0436*y*y*y

	phi := 16.9023892 +
		3.238272*x -
		0.270978*y*y -
		0.002528*x*x -
		0.0447*y*y*x -
		0.0140*x*x*x

	// The series yields values in units of 10000 sexagesimal seconds.
	return lam * 100 / 36, phi * 100 / 36
}
