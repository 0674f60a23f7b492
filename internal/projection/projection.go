// Package projection converts between WGS84 geodetic coordinates and the
// planar metric CRS used for all area and distance math. The CRS is a
// deployment-wide constant; no other package does its own trigonometric
// distance or area computation.
package projection

import (
	"github.com/rotisserie/eris"

	"github.com/solarch/roofscout/internal/model"
)

// Projector is a bidirectional transform between geodetic and planar
// coordinates. Implementations must be round-trip consistent to well below
// 1e-6 degrees for points inside their valid domain.
type Projector interface {
	ToPlanar(p model.GeoPoint) model.PlanarPoint
	ToGeodetic(p model.PlanarPoint) model.GeoPoint
}

// CheckDomain verifies that a point lies inside the valid domain of the
// configured CRS. A point outside the domain is a configuration error (wrong
// center for the configured grid) and must abort the run before any metric
// math happens.
func CheckDomain(p model.GeoPoint) error {
	if p.Lat < 45.5 || p.Lat > 48.5 || p.Lon < 5.5 || p.Lon > 11.0 {
		return eris.Errorf("projection: point lon=%.4f lat=%.4f outside LV95 domain", p.Lon, p.Lat)
	}
	return nil
}
