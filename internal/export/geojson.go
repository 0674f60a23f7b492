package export

import (
	"encoding/json"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"

	"github.com/solarch/roofscout/internal/model"
	"github.com/solarch/roofscout/internal/projection"
)

// placeholderHalfEdge is half the edge length, in meters, of the square
// written in place of the real footprint geometry.
const placeholderHalfEdge = 2.5

// WriteGeoJSON writes a feature collection with one feature per candidate.
// The geometry is a deliberate placeholder: a 5 m square centered on the
// centroid, built in the metric CRS and reprojected to WGS84. Properties
// mirror the tabular columns minus lat/lon.
func WriteGeoJSON(path string, proj projection.Projector, cands []model.RoofCandidate) error {
	fc := geojson.NewFeatureCollection()

	for _, c := range cands {
		f := geojson.NewFeature(placeholderSquare(proj, c.Centroid))
		f.Properties = geojson.Properties{
			"osm_type":     string(c.Kind),
			"osm_id":       c.ID,
			"name":         c.Name,
			"building_tag": c.BuildingTag,
			"area_m2":      round(c.AreaM2, 1),
			"compactness":  round(c.Compactness, 4),
			"score":        round(c.Score, 1),
			"google_maps":  c.MapLink,
			"osm_url":      c.SourceLink,
		}
		fc.Append(f)
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "export: marshal geojson")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}
	return nil
}

// placeholderSquare builds the 5 m marker polygon around a geodetic point.
func placeholderSquare(proj projection.Projector, center model.GeoPoint) orb.Polygon {
	p := proj.ToPlanar(center)
	d := placeholderHalfEdge

	corners := []model.PlanarPoint{
		{E: p.E - d, N: p.N - d},
		{E: p.E + d, N: p.N - d},
		{E: p.E + d, N: p.N + d},
		{E: p.E - d, N: p.N + d},
		{E: p.E - d, N: p.N - d},
	}

	ring := make(orb.Ring, len(corners))
	for i, c := range corners {
		g := proj.ToGeodetic(c)
		ring[i] = orb.Point{g.Lon, g.Lat}
	}
	return orb.Polygon{ring}
}
