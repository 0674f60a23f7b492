package store

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/solarch/roofscout/internal/model"
)

// encodeCentroid converts a geodetic point to EWKB bytes with SRID 4326, so
// stored candidate rows load directly into GIS tooling.
func encodeCentroid(p model.GeoPoint) ([]byte, error) {
	pt := geom.NewPointFlat(geom.XY, []float64{p.Lon, p.Lat}).SetSRID(4326)
	data, err := ewkb.Marshal(pt, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "store: encode centroid")
	}
	return data, nil
}

// decodeCentroid converts stored EWKB bytes back to a geodetic point.
func decodeCentroid(data []byte) (model.GeoPoint, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return model.GeoPoint{}, eris.Wrap(err, "store: decode centroid")
	}
	pt, ok := g.(*geom.Point)
	if !ok {
		return model.GeoPoint{}, eris.Errorf("store: centroid is %T, not a point", g)
	}
	return model.GeoPoint{Lon: pt.X(), Lat: pt.Y()}, nil
}
