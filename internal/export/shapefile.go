package export

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/solarch/roofscout/internal/model"
)

// WriteShapefile writes the candidates as a WGS84 point shapefile, one
// centroid point per candidate with the ranking attributes. GIS users get
// the real footprints from OSM via the OSM_ID column.
func WriteShapefile(path string, cands []model.RoofCandidate) error {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}
	defer w.Close() //nolint:errcheck

	w.SetFields([]shp.Field{
		shp.StringField("OSM_TYPE", 10),
		shp.NumberField("OSM_ID", 16),
		shp.StringField("NAME", 64),
		shp.StringField("BLDG_TAG", 32),
		shp.StringField("CLASS", 16),
		shp.FloatField("AREA_M2", 16, 1),
		shp.FloatField("COMPACT", 10, 4),
		shp.FloatField("SCORE", 16, 1),
	})

	for i, c := range cands {
		w.Write(&shp.Point{X: c.Centroid.Lon, Y: c.Centroid.Lat})

		// go-shp only writes int, float64 and string attribute values.
		attrs := []any{
			string(c.Kind), int(c.ID), c.Name, c.BuildingTag, c.ClassGuess,
			c.AreaM2, c.Compactness, c.Score,
		}
		for col, v := range attrs {
			if err := w.WriteAttribute(i, col, v); err != nil {
				return eris.Wrapf(err, "export: shapefile attribute row %d col %d", i, col)
			}
		}
	}

	return nil
}
