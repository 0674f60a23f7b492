package export

import (
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/solarch/roofscout/internal/model"
)

// csvRow is one tabular export line. Numeric columns are pre-formatted so
// the rounding contract survives any CSV consumer.
type csvRow struct {
	OSMType     string `csv:"osm_type"`
	OSMID       int64  `csv:"osm_id"`
	Name        string `csv:"name"`
	BuildingTag string `csv:"building_tag"`
	AreaM2      string `csv:"area_m2"`
	Compactness string `csv:"compactness"`
	Score       string `csv:"score"`
	Lat         string `csv:"lat"`
	Lon         string `csv:"lon"`
	GoogleMaps  string `csv:"google_maps"`
	OSMURL      string `csv:"osm_url"`
}

func toCSVRow(c model.RoofCandidate) csvRow {
	return csvRow{
		OSMType:     string(c.Kind),
		OSMID:       c.ID,
		Name:        c.Name,
		BuildingTag: c.BuildingTag,
		AreaM2:      fmt1(c.AreaM2),
		Compactness: fmt4(c.Compactness),
		Score:       fmt1(c.Score),
		Lat:         fmt6(c.Centroid.Lat),
		Lon:         fmt6(c.Centroid.Lon),
		GoogleMaps:  c.MapLink,
		OSMURL:      c.SourceLink,
	}
}

// WriteCSV writes one row per ranked candidate to path.
func WriteCSV(path string, cands []model.RoofCandidate) error {
	rows := make([]csvRow, len(cands))
	for i, c := range cands {
		rows[i] = toCSVRow(c)
	}

	data, err := csvutil.Marshal(rows)
	if err != nil {
		return eris.Wrap(err, "export: marshal csv")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}
	return nil
}
