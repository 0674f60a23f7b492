package export

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/solarch/roofscout/internal/model"
)

var xlsxHeader = []string{
	"osm_type", "osm_id", "name", "building_tag",
	"area_m2", "compactness", "score", "lat", "lon",
	"google_maps", "osm_url",
}

// WriteXLSX writes the candidates to a single-sheet workbook with the same
// columns and rounding as the CSV export.
func WriteXLSX(path string, cands []model.RoofCandidate) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("candidates")
	if err != nil {
		return eris.Wrap(err, "export: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, name := range xlsxHeader {
		header.AddCell().Value = name
	}

	for _, c := range cands {
		r := toCSVRow(c)
		row := sheet.AddRow()
		for _, v := range []string{
			r.OSMType, strconv.FormatInt(r.OSMID, 10), r.Name, r.BuildingTag,
			r.AreaM2, r.Compactness, r.Score, r.Lat, r.Lon,
			r.GoogleMaps, r.OSMURL,
		} {
			row.AddCell().Value = v
		}
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}
	return nil
}
