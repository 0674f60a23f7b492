package model

// RoofCandidate is a building footprint that passed geometry validation and
// received computed metrics and a rank score. Candidates are immutable once
// built: area, compactness and score always derive from the same polygon.
type RoofCandidate struct {
	Kind        SourceKind `json:"osm_type"`
	ID          int64      `json:"osm_id"`
	Name        string     `json:"name,omitempty"`
	BuildingTag string     `json:"building_tag,omitempty"`
	ClassGuess  string     `json:"class_guess,omitempty"`
	AreaM2      float64    `json:"area_m2"`
	Compactness float64    `json:"compactness"`
	Score       float64    `json:"score"`
	Centroid    GeoPoint   `json:"centroid"`
	MapLink     string     `json:"google_maps"`
	SourceLink  string     `json:"osm_url"`
}
