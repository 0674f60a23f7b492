// Package model holds the domain types shared across the roofscout pipeline.
package model

// GeoPoint is a WGS84 coordinate pair in degrees.
type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// PlanarPoint is a coordinate pair in meters in the configured metric CRS
// (CH1903+/LV95). PlanarPoints are only ever produced by a Projector; they
// are never built from raw degree values.
type PlanarPoint struct {
	E float64 `json:"e"`
	N float64 `json:"n"`
}
