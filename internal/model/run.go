package model

import "time"

// RunStatus is the lifecycle state of a search run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunParams are the search parameters a run was started with.
type RunParams struct {
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
	RadiusM   int     `json:"radius_m"`
	MinAreaM2 float64 `json:"min_area_m2"`
	Limit     int     `json:"limit"`
}

// RunStats are the aggregate pipeline stage counts for a run. Malformed
// footprints are reflected here only as the difference between stages, never
// as per-record diagnostics.
type RunStats struct {
	Fetched int `json:"fetched"`
	Built   int `json:"built"`
	Ranked  int `json:"ranked"`
}

// Run is a persisted record of one search execution.
type Run struct {
	ID        string    `json:"id"`
	Params    RunParams `json:"params"`
	Status    RunStatus `json:"status"`
	Stats     RunStats  `json:"stats"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
