// Package store persists search runs and their ranked candidates.
package store

import (
	"context"

	"github.com/solarch/roofscout/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
}

// Store is the persistence interface for the search pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, params model.RunParams) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, stats model.RunStats) error
	FailRun(ctx context.Context, runID string, cause error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	LatestRun(ctx context.Context) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Candidates
	SaveCandidates(ctx context.Context, runID string, cands []model.RoofCandidate) error
	ListCandidates(ctx context.Context, runID string) ([]model.RoofCandidate, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
