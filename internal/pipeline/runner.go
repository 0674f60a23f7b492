// Package pipeline wires the search, mapping and ranking stages into one
// synchronous run.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/solarch/roofscout/internal/candidate"
	"github.com/solarch/roofscout/internal/model"
)

// Searcher is the input edge of the pipeline. A failed search is fatal to
// the run; there is no partial-results fallback.
type Searcher interface {
	Search(ctx context.Context, center model.GeoPoint, radiusM int) ([]model.Footprint, error)
}

// Params are the per-run search parameters.
type Params struct {
	Center    model.GeoPoint
	RadiusM   int
	MinAreaM2 float64
	Limit     int
}

// Result is the ranked output of a run plus aggregate stage counts.
type Result struct {
	Candidates []model.RoofCandidate
	Stats      model.RunStats
}

// Runner executes the footprint pipeline. The mapping stage fans out across
// a bounded worker group; each footprint maps independently and results are
// collected by input index, so ranking sees a deterministic order no matter
// how the workers interleave.
type Runner struct {
	searcher    Searcher
	factory     *candidate.Factory
	concurrency int
}

// NewRunner creates a Runner. concurrency bounds the mapping fan-out; values
// below 1 run the mapping sequentially.
func NewRunner(searcher Searcher, factory *candidate.Factory, concurrency int) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{searcher: searcher, factory: factory, concurrency: concurrency}
}

// Run executes search -> map -> rank and returns the ranked candidates.
func (r *Runner) Run(ctx context.Context, params Params) (*Result, error) {
	footprints, err := r.searcher.Search(ctx, params.Center, params.RadiusM)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: search")
	}
	zap.L().Info("pipeline: footprints fetched", zap.Int("count", len(footprints)))

	// Slot results by input index; no shared mutable state between
	// mappings.
	mapped := make([]*model.RoofCandidate, len(footprints))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, fp := range footprints {
		g.Go(func() error {
			if c, ok := r.factory.FromFootprint(fp); ok {
				mapped[i] = &c
			}
			return nil
		})
	}
	_ = g.Wait() // mapping never returns an error; malformed input is dropped

	built := make([]model.RoofCandidate, 0, len(mapped))
	for _, c := range mapped {
		if c != nil {
			built = append(built, *c)
		}
	}
	zap.L().Info("pipeline: candidates built",
		zap.Int("built", len(built)),
		zap.Int("dropped", len(footprints)-len(built)),
	)

	ranked := candidate.Rank(built, params.MinAreaM2, params.Limit)
	zap.L().Info("pipeline: candidates ranked",
		zap.Int("ranked", len(ranked)),
		zap.Float64("min_area_m2", params.MinAreaM2),
	)

	return &Result{
		Candidates: ranked,
		Stats: model.RunStats{
			Fetched: len(footprints),
			Built:   len(built),
			Ranked:  len(ranked),
		},
	}, nil
}
