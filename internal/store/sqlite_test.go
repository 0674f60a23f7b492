package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarch/roofscout/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLite(filepath.Join(t.TempDir(), "roofscout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testParams() model.RunParams {
	return model.RunParams{
		CenterLat: 47.4319,
		CenterLon: 9.6397,
		RadiusM:   5000,
		MinAreaM2: 100,
		Limit:     50,
	}
}

func TestSQLiteRunLifecycle(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, testParams())
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, testParams(), got.Params)
	assert.Equal(t, model.RunStatusRunning, got.Status)

	stats := model.RunStats{Fetched: 12, Built: 10, Ranked: 5}
	require.NoError(t, s.CompleteRun(ctx, run.ID, stats))

	got, err = s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	assert.Equal(t, stats, got.Stats)
	assert.Empty(t, got.Error)
}

func TestSQLiteFailRun(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, testParams())
	require.NoError(t, err)

	require.NoError(t, s.FailRun(ctx, run.ID, eris.New("all 3 endpoints failed")))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Contains(t, got.Error, "all 3 endpoints failed")
}

func TestSQLiteUpdateMissingRun(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	err := s.CompleteRun(ctx, "no-such-run", model.RunStats{})
	assert.ErrorContains(t, err, "not found")

	err = s.FailRun(ctx, "no-such-run", eris.New("boom"))
	assert.ErrorContains(t, err, "not found")
}

func TestSQLiteLatestRun(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest, "empty store should yield no latest run")

	// A running run does not count as latest; only completed ones do.
	first, err := s.CreateRun(ctx, testParams())
	require.NoError(t, err)

	latest, err = s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, s.CompleteRun(ctx, first.ID, model.RunStats{Fetched: 1}))

	latest, err = s.LatestRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, first.ID, latest.ID)
}

func TestSQLiteListRuns(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	a, err := s.CreateRun(ctx, testParams())
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, testParams())
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(ctx, a.ID, model.RunStats{}))

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	complete, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, a.ID, complete[0].ID)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteCandidateRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, testParams())
	require.NoError(t, err)

	cands := []model.RoofCandidate{
		{
			Kind:        model.SourceWay,
			ID:          123456789,
			Name:        "Lagerhalle West",
			BuildingTag: "warehouse",
			ClassGuess:  "warehouse",
			AreaM2:      1524.3,
			Compactness: 0.78,
			Score:       3407.01,
			Centroid:    model.GeoPoint{Lon: 9.6391, Lat: 47.4327},
			MapLink:     "https://www.google.com/maps/search/?api=1&query=47.432700%2C9.639100",
			SourceLink:  "https://www.openstreetmap.org/way/123456789",
		},
		{
			Kind:       model.SourceRelation,
			ID:         42,
			AreaM2:     800.0,
			Score:      560.0,
			Centroid:   model.GeoPoint{Lon: 9.64, Lat: 47.43},
			MapLink:    "https://www.google.com/maps/search/?api=1&query=47.430000%2C9.640000",
			SourceLink: "https://www.openstreetmap.org/relation/42",
		},
	}
	require.NoError(t, s.SaveCandidates(ctx, run.ID, cands))

	got, err := s.ListCandidates(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, cands[0], got[0])
	assert.Equal(t, cands[1], got[1])

	// Order follows rank, not insertion side effects.
	assert.Equal(t, model.SourceWay, got[0].Kind)
	assert.Equal(t, model.SourceRelation, got[1].Kind)
}

func TestSQLiteListCandidatesEmptyRun(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)

	got, err := s.ListCandidates(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}
