package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarch/roofscout/internal/model"
	"github.com/solarch/roofscout/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedRun(t *testing.T, st store.Store) *model.Run {
	t.Helper()
	ctx := context.Background()

	run, err := st.CreateRun(ctx, model.RunParams{
		CenterLat: 47.4319, CenterLon: 9.6397, RadiusM: 5000, MinAreaM2: 100, Limit: 10,
	})
	require.NoError(t, err)

	cands := []model.RoofCandidate{{
		Kind:       model.SourceWay,
		ID:         77,
		Name:       "Halle Ost",
		AreaM2:     950.5,
		Score:      700.2,
		Centroid:   model.GeoPoint{Lon: 9.64, Lat: 47.43},
		MapLink:    "https://www.google.com/maps/search/?api=1&query=47.430000%2C9.640000",
		SourceLink: "https://www.openstreetmap.org/way/77",
	}}
	require.NoError(t, st.SaveCandidates(ctx, run.ID, cands))
	require.NoError(t, st.CompleteRun(ctx, run.ID, model.RunStats{Fetched: 2, Built: 1, Ranked: 1}))
	return run
}

func TestServeHealth(t *testing.T) {
	router := newRouter(newTestStore(t), "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeLatestRunEmpty(t *testing.T) {
	router := newRouter(newTestStore(t), "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/latest", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeRunEndpoints(t *testing.T) {
	st := newTestStore(t)
	run := seedRun(t, st)
	router := newRouter(st, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/latest", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var latest model.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &latest))
	assert.Equal(t, run.ID, latest.ID)
	assert.Equal(t, model.RunStatusComplete, latest.Status)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/"+run.ID+"/candidates", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var cands []model.RoofCandidate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cands))
	require.Len(t, cands, 1)
	assert.Equal(t, "Halle Ost", cands[0].Name)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/candidates", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	cands = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cands))
	require.Len(t, cands, 1)
	assert.Equal(t, int64(77), cands[0].ID)
}

func TestServeUnknownRun(t *testing.T) {
	router := newRouter(newTestStore(t), "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeStaticDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>roofscout</h1>"), 0644))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log('ready')"), 0644))

	router := newRouter(newTestStore(t), dir)

	// FileServer serves index.html at the directory root and redirects
	// direct /index.html requests there.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "roofscout")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.html", nil))
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "./", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ready")
}

func TestRunServerGracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	router := newRouter(newTestStore(t), "")

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- runServer(ctx, ln, router)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errCh:
		// A drained shutdown surfaces as ErrServerClosed, which runServer
		// swallows.
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after context cancellation")
	}
}

func TestListenFirstFreeScans(t *testing.T) {
	ln, err := listenFirstFree(0, 100)
	require.NoError(t, err)
	defer ln.Close()

	// A second scan skips the port the first listener holds.
	ln2, err := listenFirstFree(0, 100)
	require.NoError(t, err)
	defer ln2.Close()

	assert.NotEqual(t, ln.Addr().String(), ln2.Addr().String())
}
