package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solarch/roofscout/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve past search results over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		ln, err := listenFirstFree(port, cfg.Server.PortRange)
		if err != nil {
			return err
		}

		zap.L().Info("starting server", zap.String("addr", ln.Addr().String()))
		return runServer(ctx, ln, newRouter(st, cfg.Server.StaticDir))
	},
}

// shutdownGrace bounds how long in-flight requests get to finish once the
// stop signal arrives.
const shutdownGrace = 10 * time.Second

// runServer serves until ctx is canceled, then drains in-flight requests.
// The shutdown uses a fresh context; the canceled signal context would abort
// the drain immediately.
func runServer(ctx context.Context, ln net.Listener, handler http.Handler) error {
	srv := &http.Server{Handler: handler}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Error("server shutdown", zap.Error(err))
		}
	}()

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (0 scans 8000 upward)")
	rootCmd.AddCommand(serveCmd)
}

// listenFirstFree binds the given port, or when port is 0 scans upward from
// 8000 until a free port is found within the configured range.
func listenFirstFree(port, portRange int) (net.Listener, error) {
	if port != 0 {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		return ln, eris.Wrapf(err, "listen on port %d", port)
	}

	if portRange < 1 {
		portRange = 1
	}
	for p := 8000; p < 8000+portRange; p++ {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", p))
		if err == nil {
			return ln, nil
		}
	}
	return nil, eris.Errorf("no free port in range 8000-%d", 8000+portRange-1)
}

// newRouter builds the API routes, plus a static file tree when staticDir is
// set.
func newRouter(st store.Store, staticDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
			runs, err := st.ListRuns(req.Context(), store.RunFilter{Limit: 100})
			if err != nil {
				serveError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, runs)
		})

		r.Get("/runs/latest", func(w http.ResponseWriter, req *http.Request) {
			run, err := st.LatestRun(req.Context())
			if err != nil {
				serveError(w, err)
				return
			}
			if run == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "no completed runs"})
				return
			}
			writeJSON(w, http.StatusOK, run)
		})

		r.Get("/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
			run, err := st.GetRun(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
				return
			}
			writeJSON(w, http.StatusOK, run)
		})

		r.Get("/runs/{id}/candidates", func(w http.ResponseWriter, req *http.Request) {
			cands, err := st.ListCandidates(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				serveError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, cands)
		})

		// Candidates of the most recent completed run.
		r.Get("/candidates", func(w http.ResponseWriter, req *http.Request) {
			run, err := st.LatestRun(req.Context())
			if err != nil {
				serveError(w, err)
				return
			}
			if run == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "no completed runs"})
				return
			}
			cands, err := st.ListCandidates(req.Context(), run.ID)
			if err != nil {
				serveError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, cands)
		})
	})

	if staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(staticDir)))
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func serveError(w http.ResponseWriter, err error) {
	zap.L().Error("api request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
