// Package api serves analysis results over a read-only JSON HTTP API.
//
// The server holds the latest State (snapshot, series and report) behind an
// atomic pointer. A reload builds a complete new State and swaps it in, so a
// request always sees one consistent run.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/rewired-gh/fantasy-insights/internal/analysis"
	"github.com/rewired-gh/fantasy-insights/internal/logger"
	"github.com/rewired-gh/fantasy-insights/internal/metrics"
	"github.com/rewired-gh/fantasy-insights/internal/models"
	"github.com/rewired-gh/fantasy-insights/internal/series"
	"github.com/rewired-gh/fantasy-insights/internal/storage"
)

var log = logger.Named("api")

// State is one completed analysis run.
type State struct {
	Snapshot *storage.Snapshot
	Report   *analysis.Report
	Series   map[models.Position][]models.PlayerSeries
}

// NewState derives the per-position series for a finished run.
func NewState(snap *storage.Snapshot, rep *analysis.Report) *State {
	return &State{Snapshot: snap, Report: rep, Series: series.BuildAll(snap)}
}

// Server serves the latest State.
type Server struct {
	engine  *analysis.Engine
	metrics *metrics.Metrics
	state   atomic.Pointer[State]
}

// NewServer creates a server around an initial state. metrics may be nil.
func NewServer(engine *analysis.Engine, m *metrics.Metrics, initial *State) *Server {
	s := &Server{engine: engine, metrics: m}
	s.state.Store(initial)
	return s
}

// Update swaps in the state of a newer run.
func (s *Server) Update(st *State) {
	s.state.Store(st)
	log.Info("Serving report %s", st.Report.ID)
}

func (s *Server) current() *State {
	return s.state.Load()
}

// Routes builds the HTTP router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/health", s.health)
		r.Get("/report", s.getReport)
		r.Get("/players", s.searchPlayers)
		r.Get("/weeks/{week}", s.weekSummary)

		r.Route("/positions/{position}", func(r chi.Router) {
			r.Use(positionCtx)
			r.Get("/", s.getPosition)
			r.Get("/rankings/{metric}", s.getRanking)
			r.Get("/top", s.topPerformers)
			r.Get("/range", s.rangeLeaders)
		})
	})
	return r
}

// instrument logs and counts every request by its route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if s.metrics != nil {
			s.metrics.ObserveRequest(route, status)
		}
		log.Debug("%s %s -> %d in %v", r.Method, r.URL.Path, status, time.Since(start))
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	}
}
