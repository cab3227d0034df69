package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/rewired-gh/fantasy-insights/internal/analysis"
	"github.com/rewired-gh/fantasy-insights/internal/models"
	"github.com/rewired-gh/fantasy-insights/internal/series"
)

type ctxKey int

const positionKey ctxKey = iota

type errorResponse struct {
	Error string `json:"error"`
}

func renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: msg})
}

// positionCtx validates the {position} parameter.
func positionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pos, err := models.ParsePosition(chi.URLParam(r, "position"))
		if err != nil {
			renderError(w, r, http.StatusNotFound, err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), positionKey, pos)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func positionFrom(r *http.Request) models.Position {
	return r.Context().Value(positionKey).(models.Position)
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

type healthResponse struct {
	Status      string `json:"status"`
	ReportID    string `json:"report_id"`
	LeagueWeeks int    `json:"league_weeks"`
}

// health handles GET /api/health
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	st := s.current()
	render.JSON(w, r, healthResponse{Status: "ok", ReportID: st.Report.ID, LeagueWeeks: st.Report.LeagueWeeks})
}

// getReport handles GET /api/report
func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.current().Report)
}

// getPosition handles GET /api/positions/{position}
func (s *Server) getPosition(w http.ResponseWriter, r *http.Request) {
	pr, ok := s.current().Report.Position(positionFrom(r))
	if !ok {
		renderError(w, r, http.StatusNotFound, "position not analysed")
		return
	}
	render.JSON(w, r, pr)
}

// getRanking handles GET /api/positions/{position}/rankings/{metric}?top=N
func (s *Server) getRanking(w http.ResponseWriter, r *http.Request) {
	metric, err := analysis.ParseMetric(chi.URLParam(r, "metric"))
	if err != nil {
		renderError(w, r, http.StatusNotFound, err.Error())
		return
	}
	top, err := queryInt(r, "top", 0)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "top must be an integer")
		return
	}

	pr, ok := s.current().Report.Position(positionFrom(r))
	if !ok {
		renderError(w, r, http.StatusNotFound, "position not analysed")
		return
	}
	ranking, ok := pr.Ranking(metric)
	if !ok {
		renderError(w, r, http.StatusNotFound, "metric not part of the season report")
		return
	}
	ranking.Entries = ranking.Top(top)
	render.JSON(w, r, ranking)
}

// topPerformers handles GET /api/positions/{position}/top?week=N&n=10
// week 0 (the default) reads the full-season table.
func (s *Server) topPerformers(w http.ResponseWriter, r *http.Request) {
	week, err := queryInt(r, "week", models.FullSeasonWeek)
	if err != nil || week < 0 {
		renderError(w, r, http.StatusBadRequest, "week must be a non-negative integer")
		return
	}
	n, err := queryInt(r, "n", 10)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "n must be an integer")
		return
	}
	render.JSON(w, r, s.engine.TopPerformers(s.current().Snapshot, positionFrom(r), week, n))
}

// rangeLeaders handles GET /api/positions/{position}/range?from=A&to=B
func (s *Server) rangeLeaders(w http.ResponseWriter, r *http.Request) {
	from, err1 := queryInt(r, "from", 0)
	to, err2 := queryInt(r, "to", 0)
	if err1 != nil || err2 != nil || from < 0 || to < 0 || (to > 0 && from > to) {
		renderError(w, r, http.StatusBadRequest, "invalid week range")
		return
	}
	wr := models.WeekRange{From: from, To: to}
	render.JSON(w, r, s.engine.RangeLeaders(s.current().Snapshot, positionFrom(r), wr))
}

// weekSummary handles GET /api/weeks/{week}?n=5
func (s *Server) weekSummary(w http.ResponseWriter, r *http.Request) {
	week, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil || week < 1 {
		renderError(w, r, http.StatusBadRequest, "week must be a positive integer")
		return
	}
	n, err := queryInt(r, "n", 5)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "n must be an integer")
		return
	}
	render.JSON(w, r, s.engine.WeeklySummary(s.current().Snapshot, week, n))
}

// searchPlayers handles GET /api/players?q=allen&position=QB
func (s *Server) searchPlayers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		renderError(w, r, http.StatusBadRequest, "q is required")
		return
	}
	positions := models.AllPositions
	if p := r.URL.Query().Get("position"); p != "" {
		pos, err := models.ParsePosition(p)
		if err != nil {
			renderError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		positions = []models.Position{pos}
	}

	found := series.Find(s.current().Series, positions, q)
	if found == nil {
		found = []models.PlayerSeries{}
	}
	render.JSON(w, r, found)
}
