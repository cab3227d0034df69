package models

// Observation is one weekly fantasy-point reading.
type Observation struct {
	Week   int     `json:"week"`
	Points float64 `json:"fpts"`
}

// Aggregate holds season-level fields for a player.
type Aggregate struct {
	TotalPoints float64 `json:"total_fpts"`
	PerGame     float64 `json:"fpts_per_game"`
	Games       int     `json:"games"`
	RosterPct   float64 `json:"roster_pct"`
	FromSeason  bool    `json:"from_season"` // true when taken from the full-season table
}

// PlayerSeries is the derived per-player time series for one position.
// Observations are sparse and ascending by week: missed weeks are absent.
type PlayerSeries struct {
	Key          string        `json:"key"`
	Player       string        `json:"player"`
	Position     Position      `json:"position"`
	Observations []Observation `json:"observations"`
	Aggregate    Aggregate     `json:"aggregate"`
}

// Points returns the observed points in week order.
func (s *PlayerSeries) Points() []float64 {
	out := make([]float64, len(s.Observations))
	for i, o := range s.Observations {
		out[i] = o.Points
	}
	return out
}
