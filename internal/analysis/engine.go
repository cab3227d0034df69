// Package analysis turns per-player fantasy-point series into ranked insights.
//
// Six analyses run over the series of one position:
//
//	season_leaders  total points, then points per game, then identity
//	consistency     clamp(1 − σ/μ, 0, 1) over weekly points
//	volatility      raw σ over weekly points
//	breakout        second-half mean vs first-half mean of the league season
//	value           points per game / max(roster %, floor)
//	emerging_trend  OLS slope over each player's last K observations
//
// Every analysis is pure over the series it is given. A player that cannot be
// scored is reported in Ranking.Insufficient with a reason; it never aborts
// the ranking for the rest of the position.
//
// Division guards are explicit policies: a zero or negative mean leaves the
// consistency score undefined, a zero first-half mean with a positive second
// half is an infinite-improvement breakout, and roster percentage is floored
// at Options.RosterPctFloor before dividing.
package analysis

import (
	"fmt"

	"github.com/rewired-gh/fantasy-insights/internal/logger"
	"github.com/rewired-gh/fantasy-insights/internal/models"
)

var log = logger.Named("analysis")

// Metric names one analysis.
type Metric string

const (
	MetricSeasonLeaders Metric = "season_leaders"
	MetricConsistency   Metric = "consistency"
	MetricVolatility    Metric = "volatility"
	MetricBreakout      Metric = "breakout"
	MetricValue         Metric = "value"
	MetricEmergingTrend Metric = "emerging_trend"
	MetricRangeLeaders  Metric = "range_leaders"
	MetricTopPerformers Metric = "top_performers"
)

// Metrics lists the season analyses in report order.
var Metrics = []Metric{
	MetricSeasonLeaders,
	MetricConsistency,
	MetricVolatility,
	MetricBreakout,
	MetricValue,
	MetricEmergingTrend,
}

// ParseMetric accepts one of the names in Metrics.
func ParseMetric(s string) (Metric, error) {
	for _, m := range Metrics {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// Default option values.
const (
	DefaultMinWeeksForConsistency = 3
	DefaultBreakoutThresholdPct   = 0.0
	DefaultTrendWindowWeeks       = 3
	DefaultMinTrendMagnitude      = 0.0
	DefaultRosterPctFloor         = 0.1
)

// Options tunes the analyses.
type Options struct {
	MinWeeksForConsistency int     `json:"min_weeks_for_consistency"`
	BreakoutThresholdPct   float64 `json:"breakout_threshold_pct"`
	TrendWindowWeeks       int     `json:"trend_window_weeks"`
	MinTrendMagnitude      float64 `json:"min_trend_magnitude"`
	RosterPctFloor         float64 `json:"roster_pct_floor"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		MinWeeksForConsistency: DefaultMinWeeksForConsistency,
		BreakoutThresholdPct:   DefaultBreakoutThresholdPct,
		TrendWindowWeeks:       DefaultTrendWindowWeeks,
		MinTrendMagnitude:      DefaultMinTrendMagnitude,
		RosterPctFloor:         DefaultRosterPctFloor,
	}
}

// Engine runs analyses with a fixed set of options.
type Engine struct {
	opts Options
}

// New creates an Engine. Non-positive window sizes and floors fall back to defaults;
// thresholds keep their value since zero is meaningful for them.
func New(opts Options) *Engine {
	if opts.MinWeeksForConsistency <= 0 {
		opts.MinWeeksForConsistency = DefaultMinWeeksForConsistency
	}
	if opts.TrendWindowWeeks <= 0 {
		opts.TrendWindowWeeks = DefaultTrendWindowWeeks
	}
	if opts.RosterPctFloor <= 0 {
		opts.RosterPctFloor = DefaultRosterPctFloor
	}
	return &Engine{opts: opts}
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Entry is one player's result within a ranking. Only the stats block of the
// metric that produced the entry is set.
type Entry struct {
	Rank     int             `json:"rank,omitempty"`
	Key      string          `json:"key"`
	Player   string          `json:"player"`
	Position models.Position `json:"position"`
	Score    float64         `json:"score"`
	Status   models.Status   `json:"status"`
	Reason   string          `json:"reason,omitempty"`

	Season   *SeasonStats   `json:"season,omitempty"`
	Spread   *SpreadStats   `json:"spread,omitempty"`
	Breakout *BreakoutStats `json:"breakout,omitempty"`
	Value    *ValueStats    `json:"value,omitempty"`
	Trend    *TrendStats    `json:"trend,omitempty"`
	Range    *RangeStats    `json:"range,omitempty"`
}

// SeasonStats carries the aggregate fields used by season leaders.
type SeasonStats struct {
	TotalPoints float64 `json:"total_fpts"`
	PerGame     float64 `json:"fpts_per_game"`
	Games       int     `json:"games"`
	RosterPct   float64 `json:"roster_pct"`
	FromSeason  bool    `json:"from_season"`
}

// SpreadStats carries the weekly distribution used by consistency and volatility.
type SpreadStats struct {
	Observations int     `json:"observations"`
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
}

// BreakoutStats carries the half-season split.
type BreakoutStats struct {
	LeagueWeeks     int     `json:"league_weeks"`
	SplitWeek       int     `json:"split_week"` // last week of the first half
	FirstHalfWeeks  int     `json:"first_half_weeks"`
	SecondHalfWeeks int     `json:"second_half_weeks"`
	FirstHalfMean   float64 `json:"first_half_mean"`
	SecondHalfMean  float64 `json:"second_half_mean"`
	ImprovementPct  float64 `json:"improvement_pct"`
	Infinite        bool    `json:"infinite"`
}

// ValueStats carries the inputs of the value score.
type ValueStats struct {
	PerGame            float64 `json:"fpts_per_game"`
	Games              int     `json:"games"`
	RosterPct          float64 `json:"roster_pct"`
	EffectiveRosterPct float64 `json:"effective_roster_pct"`
	FloorApplied       bool    `json:"floor_applied"`
}

// TrendStats carries the trailing window used for the slope.
type TrendStats struct {
	Weeks      []int     `json:"weeks"`
	Points     []float64 `json:"points"`
	Slope      float64   `json:"slope"`
	WindowMean float64   `json:"window_mean"`
	TrendingUp bool      `json:"trending_up"`
}

// RangeStats carries a week-range aggregate.
type RangeStats struct {
	From        int     `json:"from"`
	To          int     `json:"to"`
	WeeksPlayed int     `json:"weeks_played"`
	TotalPoints float64 `json:"total_fpts"`
	AvgPoints   float64 `json:"avg_fpts"`
}

// Ranking is the ordered output of one analysis for one position.
type Ranking struct {
	Metric       Metric          `json:"metric"`
	Position     models.Position `json:"position"`
	Considered   int             `json:"considered"`
	Entries      []Entry         `json:"entries"`
	Insufficient []Entry         `json:"insufficient"`
}

func newRanking(metric Metric, pos models.Position, considered int) Ranking {
	return Ranking{
		Metric:       metric,
		Position:     pos,
		Considered:   considered,
		Entries:      []Entry{},
		Insufficient: []Entry{},
	}
}

// Top returns at most n ranked entries; n ≤ 0 returns all of them.
func (r Ranking) Top(n int) []Entry {
	if n <= 0 || n >= len(r.Entries) {
		return r.Entries
	}
	return r.Entries[:n]
}

func newEntry(s *models.PlayerSeries) Entry {
	return Entry{
		Key:      s.Key,
		Player:   s.Player,
		Position: s.Position,
		Status:   models.StatusScored,
	}
}

func insufficient(e Entry, reason string) Entry {
	e.Status = models.StatusInsufficientData
	e.Reason = reason
	e.Score = 0
	return e
}

func assignRanks(entries []Entry) {
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

// Run dispatches one metric by name. leagueWeeks is only used by breakout.
func (e *Engine) Run(metric Metric, pos models.Position, series []models.PlayerSeries, leagueWeeks int) (Ranking, error) {
	switch metric {
	case MetricSeasonLeaders:
		return e.SeasonLeaders(pos, series), nil
	case MetricConsistency:
		return e.Consistency(pos, series), nil
	case MetricVolatility:
		return e.Volatility(pos, series), nil
	case MetricBreakout:
		return e.Breakout(pos, series, leagueWeeks), nil
	case MetricValue:
		return e.Value(pos, series), nil
	case MetricEmergingTrend:
		return e.EmergingTrend(pos, series), nil
	}
	return Ranking{}, fmt.Errorf("unknown metric %q", metric)
}
