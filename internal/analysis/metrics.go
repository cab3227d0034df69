package analysis

import (
	"fmt"
	"sort"

	"github.com/rewired-gh/fantasy-insights/internal/models"
)

// SeasonLeaders ranks every player by season fantasy points descending, then
// points per game descending, then identity ascending. Only aggregate fields
// are used, so every series is ranked.
func (e *Engine) SeasonLeaders(pos models.Position, series []models.PlayerSeries) Ranking {
	r := newRanking(MetricSeasonLeaders, pos, len(series))

	for i := range series {
		s := &series[i]
		entry := newEntry(s)
		entry.Score = s.Aggregate.TotalPoints
		entry.Season = &SeasonStats{
			TotalPoints: s.Aggregate.TotalPoints,
			PerGame:     s.Aggregate.PerGame,
			Games:       s.Aggregate.Games,
			RosterPct:   s.Aggregate.RosterPct,
			FromSeason:  s.Aggregate.FromSeason,
		}
		r.Entries = append(r.Entries, entry)
	}

	sort.SliceStable(r.Entries, func(i, j int) bool {
		a, b := r.Entries[i], r.Entries[j]
		if a.Season.TotalPoints != b.Season.TotalPoints {
			return a.Season.TotalPoints > b.Season.TotalPoints
		}
		if a.Season.PerGame != b.Season.PerGame {
			return a.Season.PerGame > b.Season.PerGame
		}
		return a.Key < b.Key
	})
	assignRanks(r.Entries)
	return r
}

// spread computes the weekly distribution for series-based metrics.
func spread(s *models.PlayerSeries) *SpreadStats {
	points := s.Points()
	lo, hi := MinMax(points)
	return &SpreadStats{
		Observations: len(points),
		Mean:         Mean(points),
		StdDev:       StdDev(points),
		Min:          lo,
		Max:          hi,
	}
}

// Consistency ranks players by clamp(1 − σ/μ, 0, 1) descending. Players with
// fewer than MinWeeksForConsistency observations, or with μ ≤ 0, are reported
// as insufficient data rather than scored.
func (e *Engine) Consistency(pos models.Position, series []models.PlayerSeries) Ranking {
	r := newRanking(MetricConsistency, pos, len(series))

	for i := range series {
		s := &series[i]
		entry := newEntry(s)
		entry.Spread = spread(s)

		if entry.Spread.Observations < e.opts.MinWeeksForConsistency {
			r.Insufficient = append(r.Insufficient, insufficient(entry,
				fmt.Sprintf("%d weekly observations, need %d", entry.Spread.Observations, e.opts.MinWeeksForConsistency)))
			continue
		}
		score, ok := ConsistencyScore(entry.Spread.Mean, entry.Spread.StdDev)
		if !ok {
			r.Insufficient = append(r.Insufficient, insufficient(entry, "non-positive mean, consistency undefined"))
			continue
		}
		entry.Score = score
		r.Entries = append(r.Entries, entry)
	}

	sortByScore(r.Entries)
	assignRanks(r.Entries)
	log.Debug("consistency %s: scored=%d insufficient=%d", pos, len(r.Entries), len(r.Insufficient))
	return r
}

// Volatility ranks players by raw weekly σ descending, among players with at
// least MinWeeksForConsistency observations and μ > 0. It is independent of
// the consistency clamp.
func (e *Engine) Volatility(pos models.Position, series []models.PlayerSeries) Ranking {
	r := newRanking(MetricVolatility, pos, len(series))

	for i := range series {
		s := &series[i]
		entry := newEntry(s)
		entry.Spread = spread(s)

		if entry.Spread.Observations < e.opts.MinWeeksForConsistency {
			r.Insufficient = append(r.Insufficient, insufficient(entry,
				fmt.Sprintf("%d weekly observations, need %d", entry.Spread.Observations, e.opts.MinWeeksForConsistency)))
			continue
		}
		if entry.Spread.Mean <= 0 {
			r.Insufficient = append(r.Insufficient, insufficient(entry, "non-positive mean"))
			continue
		}
		entry.Score = entry.Spread.StdDev
		r.Entries = append(r.Entries, entry)
	}

	sortByScore(r.Entries)
	assignRanks(r.Entries)
	log.Debug("volatility %s: scored=%d insufficient=%d", pos, len(r.Entries), len(r.Insufficient))
	return r
}

// SplitWeek returns the last week of the first half for a league season of
// leagueWeeks weeks: ⌈leagueWeeks/2⌉.
func SplitWeek(leagueWeeks int) int {
	return (leagueWeeks + 1) / 2
}

// Breakout compares each player's mean over the second half of the league
// season with the first half. Halves are league-wide (weeks 1..⌈N/2⌉ and the
// rest), not per player; a player needs at least one observation in each half.
// A positive second half after a zero first half is an infinite improvement and
// ranks above every finite one. Only improvements strictly above
// BreakoutThresholdPct are ranked.
func (e *Engine) Breakout(pos models.Position, series []models.PlayerSeries, leagueWeeks int) Ranking {
	r := newRanking(MetricBreakout, pos, len(series))
	split := SplitWeek(leagueWeeks)

	for i := range series {
		s := &series[i]
		entry := newEntry(s)

		var first, second []float64
		for _, o := range s.Observations {
			switch {
			case o.Week <= split:
				first = append(first, o.Points)
			case o.Week <= leagueWeeks:
				second = append(second, o.Points)
			}
		}
		stats := &BreakoutStats{
			LeagueWeeks:     leagueWeeks,
			SplitWeek:       split,
			FirstHalfWeeks:  len(first),
			SecondHalfWeeks: len(second),
			FirstHalfMean:   Mean(first),
			SecondHalfMean:  Mean(second),
		}
		entry.Breakout = stats

		if leagueWeeks < 2 {
			r.Insufficient = append(r.Insufficient, insufficient(entry, "season too short to split into halves"))
			continue
		}
		if len(first) == 0 || len(second) == 0 {
			r.Insufficient = append(r.Insufficient, insufficient(entry, "no observations in one half of the season"))
			continue
		}

		stats.ImprovementPct, stats.Infinite = ImprovementPct(stats.FirstHalfMean, stats.SecondHalfMean)
		if stats.Infinite {
			entry.Status = models.StatusInfiniteImprovement
			r.Entries = append(r.Entries, entry)
			continue
		}
		if stats.ImprovementPct <= e.opts.BreakoutThresholdPct {
			continue
		}
		entry.Score = stats.ImprovementPct
		r.Entries = append(r.Entries, entry)
	}

	sort.SliceStable(r.Entries, func(i, j int) bool {
		a, b := r.Entries[i], r.Entries[j]
		if a.Breakout.Infinite != b.Breakout.Infinite {
			return a.Breakout.Infinite
		}
		if a.Breakout.Infinite {
			if a.Breakout.SecondHalfMean != b.Breakout.SecondHalfMean {
				return a.Breakout.SecondHalfMean > b.Breakout.SecondHalfMean
			}
			return a.Key < b.Key
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Key < b.Key
	})
	assignRanks(r.Entries)
	log.Debug("breakout %s: league_weeks=%d split=%d ranked=%d insufficient=%d",
		pos, leagueWeeks, split, len(r.Entries), len(r.Insufficient))
	return r
}

// Value ranks players by points per game divided by roster percentage.
// Roster percentage is floored at RosterPctFloor: effectively unrostered
// players are scored as if owned at the floor instead of dividing by ~0.
// Players with no games played have no defined points per game.
func (e *Engine) Value(pos models.Position, series []models.PlayerSeries) Ranking {
	r := newRanking(MetricValue, pos, len(series))

	for i := range series {
		s := &series[i]
		entry := newEntry(s)
		eff, floored := EffectiveRosterPct(s.Aggregate.RosterPct, e.opts.RosterPctFloor)
		entry.Value = &ValueStats{
			PerGame:            s.Aggregate.PerGame,
			Games:              s.Aggregate.Games,
			RosterPct:          s.Aggregate.RosterPct,
			EffectiveRosterPct: eff,
			FloorApplied:       floored,
		}

		if s.Aggregate.Games <= 0 {
			r.Insufficient = append(r.Insufficient, insufficient(entry, "no games played"))
			continue
		}
		entry.Score = s.Aggregate.PerGame / eff
		r.Entries = append(r.Entries, entry)
	}

	sortByScore(r.Entries)
	assignRanks(r.Entries)
	return r
}

// EmergingTrend fits an OLS slope of points against week over each player's
// last TrendWindowWeeks observations. Players whose slope exceeds
// MinTrendMagnitude are ranked by slope; fewer than two points in the window
// leaves the slope undefined.
func (e *Engine) EmergingTrend(pos models.Position, series []models.PlayerSeries) Ranking {
	r := newRanking(MetricEmergingTrend, pos, len(series))

	for i := range series {
		s := &series[i]
		entry := newEntry(s)

		window := s.Observations
		if len(window) > e.opts.TrendWindowWeeks {
			window = window[len(window)-e.opts.TrendWindowWeeks:]
		}
		stats := &TrendStats{
			Weeks:  make([]int, len(window)),
			Points: make([]float64, len(window)),
		}
		xs := make([]float64, len(window))
		for j, o := range window {
			stats.Weeks[j] = o.Week
			stats.Points[j] = o.Points
			xs[j] = float64(o.Week)
		}
		stats.WindowMean = Mean(stats.Points)
		entry.Trend = stats

		slope, ok := Slope(xs, stats.Points)
		if !ok {
			r.Insufficient = append(r.Insufficient, insufficient(entry,
				fmt.Sprintf("%d observations in trailing window, need 2", len(window))))
			continue
		}
		stats.Slope = slope
		stats.TrendingUp = slope > e.opts.MinTrendMagnitude
		if !stats.TrendingUp {
			continue
		}
		entry.Score = slope
		r.Entries = append(r.Entries, entry)
	}

	sortByScore(r.Entries)
	assignRanks(r.Entries)
	return r
}

// sortByScore orders entries by score descending with identity as tie-break.
func sortByScore(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Key < entries[j].Key
	})
}
