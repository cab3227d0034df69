// Package series merges weekly records into per-player fantasy-point series.
//
// Series are derived fresh from a storage snapshot on every call; nothing is
// cached or mutated, so a series always reflects the full snapshot.
package series

import (
	"sort"
	"strings"

	"github.com/rewired-gh/fantasy-insights/internal/models"
	"github.com/rewired-gh/fantasy-insights/internal/storage"
)

// Build returns one PlayerSeries per distinct player seen for the position,
// in order of first ingestion. Weekly observations are sparse and ascending.
// Players present only in the full-season table get an empty observation list.
func Build(snap *storage.Snapshot, pos models.Position) []models.PlayerSeries {
	type entry struct {
		series   models.PlayerSeries
		firstSeq int
		games    int
		lastWeek int
		lastRost float64
		season   *models.WeeklyRecord
	}

	byKey := make(map[string]*entry)
	lookup := func(rec models.WeeklyRecord) *entry {
		e, ok := byKey[rec.Key]
		if !ok {
			e = &entry{
				series: models.PlayerSeries{
					Key:          rec.Key,
					Player:       rec.Player,
					Position:     pos,
					Observations: []models.Observation{},
				},
				firstSeq: rec.Seq,
			}
			byKey[rec.Key] = e
		}
		if rec.Seq < e.firstSeq {
			e.firstSeq = rec.Seq
			e.series.Player = rec.Player
		}
		return e
	}

	// Query is week-ordered, so observations come out ascending.
	for _, rec := range snap.Query(pos, models.AllWeeks) {
		e := lookup(rec)
		e.series.Observations = append(e.series.Observations, models.Observation{Week: rec.Week, Points: rec.Points})
		e.series.Aggregate.TotalPoints += rec.Points
		e.games += rec.Games
		if rec.Week >= e.lastWeek {
			e.lastWeek = rec.Week
			e.lastRost = rec.RosterPct
		}
	}

	for _, rec := range snap.SeasonRows(pos) {
		lookup(rec).season = &rec
	}

	out := make([]models.PlayerSeries, 0, len(byKey))
	order := make([]*entry, 0, len(byKey))
	for _, e := range byKey {
		order = append(order, e)
	}
	sort.Slice(order, func(i, j int) bool {
		return order[i].firstSeq < order[j].firstSeq
	})

	for _, e := range order {
		e.series.Aggregate = aggregate(e.series.Aggregate.TotalPoints, e.games, e.lastRost, e.season)
		out = append(out, e.series)
	}
	return out
}

// BuildAll builds series for every position present in the snapshot.
func BuildAll(snap *storage.Snapshot) map[models.Position][]models.PlayerSeries {
	out := make(map[models.Position][]models.PlayerSeries)
	for _, pos := range snap.Positions() {
		out[pos] = Build(snap, pos)
	}
	return out
}

// Find returns the series of every player whose display name contains query,
// ignoring case, across the given positions in order. An empty query matches
// nothing.
func Find(all map[models.Position][]models.PlayerSeries, positions []models.Position, query string) []models.PlayerSeries {
	q := strings.ToLower(models.CleanName(query))
	if q == "" {
		return nil
	}
	var out []models.PlayerSeries
	for _, pos := range positions {
		for _, s := range all[pos] {
			if strings.Contains(strings.ToLower(s.Player), q) {
				out = append(out, s)
			}
		}
	}
	return out
}

// aggregate prefers the full-season row and falls back to weekly totals.
func aggregate(weeklyTotal float64, weeklyGames int, lastRost float64, season *models.WeeklyRecord) models.Aggregate {
	if season != nil {
		return models.Aggregate{
			TotalPoints: season.Points,
			PerGame:     season.PerGame,
			Games:       season.Games,
			RosterPct:   season.RosterPct,
			FromSeason:  true,
		}
	}

	agg := models.Aggregate{
		TotalPoints: weeklyTotal,
		Games:       weeklyGames,
		RosterPct:   lastRost,
	}
	if weeklyGames > 0 {
		agg.PerGame = weeklyTotal / float64(weeklyGames)
	}
	return agg
}
