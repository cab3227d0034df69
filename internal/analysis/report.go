package analysis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rewired-gh/fantasy-insights/internal/models"
	"github.com/rewired-gh/fantasy-insights/internal/series"
	"github.com/rewired-gh/fantasy-insights/internal/storage"
)

// PositionReport holds every season analysis for one position.
type PositionReport struct {
	Position models.Position `json:"position"`
	Players  int             `json:"players"`
	Rankings []Ranking       `json:"rankings"` // in Metrics order
}

// Ranking returns the ranking for a metric, if present.
func (p PositionReport) Ranking(m Metric) (Ranking, bool) {
	for _, r := range p.Rankings {
		if r.Metric == m {
			return r, true
		}
	}
	return Ranking{}, false
}

// Report is the result of one full analysis run over a snapshot.
type Report struct {
	ID          string           `json:"id"`
	GeneratedAt time.Time        `json:"generated_at"`
	LeagueWeeks int              `json:"league_weeks"`
	Options     Options          `json:"options"`
	Positions   []PositionReport `json:"positions"`
}

// Position returns the report for one position, if present.
func (r *Report) Position(pos models.Position) (PositionReport, bool) {
	for _, p := range r.Positions {
		if p.Position == pos {
			return p, true
		}
	}
	return PositionReport{}, false
}

// RunAll runs every season analysis for the given positions (all loaded
// positions when none are given) against an immutable snapshot. Analyses are
// independent, so the position × metric grid runs concurrently; each
// goroutine writes only its own result slot.
func (e *Engine) RunAll(ctx context.Context, snap *storage.Snapshot, positions ...models.Position) (*Report, error) {
	if len(positions) == 0 {
		positions = snap.Positions()
	}
	for _, pos := range positions {
		if !pos.Valid() {
			return nil, fmt.Errorf("invalid position %q", pos)
		}
	}

	report := &Report{
		ID:          uuid.New().String(),
		GeneratedAt: time.Now(),
		LeagueWeeks: snap.LeagueWeekCount(),
		Options:     e.opts,
		Positions:   make([]PositionReport, len(positions)),
	}

	g, ctx := errgroup.WithContext(ctx)
	for pi, pos := range positions {
		built := series.Build(snap, pos)
		report.Positions[pi] = PositionReport{
			Position: pos,
			Players:  len(built),
			Rankings: make([]Ranking, len(Metrics)),
		}

		for mi, metric := range Metrics {
			slot := &report.Positions[pi].Rankings[mi]
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				r, err := e.Run(metric, pos, built, report.LeagueWeeks)
				if err != nil {
					return fmt.Errorf("%s %s: %w", pos, metric, err)
				}
				*slot = r
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info("analysis run %s: %d positions, %d league weeks", report.ID, len(positions), report.LeagueWeeks)
	return report, nil
}

// TopPerformers returns the top n rows by fantasy points for one week, or for
// the full-season table when week is models.FullSeasonWeek.
func (e *Engine) TopPerformers(snap *storage.Snapshot, pos models.Position, week int, n int) Ranking {
	rows := snap.Week(pos, week)
	r := newRanking(MetricTopPerformers, pos, len(rows))

	for _, rec := range rows {
		r.Entries = append(r.Entries, Entry{
			Key:      rec.Key,
			Player:   rec.Player,
			Position: pos,
			Score:    rec.Points,
			Status:   models.StatusScored,
			Season: &SeasonStats{
				TotalPoints: rec.Points,
				PerGame:     rec.PerGame,
				Games:       rec.Games,
				RosterPct:   rec.RosterPct,
				FromSeason:  week == models.FullSeasonWeek,
			},
		})
	}

	sortByScore(r.Entries)
	r.Entries = r.Top(n)
	assignRanks(r.Entries)
	return r
}

// WeeklySummary returns the top n performers of one week for every loaded position.
func (e *Engine) WeeklySummary(snap *storage.Snapshot, week int, n int) []Ranking {
	var out []Ranking
	for _, pos := range snap.Positions() {
		r := e.TopPerformers(snap, pos, week, n)
		if r.Considered == 0 {
			continue
		}
		out = append(out, r)
	}
	return out
}

// RangeLeaders aggregates weekly rows inside a week range (total points,
// average per week played, weeks played) and ranks by total points, then
// average, then identity.
func (e *Engine) RangeLeaders(snap *storage.Snapshot, pos models.Position, wr models.WeekRange) Ranking {
	type acc struct {
		entry Entry
		stats RangeStats
	}
	byKey := make(map[string]*acc)
	var order []string

	for _, rec := range snap.Query(pos, wr) {
		a, ok := byKey[rec.Key]
		if !ok {
			a = &acc{
				entry: Entry{Key: rec.Key, Player: rec.Player, Position: pos, Status: models.StatusScored},
				stats: RangeStats{From: wr.From, To: wr.To},
			}
			byKey[rec.Key] = a
			order = append(order, rec.Key)
		}
		a.stats.WeeksPlayed++
		a.stats.TotalPoints += rec.Points
	}

	r := newRanking(MetricRangeLeaders, pos, len(order))
	for _, key := range order {
		a := byKey[key]
		a.stats.AvgPoints = a.stats.TotalPoints / float64(a.stats.WeeksPlayed)
		stats := a.stats
		a.entry.Range = &stats
		a.entry.Score = stats.TotalPoints
		r.Entries = append(r.Entries, a.entry)
	}

	sort.SliceStable(r.Entries, func(i, j int) bool {
		a, b := r.Entries[i], r.Entries[j]
		if a.Range.TotalPoints != b.Range.TotalPoints {
			return a.Range.TotalPoints > b.Range.TotalPoints
		}
		if a.Range.AvgPoints != b.Range.AvgPoints {
			return a.Range.AvgPoints > b.Range.AvgPoints
		}
		return a.Key < b.Key
	})
	assignRanks(r.Entries)
	return r
}
