// Package report renders analysis results for people: aligned text tables,
// JSON documents and XLSX workbooks.
package report

import (
	"fmt"
	"strconv"

	"github.com/rewired-gh/fantasy-insights/internal/analysis"
)

// Header returns the detail column titles shown for a metric.
func Header(m analysis.Metric) []string {
	switch m {
	case analysis.MetricSeasonLeaders, analysis.MetricTopPerformers:
		return []string{"FPTS", "FPTS/G", "G", "ROST"}
	case analysis.MetricConsistency:
		return []string{"Score", "Mean", "StdDev", "Weeks"}
	case analysis.MetricVolatility:
		return []string{"StdDev", "Mean", "Min", "Max"}
	case analysis.MetricBreakout:
		return []string{"Change", "1st Half", "2nd Half", "Split"}
	case analysis.MetricValue:
		return []string{"Value", "FPTS/G", "ROST", "Floored"}
	case analysis.MetricEmergingTrend:
		return []string{"Slope", "Window Avg", "Weeks"}
	case analysis.MetricRangeLeaders:
		return []string{"FPTS", "Avg", "Weeks"}
	}
	return []string{"Score"}
}

// Columns returns the detail cells of an entry, matching Header.
func Columns(m analysis.Metric, e analysis.Entry) []string {
	switch {
	case e.Season != nil:
		s := e.Season
		return []string{num(s.TotalPoints), num(s.PerGame), strconv.Itoa(s.Games), pct(s.RosterPct)}
	case e.Spread != nil && m == analysis.MetricConsistency:
		s := e.Spread
		return []string{fmt.Sprintf("%.3f", e.Score), num(s.Mean), num(s.StdDev), strconv.Itoa(s.Observations)}
	case e.Spread != nil:
		s := e.Spread
		return []string{num(s.StdDev), num(s.Mean), num(s.Min), num(s.Max)}
	case e.Breakout != nil:
		b := e.Breakout
		return []string{Improvement(b), num(b.FirstHalfMean), num(b.SecondHalfMean), fmt.Sprintf("wk %d/%d", b.SplitWeek, b.LeagueWeeks)}
	case e.Value != nil:
		v := e.Value
		floored := ""
		if v.FloorApplied {
			floored = "yes"
		}
		return []string{num(e.Score), num(v.PerGame), pct(v.RosterPct), floored}
	case e.Trend != nil:
		t := e.Trend
		return []string{fmt.Sprintf("%+.2f", t.Slope), num(t.WindowMean), weekSpan(t.Weeks)}
	case e.Range != nil:
		r := e.Range
		return []string{num(r.TotalPoints), num(r.AvgPoints), strconv.Itoa(r.WeeksPlayed)}
	}
	return []string{num(e.Score)}
}

// Improvement formats a breakout change, showing "new" for an improvement
// from a zero first half.
func Improvement(b *analysis.BreakoutStats) string {
	if b.Infinite {
		return "new"
	}
	return fmt.Sprintf("%+.1f%%", b.ImprovementPct)
}

// Title is the display name of a metric.
func Title(m analysis.Metric) string {
	switch m {
	case analysis.MetricSeasonLeaders:
		return "Season Leaders"
	case analysis.MetricConsistency:
		return "Most Consistent"
	case analysis.MetricVolatility:
		return "Most Volatile"
	case analysis.MetricBreakout:
		return "Breakout Candidates"
	case analysis.MetricValue:
		return "Best Value"
	case analysis.MetricEmergingTrend:
		return "Trending Up"
	case analysis.MetricRangeLeaders:
		return "Range Leaders"
	case analysis.MetricTopPerformers:
		return "Top Performers"
	}
	return string(m)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

func weekSpan(weeks []int) string {
	if len(weeks) == 0 {
		return ""
	}
	if len(weeks) == 1 {
		return strconv.Itoa(weeks[0])
	}
	return fmt.Sprintf("%d-%d", weeks[0], weeks[len(weeks)-1])
}
