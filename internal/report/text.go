package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rewired-gh/fantasy-insights/internal/analysis"
)

// WriteText renders every ranking of a report as aligned tables, showing at
// most topN entries per ranking (all when topN ≤ 0).
func WriteText(w io.Writer, rep *analysis.Report, topN int) error {
	if _, err := fmt.Fprintf(w, "Fantasy insights %s (%d weeks)\n", rep.GeneratedAt.Format("2006-01-02 15:04"), rep.LeagueWeeks); err != nil {
		return err
	}
	for _, pr := range rep.Positions {
		if _, err := fmt.Fprintf(w, "\n== %s (%d players) ==\n", pr.Position, pr.Players); err != nil {
			return err
		}
		for _, r := range pr.Rankings {
			if err := WriteRanking(w, r, topN); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteRanking renders one ranking as a titled table followed by a count of
// players that could not be scored.
func WriteRanking(w io.Writer, r analysis.Ranking, topN int) error {
	if _, err := fmt.Fprintf(w, "\n%s - %s\n", r.Position, Title(r.Metric)); err != nil {
		return err
	}

	entries := r.Top(topN)
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "  (none)")
		if err == nil {
			err = writeInsufficient(w, r)
		}
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := append([]string{"#", "Player"}, Header(r.Metric)...)
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")
	for _, e := range entries {
		row := append([]string{strconv.Itoa(e.Rank), e.Player}, Columns(r.Metric, e)...)
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writeInsufficient(w, r)
}

func writeInsufficient(w io.Writer, r analysis.Ranking) error {
	if len(r.Insufficient) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "  %d of %d players had insufficient data\n", len(r.Insufficient), r.Considered)
	return err
}
