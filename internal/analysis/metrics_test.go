package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/fantasy-insights/internal/models"
)

// weekly builds a series with observations in weeks 1..len(points).
func weekly(key string, points ...float64) models.PlayerSeries {
	obs := make([]models.Observation, len(points))
	var total float64
	for i, p := range points {
		obs[i] = models.Observation{Week: i + 1, Points: p}
		total += p
	}
	s := models.PlayerSeries{Key: key, Player: key, Position: models.WR, Observations: obs}
	s.Aggregate = models.Aggregate{TotalPoints: total, Games: len(points), RosterPct: 50}
	if len(points) > 0 {
		s.Aggregate.PerGame = total / float64(len(points))
	}
	return s
}

// sparse builds a series from week/points pairs.
func sparse(key string, pairs ...float64) models.PlayerSeries {
	var obs []models.Observation
	for i := 0; i+1 < len(pairs); i += 2 {
		obs = append(obs, models.Observation{Week: int(pairs[i]), Points: pairs[i+1]})
	}
	return models.PlayerSeries{Key: key, Player: key, Position: models.WR, Observations: obs}
}

func keys(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}

func findEntry(entries []Entry, key string) (Entry, bool) {
	for _, e := range entries {
		if e.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}

func TestSeasonLeaders_Ordering(t *testing.T) {
	e := New(DefaultOptions())
	series := []models.PlayerSeries{
		{Key: "a", Aggregate: models.Aggregate{TotalPoints: 100, PerGame: 10}},
		{Key: "c", Aggregate: models.Aggregate{TotalPoints: 100, PerGame: 12}},
		{Key: "b", Aggregate: models.Aggregate{TotalPoints: 100, PerGame: 12}},
		{Key: "d", Aggregate: models.Aggregate{TotalPoints: 140, PerGame: 8}},
		{Key: "e", Aggregate: models.Aggregate{TotalPoints: 0}},
	}

	r := e.SeasonLeaders(models.RB, series)
	assert.Equal(t, []string{"d", "b", "c", "a", "e"}, keys(r.Entries))
	assert.Equal(t, 5, r.Considered)
	assert.Empty(t, r.Insufficient)

	for i := 1; i < len(r.Entries); i++ {
		prev, cur := r.Entries[i-1], r.Entries[i]
		assert.GreaterOrEqual(t, prev.Season.TotalPoints, cur.Season.TotalPoints)
		if prev.Season.TotalPoints == cur.Season.TotalPoints {
			assert.GreaterOrEqual(t, prev.Season.PerGame, cur.Season.PerGame)
		}
		assert.Equal(t, i+1, cur.Rank)
	}
}

func TestConsistency(t *testing.T) {
	e := New(DefaultOptions())
	series := []models.PlayerSeries{
		weekly("steady", 10, 10, 10),
		weekly("zero", 0, 0, 0),
		weekly("boom-bust", 0, 0, 30),
		weekly("decent", 10, 15, 20),
		weekly("short", 25, 30),
	}

	r := e.Consistency(models.WR, series)

	t.Run("constant series scores exactly one", func(t *testing.T) {
		steady, ok := findEntry(r.Entries, "steady")
		require.True(t, ok)
		assert.Equal(t, 1.0, steady.Score)
		assert.Equal(t, 0.0, steady.Spread.StdDev)
		assert.Equal(t, 1, steady.Rank)
	})

	t.Run("zero mean is insufficient, not zero", func(t *testing.T) {
		_, ranked := findEntry(r.Entries, "zero")
		assert.False(t, ranked)
		zero, ok := findEntry(r.Insufficient, "zero")
		require.True(t, ok)
		assert.Equal(t, models.StatusInsufficientData, zero.Status)
		assert.NotEmpty(t, zero.Reason)
	})

	t.Run("sigma above mean clamps to zero", func(t *testing.T) {
		bb, ok := findEntry(r.Entries, "boom-bust")
		require.True(t, ok)
		assert.Equal(t, 0.0, bb.Score)
	})

	t.Run("fewer than three weeks reported separately", func(t *testing.T) {
		short, ok := findEntry(r.Insufficient, "short")
		require.True(t, ok)
		assert.Equal(t, 2, short.Spread.Observations)
	})

	t.Run("scores bounded and descending", func(t *testing.T) {
		for i, entry := range r.Entries {
			assert.GreaterOrEqual(t, entry.Score, 0.0)
			assert.LessOrEqual(t, entry.Score, 1.0)
			if i > 0 {
				assert.GreaterOrEqual(t, r.Entries[i-1].Score, entry.Score)
			}
		}
		assert.Equal(t, []string{"steady", "decent", "boom-bust"}, keys(r.Entries))
		assert.Equal(t, len(series), len(r.Entries)+len(r.Insufficient))
	})

	t.Run("supporting fields recompute the score", func(t *testing.T) {
		decent, ok := findEntry(r.Entries, "decent")
		require.True(t, ok)
		want := 1 - decent.Spread.StdDev/decent.Spread.Mean
		assert.InDelta(t, want, decent.Score, 1e-12)
	})
}

func TestConsistency_ConfigurableMinWeeks(t *testing.T) {
	opts := DefaultOptions()
	opts.MinWeeksForConsistency = 4
	r := New(opts).Consistency(models.WR, []models.PlayerSeries{weekly("three", 10, 11, 12)})
	assert.Empty(t, r.Entries)
	assert.Len(t, r.Insufficient, 1)
}

func TestVolatility(t *testing.T) {
	e := New(DefaultOptions())
	series := []models.PlayerSeries{
		weekly("star", 40, 10, 40, 10),
		weekly("steady", 10, 10, 10),
		weekly("moderate", 10, 20, 30),
		weekly("zero", 0, 0, 0),
		weekly("one-week", 22),
	}

	r := e.Volatility(models.WR, series)
	assert.Equal(t, []string{"star", "moderate", "steady"}, keys(r.Entries))

	star, _ := findEntry(r.Entries, "star")
	assert.Equal(t, 15.0, star.Score)
	assert.Equal(t, 25.0, star.Spread.Mean)

	moderate, _ := findEntry(r.Entries, "moderate")
	assert.InDelta(t, math.Sqrt(200.0/3.0), moderate.Score, 1e-12)

	_, ok := findEntry(r.Insufficient, "one-week")
	assert.True(t, ok, "single observation player must be reported as insufficient")
	_, ok = findEntry(r.Insufficient, "zero")
	assert.True(t, ok)
}

func TestBreakout(t *testing.T) {
	e := New(DefaultOptions())
	series := []models.PlayerSeries{
		sparse("late-bloomer", 1, 0, 2, 0, 3, 12, 4, 12),
		sparse("improver", 1, 10, 2, 10, 3, 30),
		sparse("slight", 1, 10, 4, 12),
		sparse("decliner", 1, 10, 2, 10, 3, 5, 4, 5),
		sparse("second-half-only", 3, 20, 4, 22),
		sparse("big-late", 2, 0, 4, 30),
	}

	r := e.Breakout(models.RB, series, 4)

	t.Run("infinite improvements rank first", func(t *testing.T) {
		assert.Equal(t, []string{"big-late", "late-bloomer", "improver", "slight"}, keys(r.Entries))
		lb, _ := findEntry(r.Entries, "late-bloomer")
		assert.Equal(t, models.StatusInfiniteImprovement, lb.Status)
		assert.True(t, lb.Breakout.Infinite)
		assert.Equal(t, 0.0, lb.Breakout.FirstHalfMean)
		assert.Equal(t, 12.0, lb.Breakout.SecondHalfMean)
		assert.False(t, math.IsInf(lb.Score, 0))
	})

	t.Run("finite improvement is a percentage of the first half", func(t *testing.T) {
		imp, _ := findEntry(r.Entries, "improver")
		assert.Equal(t, 200.0, imp.Score)
		assert.Equal(t, 2, imp.Breakout.SplitWeek)
		assert.Equal(t, 2, imp.Breakout.FirstHalfWeeks)
		assert.Equal(t, 1, imp.Breakout.SecondHalfWeeks)
	})

	t.Run("decline is considered but not ranked", func(t *testing.T) {
		_, ranked := findEntry(r.Entries, "decliner")
		_, insuff := findEntry(r.Insufficient, "decliner")
		assert.False(t, ranked)
		assert.False(t, insuff)
		assert.Equal(t, len(series), r.Considered)
	})

	t.Run("empty half is insufficient", func(t *testing.T) {
		entry, ok := findEntry(r.Insufficient, "second-half-only")
		require.True(t, ok)
		assert.Equal(t, 0, entry.Breakout.FirstHalfWeeks)
	})
}

func TestBreakout_Threshold(t *testing.T) {
	opts := DefaultOptions()
	opts.BreakoutThresholdPct = 50
	series := []models.PlayerSeries{
		sparse("improver", 1, 10, 2, 10, 3, 30),
		sparse("slight", 1, 10, 4, 12),
		sparse("from-zero", 1, 0, 4, 1),
	}

	r := New(opts).Breakout(models.RB, series, 4)
	assert.Equal(t, []string{"from-zero", "improver"}, keys(r.Entries))
}

func TestBreakout_OddSeasonSplit(t *testing.T) {
	// 5 league weeks: first half is weeks 1..3
	r := New(DefaultOptions()).Breakout(models.QB, []models.PlayerSeries{
		sparse("p", 3, 10, 4, 20),
	}, 5)
	require.Len(t, r.Entries, 1)
	assert.Equal(t, 3, r.Entries[0].Breakout.SplitWeek)
	assert.Equal(t, 100.0, r.Entries[0].Score)
}

func TestBreakout_SeasonTooShort(t *testing.T) {
	r := New(DefaultOptions()).Breakout(models.QB, []models.PlayerSeries{sparse("p", 1, 10)}, 1)
	assert.Empty(t, r.Entries)
	assert.Len(t, r.Insufficient, 1)
}

func TestValue(t *testing.T) {
	e := New(DefaultOptions())
	series := []models.PlayerSeries{
		{Key: "deep-sleeper", Aggregate: models.Aggregate{PerGame: 10, Games: 4, RosterPct: 0.05}},
		{Key: "owned", Aggregate: models.Aggregate{PerGame: 20, Games: 10, RosterPct: 99}},
		{Key: "waiver", Aggregate: models.Aggregate{PerGame: 12, Games: 8, RosterPct: 12}},
		{Key: "never-played", Aggregate: models.Aggregate{PerGame: 0, Games: 0, RosterPct: 0}},
	}

	r := e.Value(models.TE, series)
	assert.Equal(t, []string{"deep-sleeper", "waiver", "owned"}, keys(r.Entries))

	sleeper := r.Entries[0]
	assert.Equal(t, 100.0, sleeper.Score)
	assert.True(t, sleeper.Value.FloorApplied)
	assert.Equal(t, 0.1, sleeper.Value.EffectiveRosterPct)
	assert.Equal(t, 0.05, sleeper.Value.RosterPct)

	waiver, _ := findEntry(r.Entries, "waiver")
	assert.Equal(t, 1.0, waiver.Score)
	assert.False(t, waiver.Value.FloorApplied)

	_, ok := findEntry(r.Insufficient, "never-played")
	assert.True(t, ok)
}

func TestValue_CustomFloor(t *testing.T) {
	opts := DefaultOptions()
	opts.RosterPctFloor = 1
	r := New(opts).Value(models.TE, []models.PlayerSeries{
		{Key: "p", Aggregate: models.Aggregate{PerGame: 10, Games: 1, RosterPct: 0.5}},
	})
	require.Len(t, r.Entries, 1)
	assert.Equal(t, 10.0, r.Entries[0].Score)
}

func TestEmergingTrend(t *testing.T) {
	e := New(DefaultOptions())
	series := []models.PlayerSeries{
		weekly("riser", 5, 6, 10, 14, 18),
		weekly("faller", 20, 15, 10),
		sparse("sparse-riser", 2, 4, 5, 10),
		sparse("one-week", 7, 22),
		weekly("flat", 8, 8, 8),
	}

	r := e.EmergingTrend(models.WR, series)
	assert.Equal(t, []string{"riser", "sparse-riser"}, keys(r.Entries))

	riser := r.Entries[0]
	assert.InDelta(t, 4.0, riser.Score, 1e-12)
	assert.Equal(t, []int{3, 4, 5}, riser.Trend.Weeks)
	assert.Equal(t, []float64{10, 14, 18}, riser.Trend.Points)
	assert.True(t, riser.Trend.TrendingUp)

	sp := r.Entries[1]
	assert.InDelta(t, 2.0, sp.Score, 1e-12)

	_, ok := findEntry(r.Insufficient, "one-week")
	assert.True(t, ok)
	assert.Len(t, r.Insufficient, 1)
	assert.Equal(t, 5, r.Considered)
}

func TestEmergingTrend_MinMagnitude(t *testing.T) {
	opts := DefaultOptions()
	opts.MinTrendMagnitude = 3
	r := New(opts).EmergingTrend(models.WR, []models.PlayerSeries{
		weekly("riser", 10, 14, 18),
		sparse("sparse-riser", 2, 4, 5, 10),
	})
	assert.Equal(t, []string{"riser"}, keys(r.Entries))
}

// A player with a single weekly observation is excluded from series metrics
// but still ranked by the aggregate metrics.
func TestSingleObservationPlayer(t *testing.T) {
	e := New(DefaultOptions())
	one := weekly("one-week", 22)
	series := []models.PlayerSeries{one, weekly("regular", 10, 12, 14)}

	_, inLeaders := findEntry(e.SeasonLeaders(models.WR, series).Entries, "one-week")
	_, inValue := findEntry(e.Value(models.WR, series).Entries, "one-week")
	assert.True(t, inLeaders)
	assert.True(t, inValue)

	vol := e.Volatility(models.WR, series)
	_, inVol := findEntry(vol.Entries, "one-week")
	_, volInsufficient := findEntry(vol.Insufficient, "one-week")
	assert.False(t, inVol)
	assert.True(t, volInsufficient)

	trend := e.EmergingTrend(models.WR, series)
	_, inTrend := findEntry(trend.Entries, "one-week")
	_, trendInsufficient := findEntry(trend.Insufficient, "one-week")
	assert.False(t, inTrend)
	assert.True(t, trendInsufficient)
}

func TestAnalysesDoNotMutateSeries(t *testing.T) {
	e := New(DefaultOptions())
	series := []models.PlayerSeries{weekly("b", 1, 2, 3, 4), weekly("a", 4, 3, 2, 1)}
	before := []models.Observation{}
	before = append(before, series[0].Observations...)

	for _, m := range Metrics {
		_, err := e.Run(m, models.WR, series, 4)
		require.NoError(t, err)
	}

	assert.Equal(t, "b", series[0].Key)
	assert.Equal(t, before, series[0].Observations)
}

func TestRun_UnknownMetric(t *testing.T) {
	_, err := New(DefaultOptions()).Run(Metric("sleeper"), models.WR, nil, 0)
	assert.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	opts := New(Options{}).Options()
	assert.Equal(t, DefaultMinWeeksForConsistency, opts.MinWeeksForConsistency)
	assert.Equal(t, DefaultTrendWindowWeeks, opts.TrendWindowWeeks)
	assert.Equal(t, DefaultRosterPctFloor, opts.RosterPctFloor)
	assert.Equal(t, 0.0, opts.BreakoutThresholdPct)
}
