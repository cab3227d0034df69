// Package storage provides the thread-safe in-memory weekly record store.
// It holds one table per (position, week) pair plus an optional full-season
// table per position, and hands out immutable snapshots for analysis.
//
// The store is purely additive: rows are never mutated after insertion and a
// duplicate (player, position, week) replaces the previous row in place, so
// reruns with corrected data do not create duplicates.
package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rewired-gh/fantasy-insights/internal/logger"
	"github.com/rewired-gh/fantasy-insights/internal/models"
)

var log = logger.Named("storage")

// Store provides thread-safe in-memory storage of weekly records
type Store struct {
	data *table
	mu   sync.RWMutex

	// Configuration
	maxWeek int
}

// LoadResult summarises one Load batch.
type LoadResult struct {
	Position  models.Position
	Week      int
	Accepted  int
	Replaced  int
	Skipped   int
	Malformed []models.MalformedRecordError
}

// New creates an empty Store. maxWeek caps accepted week indexes; 0 disables the cap.
func New(maxWeek int) *Store {
	return &Store{
		data:    newTable(),
		maxWeek: maxWeek,
	}
}

// Load appends a batch of rows for one position and week. Rows that fail
// validation are skipped and reported; the rest of the batch is still stored.
// An error is returned only for an invalid position or week.
func (s *Store) Load(pos models.Position, week int, rows []models.RawRow) (LoadResult, error) {
	if !pos.Valid() {
		return LoadResult{}, fmt.Errorf("invalid position %q", pos)
	}
	if week < models.FullSeasonWeek || (s.maxWeek > 0 && week > s.maxWeek) {
		return LoadResult{}, fmt.Errorf("invalid week %d for %s", week, pos)
	}

	result := LoadResult{Position: pos, Week: week}
	records := make([]models.WeeklyRecord, 0, len(rows))
	for i := range rows {
		if err := rows[i].Validate(); err != nil {
			result.Skipped++
			result.Malformed = append(result.Malformed, models.MalformedRecordError{
				Position: pos,
				Week:     week,
				Row:      i,
				Player:   rows[i].Player,
				Err:      err,
			})
			continue
		}
		records = append(records, models.NewWeeklyRecord(pos, week, rows[i]))
	}

	s.mu.Lock()
	for _, rec := range records {
		if s.data.put(rec) {
			result.Replaced++
		} else {
			result.Accepted++
		}
	}
	s.mu.Unlock()

	for _, m := range result.Malformed {
		log.Warn("skipping row: %v", m)
	}
	log.Debug("loaded %s week %d: accepted=%d replaced=%d skipped=%d",
		pos, week, result.Accepted, result.Replaced, result.Skipped)

	return result, nil
}

// Query returns the weekly records of a position within the week range,
// ordered by week and then by ingestion order.
func (s *Store) Query(pos models.Position, r models.WeekRange) []models.WeeklyRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.query(pos, r)
}

// Snapshot returns an immutable copy of the current contents.
// Analyses must run against a snapshot, never against the live store.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Snapshot{data: s.data.clone()}
}

// Snapshot is a frozen view of the store. It is safe for concurrent readers.
type Snapshot struct {
	data *table
}

// Query returns the weekly records of a position within the week range.
func (sn *Snapshot) Query(pos models.Position, r models.WeekRange) []models.WeeklyRecord {
	return sn.data.query(pos, r)
}

// Week returns the records of a single week, or the full-season table for FullSeasonWeek.
func (sn *Snapshot) Week(pos models.Position, week int) []models.WeeklyRecord {
	wt := sn.data.get(pos, week)
	if wt == nil {
		return nil
	}
	out := make([]models.WeeklyRecord, len(wt.rows))
	for i, rec := range wt.rows {
		out[i] = cloneRecord(rec)
	}
	return out
}

// SeasonRows returns the full-season aggregate table for a position.
func (sn *Snapshot) SeasonRows(pos models.Position) []models.WeeklyRecord {
	return sn.Week(pos, models.FullSeasonWeek)
}

// Weeks returns the regular weeks loaded for a position, ascending.
func (sn *Snapshot) Weeks(pos models.Position) []int {
	return sn.data.weeks(pos)
}

// LeagueWeekCount returns the highest regular week index loaded for any
// position. Gaps such as a missing export do not reduce it.
func (sn *Snapshot) LeagueWeekCount() int {
	n := 0
	for pos := range sn.data.tables {
		if weeks := sn.data.weeks(pos); len(weeks) > 0 && weeks[len(weeks)-1] > n {
			n = weeks[len(weeks)-1]
		}
	}
	return n
}

// Positions returns the positions that have any table loaded, in display order.
func (sn *Snapshot) Positions() []models.Position {
	var out []models.Position
	for _, pos := range models.AllPositions {
		if len(sn.data.tables[pos]) > 0 {
			out = append(out, pos)
		}
	}
	return out
}

type weekTable struct {
	rows  []models.WeeklyRecord
	index map[string]int // identity key -> position in rows
}

type table struct {
	tables map[models.Position]map[int]*weekTable
	seq    map[models.Position]int
}

func newTable() *table {
	return &table{
		tables: make(map[models.Position]map[int]*weekTable),
		seq:    make(map[models.Position]int),
	}
}

func (t *table) get(pos models.Position, week int) *weekTable {
	return t.tables[pos][week]
}

// put stores rec and reports whether it replaced an existing row.
// A replaced row keeps its original ingestion sequence.
func (t *table) put(rec models.WeeklyRecord) bool {
	weeks, ok := t.tables[rec.Position]
	if !ok {
		weeks = make(map[int]*weekTable)
		t.tables[rec.Position] = weeks
	}
	wt, ok := weeks[rec.Week]
	if !ok {
		wt = &weekTable{index: make(map[string]int)}
		weeks[rec.Week] = wt
	}

	if i, exists := wt.index[rec.Key]; exists {
		rec.Seq = wt.rows[i].Seq
		wt.rows[i] = rec
		return true
	}

	rec.Seq = t.seq[rec.Position]
	t.seq[rec.Position]++
	wt.index[rec.Key] = len(wt.rows)
	wt.rows = append(wt.rows, rec)
	return false
}

func (t *table) weeks(pos models.Position) []int {
	var out []int
	for week := range t.tables[pos] {
		if week != models.FullSeasonWeek {
			out = append(out, week)
		}
	}
	sort.Ints(out)
	return out
}

func (t *table) query(pos models.Position, r models.WeekRange) []models.WeeklyRecord {
	var out []models.WeeklyRecord
	for _, week := range t.weeks(pos) {
		if !r.Contains(week) {
			continue
		}
		for _, rec := range t.tables[pos][week].rows {
			out = append(out, cloneRecord(rec))
		}
	}
	return out
}

func (t *table) clone() *table {
	c := newTable()
	for pos, weeks := range t.tables {
		cw := make(map[int]*weekTable, len(weeks))
		for week, wt := range weeks {
			rows := make([]models.WeeklyRecord, len(wt.rows))
			copy(rows, wt.rows)
			index := make(map[string]int, len(wt.index))
			for k, v := range wt.index {
				index[k] = v
			}
			cw[week] = &weekTable{rows: rows, index: index}
		}
		c.tables[pos] = cw
	}
	for pos, n := range t.seq {
		c.seq[pos] = n
	}
	return c
}

// cloneRecord copies the opaque stats map so callers cannot reach stored state.
func cloneRecord(rec models.WeeklyRecord) models.WeeklyRecord {
	if rec.Stats != nil {
		stats := make(map[string]float64, len(rec.Stats))
		for k, v := range rec.Stats {
			stats[k] = v
		}
		rec.Stats = stats
	}
	return rec
}
