// Package ingest turns exported weekly stat tables into raw rows for the
// record store. It understands the export layout of one directory per week
// ("Week 1", "Week 2", ...) plus an optional "Full Season" directory, each
// holding one CSV or XLSX file per position.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"

	"github.com/rewired-gh/fantasy-insights/internal/logger"
	"github.com/rewired-gh/fantasy-insights/internal/models"
	"github.com/rewired-gh/fantasy-insights/internal/storage"
)

var log = logger.Named("ingest")

// Core column headers. Any other numeric column is kept in RawRow.Stats.
const (
	ColPlayer  = "Player"
	ColTeam    = "Team"
	ColPoints  = "FPTS"
	ColPerGame = "FPTS/G"
	ColGames   = "G"
	ColRoster  = "ROST"
)

// SeasonDirName is the directory holding the full-season aggregate tables.
const SeasonDirName = "Full Season"

var weekDirPattern = regexp.MustCompile(`(?i)^week\s*(\d+)$`)

// Table is one discovered file for a position and week.
type Table struct {
	Position models.Position
	Week     int // models.FullSeasonWeek for the season table
	Path     string
}

// Discover walks the top level of dir and returns every table it finds for
// the given positions, ordered by week (season table first) then position.
func Discover(dir string, positions []models.Position) ([]Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data dir: %w", err)
	}

	var tables []Table
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		week, ok := weekFromDir(entry.Name())
		if !ok {
			log.Debug("Ignoring directory %s", entry.Name())
			continue
		}
		sub := filepath.Join(dir, entry.Name())
		files, err := os.ReadDir(sub)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", sub, err)
		}
		for _, pos := range positions {
			if name, ok := positionFile(files, pos); ok {
				tables = append(tables, Table{Position: pos, Week: week, Path: filepath.Join(sub, name)})
			}
		}
	}

	order := make(map[models.Position]int, len(positions))
	for i, p := range positions {
		order[p] = i
	}
	sort.Slice(tables, func(i, j int) bool {
		if tables[i].Week != tables[j].Week {
			return tables[i].Week < tables[j].Week
		}
		return order[tables[i].Position] < order[tables[j].Position]
	})
	return tables, nil
}

func weekFromDir(name string) (int, bool) {
	if strings.EqualFold(strings.TrimSpace(name), SeasonDirName) {
		return models.FullSeasonWeek, true
	}
	m := weekDirPattern.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return 0, false
	}
	week, err := strconv.Atoi(m[1])
	if err != nil || week < 1 {
		return 0, false
	}
	return week, true
}

// positionFile picks the first file (by name) with a supported extension
// whose name carries the position code as a separate token, so "TE" matches
// "Stats_TE.csv" but not "Totes.csv".
func positionFile(files []os.DirEntry, pos models.Position) (string, bool) {
	var names []string
	for _, f := range files {
		if f.IsDir() || !supported(f.Name()) {
			continue
		}
		if hasToken(f.Name(), string(pos)) {
			names = append(names, f.Name())
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return names[0], true
}

func hasToken(name, token string) bool {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	fields := strings.FieldsFunc(strings.ToUpper(stem), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, f := range fields {
		if f == token {
			return true
		}
	}
	return false
}

func supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// ReadFile parses a CSV or XLSX table into raw rows.
func ReadFile(path string) ([]models.RawRow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		return ReadCSV(f)
	case ".xlsx":
		return readXLSX(path)
	}
	return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
}

// ReadCSV parses a CSV table with a header row.
func ReadCSV(r io.Reader) ([]models.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return parseRows(records)
}

func readXLSX(path string) ([]models.RawRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return parseRows(rows)
}

// parseRows maps a header row plus data rows to RawRows. Blank rows are
// dropped; a row with a player but no parseable FPTS is kept with FPTS unset
// so the store reports it as malformed.
func parseRows(records [][]string) ([]models.RawRow, error) {
	if len(records) == 0 {
		return nil, errors.New("table is empty")
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = cleanHeader(h)
	}
	playerCol := indexOf(header, ColPlayer)
	if playerCol < 0 {
		return nil, fmt.Errorf("missing %s column", ColPlayer)
	}

	rows := make([]models.RawRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		var row models.RawRow
		for i, cell := range rec {
			if i >= len(header) {
				break
			}
			cell = strings.TrimSpace(cell)
			switch header[i] {
			case ColPlayer:
				row.Player = cell
			case ColTeam:
				row.Team = cell
			case ColPoints:
				row.FPTS = parseFloat(cell)
			case ColPerGame:
				row.FPTSPerGame = parseFloat(cell)
			case ColGames:
				if v := parseFloat(cell); v != nil {
					g := int(*v)
					row.Games = &g
				}
			case ColRoster:
				row.RosterPct = parseFloat(strings.TrimSuffix(cell, "%"))
			case "", "#", "Rank":
			default:
				if v := parseFloat(cell); v != nil {
					if row.Stats == nil {
						row.Stats = make(map[string]float64)
					}
					row.Stats[header[i]] = *v
				}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cleanHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.TrimSpace(strings.ReplaceAll(h, `"`, ""))
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseFloat(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// LoadDir discovers every table under dir and loads it into the store.
// A table that cannot be read or loaded (for example a week past the store's
// cap) is logged and skipped; the remaining tables still load.
func LoadDir(store *storage.Store, dir string, positions []models.Position) ([]storage.LoadResult, error) {
	tables, err := Discover(dir, positions)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no position tables found under %s", dir)
	}

	results := make([]storage.LoadResult, 0, len(tables))
	for _, t := range tables {
		rows, err := ReadFile(t.Path)
		if err != nil {
			log.Error("Failed to read %s: %v", t.Path, err)
			continue
		}
		res, err := store.Load(t.Position, t.Week, rows)
		if err != nil {
			log.Error("Failed to load %s: %v", t.Path, err)
			continue
		}
		log.Info("Loaded %s week %d: %d accepted, %d skipped", t.Position, t.Week, res.Accepted, res.Skipped)
		results = append(results, res)
	}
	return results, nil
}
