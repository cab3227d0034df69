package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/rewired-gh/fantasy-insights/internal/models"
	"github.com/rewired-gh/fantasy-insights/internal/storage"
)

const qbWeek1 = `"#","Player","Pos","FPTS","FPTS/G","G","ROST","PASS YDS"
"1","Josh Allen (BUF)","QB","30.2","30.2","1","99.8%","263"
"2","Jalen Hurts (PHI)","QB","22.0","22.0","1","99.1%","241"
"3","Nobody Points (NYJ)","QB","","","1","0.2%",""
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writeXLSX(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
}

func TestReadCSV(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(qbWeek1))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	allen := rows[0]
	assert.Equal(t, "Josh Allen (BUF)", allen.Player)
	require.NotNil(t, allen.FPTS)
	assert.InDelta(t, 30.2, *allen.FPTS, 1e-9)
	require.NotNil(t, allen.Games)
	assert.Equal(t, 1, *allen.Games)
	require.NotNil(t, allen.RosterPct)
	assert.InDelta(t, 99.8, *allen.RosterPct, 1e-9)
	assert.Equal(t, map[string]float64{"PASS YDS": 263}, allen.Stats)

	// blank FPTS stays unset so the store can reject it
	assert.Nil(t, rows[2].FPTS)
	assert.Error(t, rows[2].Validate())
}

func TestReadCSVHeaderCleanup(t *testing.T) {
	input := "\ufeff\" Player \",\" FPTS\"\nTravis Kelce (KC),\"1,234.5\"\n\n"
	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].FPTS)
	assert.InDelta(t, 1234.5, *rows[0].FPTS, 1e-9)
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no player column", "Name,FPTS\nA,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestReadFileXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "WR.xlsx")
	writeXLSX(t, path, [][]interface{}{
		{"Player", "FPTS", "G", "ROST", "REC"},
		{"Puka Nacua (LAR)", "24.5", "1", "88%", "9"},
	})

	rows, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Puka Nacua (LAR)", rows[0].Player)
	require.NotNil(t, rows[0].FPTS)
	assert.InDelta(t, 24.5, *rows[0].FPTS, 1e-9)
	require.NotNil(t, rows[0].RosterPct)
	assert.InDelta(t, 88.0, *rows[0].RosterPct, 1e-9)
	assert.Equal(t, 9.0, rows[0].Stats["REC"])
}

func TestReadFileUnsupported(t *testing.T) {
	_, err := ReadFile("stats.json")
	assert.Error(t, err)
}

func TestWeekFromDir(t *testing.T) {
	tests := []struct {
		name string
		week int
		ok   bool
	}{
		{"Week 1", 1, true},
		{"week 12", 12, true},
		{"Week3", 3, true},
		{"Full Season", models.FullSeasonWeek, true},
		{"full season", models.FullSeasonWeek, true},
		{"Week 0", 0, false},
		{"Weekly", 0, false},
		{"archive", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			week, ok := weekFromDir(tt.name)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.week, week)
			}
		})
	}
}

func TestHasToken(t *testing.T) {
	assert.True(t, hasToken("FantasyPros_Fantasy_Football_Statistics_TE.csv", "TE"))
	assert.True(t, hasToken("qb stats.xlsx", "QB"))
	assert.False(t, hasToken("Totes.csv", "TE"))
	assert.False(t, hasToken("QBR.csv", "QB"))
}

func seasonLayout(t *testing.T) string {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Week 1", "Stats_QB.csv"), qbWeek1)
	writeFile(t, filepath.Join(dir, "Week 2", "Stats_QB.csv"),
		"Player,FPTS,G,ROST\nJosh Allen (BUF),18,1,99.8%\n")
	writeXLSX(t, filepath.Join(dir, "Week 2", "Stats_WR.xlsx"), [][]interface{}{
		{"Player", "FPTS"},
		{"Puka Nacua (LAR)", "24.5"},
	})
	writeFile(t, filepath.Join(dir, "Full Season", "Stats_QB.csv"),
		"Player,FPTS,FPTS/G,G,ROST\nJosh Allen (BUF),48,24,2,99.8%\nJalen Hurts (PHI),22,22,1,99.1%\n")
	writeFile(t, filepath.Join(dir, "notes", "Stats_QB.csv"), "Player,FPTS\nX,1\n")
	writeFile(t, filepath.Join(dir, "Week 1", "README.txt"), "ignored")
	return dir
}

func TestDiscover(t *testing.T) {
	dir := seasonLayout(t)

	tables, err := Discover(dir, []models.Position{models.QB, models.WR, models.TE})
	require.NoError(t, err)
	require.Len(t, tables, 4)

	assert.Equal(t, models.FullSeasonWeek, tables[0].Week)
	assert.Equal(t, models.QB, tables[0].Position)
	assert.Equal(t, 1, tables[1].Week)
	assert.Equal(t, 2, tables[2].Week)
	assert.Equal(t, models.QB, tables[2].Position)
	assert.Equal(t, models.WR, tables[3].Position)
	assert.Equal(t, ".xlsx", filepath.Ext(tables[3].Path))
}

func TestDiscoverMissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing"), models.AllPositions)
	assert.Error(t, err)
}

func TestLoadDir(t *testing.T) {
	dir := seasonLayout(t)
	store := storage.New(18)

	results, err := LoadDir(store, dir, models.AllPositions)
	require.NoError(t, err)
	require.Len(t, results, 4)

	// week 1 QB: the blank-FPTS row is skipped
	assert.Equal(t, 1, results[1].Week)
	assert.Equal(t, 2, results[1].Accepted)
	assert.Equal(t, 1, results[1].Skipped)
	require.Len(t, results[1].Malformed, 1)

	snap := store.Snapshot()
	assert.Equal(t, 2, snap.LeagueWeekCount())
	assert.Len(t, snap.SeasonRows(models.QB), 2)
	assert.Len(t, snap.Query(models.QB, models.AllWeeks), 3)
	assert.Len(t, snap.Query(models.WR, models.AllWeeks), 1)
}

func TestLoadDirEmpty(t *testing.T) {
	_, err := LoadDir(storage.New(18), t.TempDir(), models.AllPositions)
	assert.Error(t, err)
}

func TestReadCSVNonFiniteIsMissing(t *testing.T) {
	input := "Player,FPTS,FPTS/G,ROST,YDS\nA,10,10,5%,NaN\nB,NaN,1,5%,1\nC,20,Inf,+Inf%,2\nD,-Inf,2,5%,3\n"
	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.NotContains(t, rows[0].Stats, "YDS")
	assert.Nil(t, rows[1].FPTS)
	require.NotNil(t, rows[2].FPTS)
	assert.Nil(t, rows[2].FPTSPerGame)
	assert.Nil(t, rows[2].RosterPct)
	assert.Nil(t, rows[3].FPTS)

	store := storage.New(18)
	res, err := store.Load(models.QB, 1, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Accepted)
	assert.Equal(t, 2, res.Skipped)
}

func TestLoadDirSkipsWeekPastCap(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Week 1", "QB.csv"), "Player,FPTS\nJosh Allen (BUF),30\n")
	writeFile(t, filepath.Join(dir, "Week 19", "QB.csv"), "Player,FPTS\nJosh Allen (BUF),41\n")
	store := storage.New(18)

	results, err := LoadDir(store, dir, models.AllPositions)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Week)
	assert.Equal(t, []int{1}, store.Snapshot().Weeks(models.QB))
}
