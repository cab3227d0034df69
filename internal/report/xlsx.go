package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/rewired-gh/fantasy-insights/internal/analysis"
)

// WriteXLSX saves a workbook with one sheet per position. Each ranking is a
// block of rows headed by its title; entries past topN are left out.
func WriteXLSX(path string, rep *analysis.Report, topN int) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	first := true
	for _, pr := range rep.Positions {
		sheet := string(pr.Position)
		if first {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
			first = false
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}

		row := 1
		for _, r := range pr.Rankings {
			if err := setRow(f, sheet, row, []interface{}{Title(r.Metric)}); err != nil {
				return err
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetCellStyle(sheet, cell, cell, bold); err != nil {
				return fmt.Errorf("failed to style %s!%s: %w", sheet, cell, err)
			}
			row++

			header := []interface{}{"Rank", "Player", "Status"}
			for _, h := range Header(r.Metric) {
				header = append(header, h)
			}
			if err := setRow(f, sheet, row, header); err != nil {
				return err
			}
			row++

			for _, e := range r.Top(topN) {
				values := []interface{}{e.Rank, e.Player, string(e.Status)}
				for _, c := range Columns(r.Metric, e) {
					values = append(values, c)
				}
				if err := setRow(f, sheet, row, values); err != nil {
					return err
				}
				row++
			}
			row++
		}
	}

	if first {
		return fmt.Errorf("report has no positions")
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
	}
	return nil
}
