package exporter

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"cohort-ltv/pkg/models"

	"github.com/xuri/excelize/v2"
)

const (
	sheetLtv     = "LTV_cumulative"
	sheetSummary = "Summary"

	minColWidth = 12
	maxColWidth = 40
)

// WriteWorkbook serializes the cumulative LTV matrix and the summary rows
// as two sheets in a single workbook. Undefined values (NaN) are left as
// empty cells. The file is only written here, after all computation has
// already succeeded.
func WriteWorkbook(path string, ltvCum models.LtvMatrix, summary []models.SummaryRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetLtv); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	if err := writeLtvSheet(f, ltvCum); err != nil {
		return err
	}
	if err := writeSummarySheet(f, summary); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	slog.Info("workbook written",
		slog.String("path", path),
		slog.Int("cohorts", len(ltvCum.Cohorts)),
		slog.Int("offsets", len(ltvCum.Offsets)))
	return nil
}

func writeLtvSheet(f *excelize.File, m models.LtvMatrix) error {
	header := []any{"cohort_month"}
	for _, off := range m.Offsets {
		header = append(header, off)
	}
	if err := setRow(f, sheetLtv, 1, header); err != nil {
		return err
	}

	for i, cohort := range m.Cohorts {
		row := []any{cohort}
		for j := range m.Offsets {
			row = append(row, cellValue(m.Value(cohort, j)))
		}
		if err := setRow(f, sheetLtv, i+2, row); err != nil {
			return err
		}
	}
	return autosize(f, sheetLtv, len(m.Offsets)+1)
}

func writeSummarySheet(f *excelize.File, summary []models.SummaryRow) error {
	if err := setRow(f, sheetSummary, 1, []any{"cohort_month", "LTV_latest", "CAC", "LTV_to_CAC"}); err != nil {
		return err
	}
	for i, s := range summary {
		row := []any{s.CohortMonth, cellValue(s.LTVLatest), cellValue(s.CAC), cellValue(s.LTVtoCAC)}
		if err := setRow(f, sheetSummary, i+2, row); err != nil {
			return err
		}
	}
	return autosize(f, sheetSummary, 4)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// cellValue maps NaN to nil so undefined ratios export as empty cells
// instead of the literal string "NaN".
func cellValue(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

// autosize sets each column's width from its longest rendered value,
// clamped to a readable range.
func autosize(f *excelize.File, sheet string, columns int) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return err
	}
	for col := 1; col <= columns; col++ {
		longest := 0
		for _, row := range rows {
			if col-1 < len(row) && len(row[col-1]) > longest {
				longest = len(row[col-1])
			}
		}
		width := float64(longest + 2)
		if width < minColWidth {
			width = minColWidth
		}
		if width > maxColWidth {
			width = maxColWidth
		}
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

// FormatRatio renders a summary ratio for logs; NaN becomes "n/a".
func FormatRatio(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
