// Package report writes the dispersion rankings of a run to an XLSX workbook.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/temperature-dispersion/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Sheet names.
const (
	SheetAnnual    = "Annual"
	SheetMonthly   = "Monthly"
	SheetSelection = "Selection"
)

// Workbook writes summaries to a fixed path. It implements
// pipeline.ReportWriter.
type Workbook struct {
	path   string
	logger *slog.Logger
}

// NewWorkbook creates a Workbook that saves to path.
func NewWorkbook(path string, logger *slog.Logger) *Workbook {
	return &Workbook{path: path, logger: logger}
}

// Write saves the summary as three sheets: the annual ranking, the monthly
// ranking and the selected province.
func (w *Workbook) Write(ctx context.Context, s domain.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetAnnual); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetMonthly); err != nil {
		return fmt.Errorf("create sheet %s: %w", SheetMonthly, err)
	}
	if _, err := f.NewSheet(SheetSelection); err != nil {
		return fmt.Errorf("create sheet %s: %w", SheetSelection, err)
	}

	annual := [][]any{{"Rank", "Province", "Dispersion", "Top"}}
	top := make(map[string]bool, len(s.TopProvinces))
	for _, p := range s.TopProvinces {
		top[p] = true
	}
	for i, e := range s.Annual {
		charted := "no"
		if top[e.Province] {
			charted = "yes"
		}
		annual = append(annual, []any{i + 1, e.Province, e.Dispersion, charted})
	}

	monthly := [][]any{{"Rank", "Province", "Month", "Dispersion"}}
	for i, e := range s.Monthly {
		monthly = append(monthly, []any{i + 1, e.Province, e.Month, e.Dispersion})
	}

	months := make([]string, 0, len(s.Selection.Months))
	for _, m := range s.Selection.Months {
		months = append(months, strconv.Itoa(m))
	}
	selection := [][]any{
		{"Province", "Months", "Generated at"},
		{s.Selection.Province, strings.Join(months, ","), s.GeneratedAt.UTC().Format(time.RFC3339)},
	}

	for sheet, rows := range map[string][][]any{
		SheetAnnual:    annual,
		SheetMonthly:   monthly,
		SheetSelection: selection,
	} {
		if err := writeRows(f, sheet, rows); err != nil {
			return err
		}
	}

	if dir := filepath.Dir(w.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save report %s: %w", w.path, err)
	}
	w.logger.Info("report written", "path", w.path, "annual", len(s.Annual), "monthly", len(s.Monthly))
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return f.SetColWidth(sheet, "A", "D", 16)
}
